package api

import (
	"net/http"

	"github.com/tally-dev/tally/internal/goals"
)

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request, userID string) {
	list, err := s.goals.List(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]goalDTO, 0, len(list))
	for _, g := range list {
		out = append(out, toGoal(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request, userID string) {
	var req goalRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	target, err := parseSignedAmount("targetAmount", req.TargetAmount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	targetDate, err := parseOptionalDate("targetDate", req.TargetDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.goals.Create(r.Context(), userID, goals.CreateParams{
		Name:         req.Name,
		TargetAmount: target,
		TargetDate:   targetDate,
		AccountIDs:   req.AccountIDs,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoal(*g))
}

func (s *Server) getGoal(w http.ResponseWriter, r *http.Request, userID string) {
	g, err := s.goals.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoal(*g))
}

func (s *Server) deleteGoal(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.goals.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) goalProgress(w http.ResponseWriter, r *http.Request, userID string) {
	p, err := s.goals.Progress(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgress(p))
}

func (s *Server) setGoalCompleted(w http.ResponseWriter, r *http.Request, userID string) {
	var req flagRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.goals.SetCompleted(r.Context(), userID, r.PathValue("id"), req.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoal(*g))
}

func (s *Server) linkGoalAccount(w http.ResponseWriter, r *http.Request, userID string) {
	goalID := r.PathValue("id")
	if err := s.goals.LinkAccount(r.Context(), userID, goalID, r.PathValue("accountID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.getGoal(w, r, userID)
}

func (s *Server) unlinkGoalAccount(w http.ResponseWriter, r *http.Request, userID string) {
	goalID := r.PathValue("id")
	if err := s.goals.UnlinkAccount(r.Context(), userID, goalID, r.PathValue("accountID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.getGoal(w, r, userID)
}
