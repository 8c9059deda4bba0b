package api

import (
	"net/http"

	"github.com/tally-dev/tally/internal/money"
	"github.com/tally-dev/tally/internal/splits"
)

func (s *Server) listSplits(w http.ResponseWriter, r *http.Request, userID string) {
	list, err := s.splits.List(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]splitDTO, 0, len(list))
	for _, sp := range list {
		out = append(out, toSplit(sp))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createSplit(w http.ResponseWriter, r *http.Request, userID string) {
	var req splitRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	total, err := parseAmount("total", req.Total)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	shares := make([]splits.Share, 0, len(req.Participants))
	for _, p := range req.Participants {
		amount, err := parseSignedAmount("participants.amount", p.Amount)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		shares = append(shares, splits.Share{Name: p.Name, Amount: amount})
	}
	sp, err := s.splits.Create(r.Context(), userID, splits.CreateParams{
		Description: req.Description,
		Total:       total,
		Date:        date,
		Shares:      shares,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSplit(*sp))
}

func (s *Server) getSplit(w http.ResponseWriter, r *http.Request, userID string) {
	sp, err := s.splits.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSplit(*sp))
}

func (s *Server) markParticipantPaid(w http.ResponseWriter, r *http.Request, userID string) {
	var req flagRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sp, err := s.splits.MarkPaid(r.Context(), userID, r.PathValue("id"), r.PathValue("participantID"), req.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSplit(*sp))
}

func (s *Server) outstandingSplits(w http.ResponseWriter, r *http.Request, userID string) {
	total, err := s.splits.Outstanding(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Outstanding string `json:"outstanding"`
	}{money.Format(total)})
}

