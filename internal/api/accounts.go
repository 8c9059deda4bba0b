package api

import (
	"net/http"

	"github.com/tally-dev/tally/internal/accounts"
	"github.com/tally-dev/tally/internal/model"
)

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request, userID string) {
	opts := accounts.ListOptions{IncludeInactive: r.URL.Query().Get("inactive") == "true"}
	list, err := s.accounts.List(r.Context(), userID, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccounts(list))
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request, userID string) {
	var req accountRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	initial, err := parseSignedAmount("initialBalance", req.InitialBalance)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.accounts.Create(r.Context(), userID, accounts.CreateParams{
		Name:           req.Name,
		Kind:           model.AccountKind(req.Kind),
		Color:          req.Color,
		InitialBalance: initial,
		Inactive:       req.Inactive,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccount(*a))
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request, userID string) {
	a, err := s.accounts.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccount(*a))
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request, userID string) {
	var req accountPatch
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u := accounts.Update{Name: req.Name, Color: req.Color}
	if req.Kind != nil {
		kind := model.AccountKind(*req.Kind)
		u.Kind = &kind
	}
	a, err := s.accounts.Update(r.Context(), userID, r.PathValue("id"), u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccount(*a))
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.accounts.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deactivateAccount(w http.ResponseWriter, r *http.Request, userID string) {
	a, err := s.accounts.Deactivate(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccount(*a))
}

func (s *Server) reactivateAccount(w http.ResponseWriter, r *http.Request, userID string) {
	a, err := s.accounts.Reactivate(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccount(*a))
}

func (s *Server) reorderAccounts(w http.ResponseWriter, r *http.Request, userID string) {
	var req reorderRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.accounts.Reorder(r.Context(), userID, req.AccountIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccounts(list))
}

func (s *Server) reseedAccount(w http.ResponseWriter, r *http.Request, userID string) {
	var req reseedRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	initial, err := parseSignedAmount("initialBalance", req.InitialBalance)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.accounts.Reseed(r.Context(), userID, r.PathValue("id"), initial)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccount(*a))
}
