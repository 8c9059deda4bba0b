package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tally-dev/tally/internal/apperr"
	"github.com/tally-dev/tally/internal/money"
)

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request, userID string) {
	a, err := s.accounts.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceDTO{AccountID: a.ID, Balance: money.Format(a.Balance)})
}

func (s *Server) checkBalance(w http.ResponseWriter, r *http.Request, userID string) {
	d, err := s.reconciler.Check(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDrift(d))
}

func (s *Server) recomputeBalance(w http.ResponseWriter, r *http.Request, userID string) {
	accountID := r.PathValue("id")
	b, err := s.reconciler.Recompute(r.Context(), userID, accountID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceDTO{AccountID: accountID, Balance: money.Format(b)})
}

func (s *Server) totalBalance(w http.ResponseWriter, r *http.Request, userID string) {
	total, err := s.reconciler.TotalBalance(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceDTO{Balance: money.Format(total)})
}

func (s *Server) recomputeAll(w http.ResponseWriter, r *http.Request, userID string) {
	drifts, err := s.reconciler.RecomputeAll(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]driftDTO, 0, len(drifts))
	for _, d := range drifts {
		out = append(out, toDrift(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) monthlySummary(w http.ResponseWriter, r *http.Request, userID string) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		s.writeError(w, r, apperr.Validation("api.monthlySummary", "invalid year %q", r.PathValue("year")))
		return
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil {
		s.writeError(w, r, apperr.Validation("api.monthlySummary", "invalid month %q", r.PathValue("month")))
		return
	}
	sum, err := s.reconciler.MonthlySummary(r.Context(), userID, year, time.Month(month))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummary(sum))
}
