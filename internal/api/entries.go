package api

import (
	"net/http"

	"github.com/tally-dev/tally/internal/apperr"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/recurrence"
)

func (req entryRequest) params() (ledger.EntryParams, error) {
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return ledger.EntryParams{}, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return ledger.EntryParams{}, err
	}
	end, err := parseOptionalDate("recurringEndDate", req.RecurringEndDate)
	if err != nil {
		return ledger.EntryParams{}, err
	}
	var interval int
	if req.RecurringInterval != nil {
		if *req.RecurringInterval < 1 {
			return ledger.EntryParams{}, apperr.Validation("api.entryRequest", "recurringInterval must be at least 1, got %d", *req.RecurringInterval)
		}
		interval = *req.RecurringInterval
	}
	rule := recurrence.Rule{
		Type:             model.RecurringType(req.RecurringType),
		Frequency:        model.Frequency(req.RecurringFrequency),
		Interval:         interval,
		InstallmentTotal: req.InstallmentTotal,
		EndDate:          end,
	}
	if req.RecurringType == "" {
		rule.Type = model.RecurringNone
	}
	return ledger.EntryParams{
		Description: req.Description,
		Amount:      amount,
		Date:        date,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
		Type:        model.TransactionType(req.Type),
		Recurrence:  rule,
	}, nil
}

// createEntry answers a one-off entry with the entry itself and a recurring
// one with the whole generated series.
func (s *Server) createEntry(w http.ResponseWriter, r *http.Request, userID string) {
	var req entryRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := req.params()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries, err := s.ledger.RecordEntry(r.Context(), userID, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !p.Recurrence.IsRecurring() {
		writeJSON(w, http.StatusCreated, toEntry(entries[0]))
		return
	}
	writeJSON(w, http.StatusCreated, toEntries(entries))
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request, userID string) {
	e, err := s.ledger.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntry(*e))
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request, userID string) {
	var req entryRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := req.params()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.ledger.UpdateEntry(r.Context(), userID, r.PathValue("id"), ledger.EntryUpdate{
		Description: p.Description,
		Amount:      p.Amount,
		Date:        p.Date,
		CategoryID:  p.CategoryID,
		AccountID:   p.AccountID,
		Type:        p.Type,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntry(*e))
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.ledger.DeleteEntry(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteSeries(w http.ResponseWriter, r *http.Request, userID string) {
	n, err := s.ledger.DeleteSeries(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request, userID string) {
	entries, err := s.ledger.ListEntries(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntries(entries))
}

func (s *Server) createTransfer(w http.ResponseWriter, r *http.Request, userID string) {
	var req transferRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.ledger.RecordTransfer(r.Context(), userID, ledger.TransferParams{
		Description:   req.Description,
		Amount:        amount,
		Date:          date,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransfer(*t))
}

func (s *Server) getTransfer(w http.ResponseWriter, r *http.Request, userID string) {
	t, err := s.ledger.GetTransfer(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransfer(*t))
}

func (s *Server) deleteTransfer(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.ledger.DeleteTransfer(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
