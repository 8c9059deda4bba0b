// Package ledger records expenses, income and transfers, keeping account
// balances in step through the balance reconciler.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/apperr"
	"github.com/tally-dev/tally/internal/balance"
	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/metrics"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
	"github.com/tally-dev/tally/internal/recurrence"
	"github.com/tally-dev/tally/internal/storage"
)

// Service provides business logic for ledger entries.
type Service struct {
	store      storage.Store
	reconciler *balance.Reconciler
	expander   *recurrence.Expander
	log        *slog.Logger
	metrics    *metrics.Metrics
}

// NewService creates a ledger Service. log and m may be nil.
func NewService(store storage.Store, reconciler *balance.Reconciler, expander *recurrence.Expander, log *slog.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, reconciler: reconciler, expander: expander, log: log, metrics: m}
}

// EntryParams holds parameters for recording an expense or income entry.
type EntryParams struct {
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	CategoryID  string
	AccountID   string
	Type        model.TransactionType

	// Recurrence is the zero Rule for a one-off entry.
	Recurrence recurrence.Rule
}

// TransferParams holds parameters for moving money between two accounts.
type TransferParams struct {
	Description   string
	Amount        decimal.Decimal
	Date          time.Time
	FromAccountID string
	ToAccountID   string
}

// RecordSimpleEntry records one debit or credit and applies its delta.
func (s *Service) RecordSimpleEntry(ctx context.Context, userID string, p EntryParams) (*model.LedgerEntry, error) {
	p.Recurrence = recurrence.Rule{}
	entries, err := s.RecordEntry(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// RecordEntry records a debit or credit, expanding it first when the
// recurrence rule asks for a series. The whole series and its balance delta
// are written in one transaction.
func (s *Service) RecordEntry(ctx context.Context, userID string, p EntryParams) ([]model.LedgerEntry, error) {
	const op = "ledger.RecordEntry"

	if err := validateEntry(op, p.Description, p.Amount, p.Date, p.AccountID); err != nil {
		return nil, err
	}
	switch p.Type {
	case model.TypeDebit, model.TypeCredit:
	case model.TypeTransferIn, model.TypeTransferOut:
		return nil, apperr.Validation(op, "transfer entries are created with RecordTransfer")
	default:
		return nil, apperr.Validation(op, "transaction type must be debit or credit, got %q", p.Type)
	}

	entries, err := s.expander.Expand(model.LedgerEntry{
		UserID:      userID,
		Description: strings.TrimSpace(p.Description),
		Amount:      p.Amount,
		Date:        p.Date,
		CategoryID:  p.CategoryID,
		AccountID:   p.AccountID,
		Type:        p.Type,
	}, p.Recurrence)
	if err != nil {
		return nil, err
	}

	delta := decimal.Zero
	for _, e := range entries {
		delta = delta.Add(e.SignedAmount())
	}

	err = s.reconciler.WithAccounts(ctx, []string{p.AccountID}, func(q storage.Querier) error {
		if _, err := q.GetAccount(ctx, userID, p.AccountID); err != nil {
			return err
		}
		for i := range entries {
			if err := q.InsertEntry(ctx, &entries[i]); err != nil {
				return err
			}
		}
		_, err := s.reconciler.ApplyDelta(ctx, q, userID, p.AccountID, delta)
		return err
	})
	if err != nil {
		return nil, batchError(op, err, len(entries))
	}

	if s.metrics != nil {
		s.metrics.EntriesRecorded.WithLabelValues(string(p.Type)).Add(float64(len(entries)))
	}
	s.log.InfoContext(ctx, "entry recorded",
		"account_id", p.AccountID, "entry_id", entries[0].ID, "type", p.Type,
		"count", len(entries), "delta", money.Format(delta))
	return entries, nil
}

// RecordTransfer creates a transfer_out on the source and a transfer_in on
// the destination in one transaction. Either both entries and both deltas
// are persisted or nothing is.
func (s *Service) RecordTransfer(ctx context.Context, userID string, p TransferParams) (*model.Transfer, error) {
	const op = "ledger.RecordTransfer"

	if err := validateEntry(op, p.Description, p.Amount, p.Date, p.FromAccountID); err != nil {
		return nil, err
	}
	if p.ToAccountID == "" {
		return nil, apperr.Validation(op, "destination account is required")
	}
	if p.FromAccountID == p.ToAccountID {
		return nil, apperr.Validation(op, "source and destination account must differ")
	}

	transferID := id.New()
	out := model.LedgerEntry{
		UserID:        userID,
		Description:   strings.TrimSpace(p.Description),
		Amount:        p.Amount,
		Date:          p.Date,
		AccountID:     p.FromAccountID,
		Type:          model.TypeTransferOut,
		TransferID:    transferID,
		RecurringType: model.RecurringNone,
	}
	in := out
	in.AccountID = p.ToAccountID
	in.Type = model.TypeTransferIn

	err := s.reconciler.WithAccounts(ctx, []string{p.FromAccountID, p.ToAccountID}, func(q storage.Querier) error {
		for _, e := range []*model.LedgerEntry{&out, &in} {
			if _, err := q.GetAccount(ctx, userID, e.AccountID); err != nil {
				return err
			}
			if err := q.InsertEntry(ctx, e); err != nil {
				return err
			}
			if _, err := s.reconciler.ApplyDelta(ctx, q, userID, e.AccountID, e.SignedAmount()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, batchError(op, err, 2)
	}

	if s.metrics != nil {
		s.metrics.TransfersRecorded.Inc()
	}
	s.log.InfoContext(ctx, "transfer recorded",
		"transfer_id", transferID, "from", p.FromAccountID, "to", p.ToAccountID,
		"amount", money.Format(p.Amount))
	return &model.Transfer{ID: transferID, Out: out, In: in}, nil
}

// GetTransfer returns both halves of a transfer.
func (s *Service) GetTransfer(ctx context.Context, userID, transferID string) (*model.Transfer, error) {
	entries, err := s.store.ListEntriesByTransfer(ctx, userID, transferID)
	if err != nil {
		return nil, err
	}
	t := &model.Transfer{ID: transferID}
	var haveOut, haveIn bool
	for _, e := range entries {
		switch e.Type {
		case model.TypeTransferOut:
			t.Out, haveOut = e, true
		case model.TypeTransferIn:
			t.In, haveIn = e, true
		}
	}
	if !haveOut || !haveIn {
		return nil, apperr.NotFound("ledger.GetTransfer", "transfer not found: %s", transferID)
	}
	return t, nil
}

// DeleteTransfer removes both entries of a transfer and reverses both
// deltas. If only one side is left, it is removed and the affected account
// is recomputed from scratch instead.
func (s *Service) DeleteTransfer(ctx context.Context, userID, transferID string) error {
	const op = "ledger.DeleteTransfer"

	before, err := s.store.ListEntriesByTransfer(ctx, userID, transferID)
	if err != nil {
		return err
	}
	if len(before) == 0 {
		return apperr.NotFound(op, "transfer not found: %s", transferID)
	}

	err = s.reconciler.WithAccounts(ctx, accountIDs(before), func(q storage.Querier) error {
		entries, err := q.ListEntriesByTransfer(ctx, userID, transferID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return apperr.NotFound(op, "transfer not found: %s", transferID)
		}
		if !sameAccounts(before, entries) {
			return apperr.Conflict(op, "transfer %s changed while it was being deleted", transferID)
		}

		for _, e := range entries {
			if err := q.DeleteEntry(ctx, e.ID); err != nil {
				return err
			}
		}

		if len(entries) == 2 {
			for _, e := range entries {
				if _, err := s.reconciler.ApplyDelta(ctx, q, userID, e.AccountID, e.SignedAmount().Neg()); err != nil {
					return err
				}
			}
			return nil
		}

		s.log.WarnContext(ctx, "transfer is not a pair, recomputing",
			"transfer_id", transferID, "entries", len(entries))
		for _, accountID := range accountIDs(entries) {
			if _, err := s.reconciler.RecomputeTx(ctx, q, userID, accountID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return batchError(op, err, len(before))
	}

	s.log.InfoContext(ctx, "transfer deleted", "transfer_id", transferID)
	return nil
}

// Get returns a single entry.
func (s *Service) Get(ctx context.Context, userID, entryID string) (*model.LedgerEntry, error) {
	return s.store.GetEntry(ctx, userID, entryID)
}

// ListEntries returns every entry on one of the user's accounts in date order.
func (s *Service) ListEntries(ctx context.Context, userID, accountID string) ([]model.LedgerEntry, error) {
	if _, err := s.store.GetAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}
	return s.store.ListEntriesByAccount(ctx, accountID)
}

// EntryUpdate replaces the editable fields of a non-transfer entry.
type EntryUpdate struct {
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	CategoryID  string
	AccountID   string
	Type        model.TransactionType
}

// UpdateEntry rewrites a debit or credit entry, removing its old effect
// from the old account and applying the new effect to the new one.
// Transfer entries cannot be edited; delete and re-create the transfer.
func (s *Service) UpdateEntry(ctx context.Context, userID, entryID string, u EntryUpdate) (*model.LedgerEntry, error) {
	const op = "ledger.UpdateEntry"

	if err := validateEntry(op, u.Description, u.Amount, u.Date, u.AccountID); err != nil {
		return nil, err
	}
	if u.Type != model.TypeDebit && u.Type != model.TypeCredit {
		return nil, apperr.Validation(op, "transaction type must be debit or credit, got %q", u.Type)
	}

	current, err := s.store.GetEntry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	if current.Type.IsTransfer() {
		return nil, apperr.Conflict(op, "entry %s is part of transfer %s; delete and re-create the transfer instead", entryID, current.TransferID)
	}

	var updated model.LedgerEntry
	err = s.reconciler.WithAccounts(ctx, []string{current.AccountID, u.AccountID}, func(q storage.Querier) error {
		old, err := q.GetEntry(ctx, userID, entryID)
		if err != nil {
			return err
		}
		if old.AccountID != current.AccountID {
			return apperr.Conflict(op, "entry %s moved while it was being updated", entryID)
		}
		if _, err := q.GetAccount(ctx, userID, u.AccountID); err != nil {
			return err
		}

		updated = *old
		updated.Description = strings.TrimSpace(u.Description)
		updated.Amount = u.Amount
		updated.Date = u.Date
		updated.CategoryID = u.CategoryID
		updated.AccountID = u.AccountID
		updated.Type = u.Type
		if err := q.UpdateEntry(ctx, &updated); err != nil {
			return err
		}

		if old.AccountID == updated.AccountID {
			delta := updated.SignedAmount().Sub(old.SignedAmount())
			_, err := s.reconciler.ApplyDelta(ctx, q, userID, updated.AccountID, delta)
			return err
		}
		if _, err := s.reconciler.ApplyDelta(ctx, q, userID, old.AccountID, old.SignedAmount().Neg()); err != nil {
			return err
		}
		_, err = s.reconciler.ApplyDelta(ctx, q, userID, updated.AccountID, updated.SignedAmount())
		return err
	})
	if err != nil {
		return nil, batchError(op, err, 1)
	}

	s.log.InfoContext(ctx, "entry updated", "entry_id", entryID, "account_id", updated.AccountID)
	return &updated, nil
}

// DeleteEntry removes an entry and reverses its delta. Deleting either
// side of a transfer deletes the whole transfer.
func (s *Service) DeleteEntry(ctx context.Context, userID, entryID string) error {
	const op = "ledger.DeleteEntry"

	current, err := s.store.GetEntry(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if current.TransferID != "" {
		return s.DeleteTransfer(ctx, userID, current.TransferID)
	}

	err = s.reconciler.WithAccounts(ctx, []string{current.AccountID}, func(q storage.Querier) error {
		e, err := q.GetEntry(ctx, userID, entryID)
		if err != nil {
			return err
		}
		if e.AccountID != current.AccountID {
			return apperr.Conflict(op, "entry %s moved while it was being deleted", entryID)
		}
		if err := q.DeleteEntry(ctx, e.ID); err != nil {
			return err
		}
		_, err = s.reconciler.ApplyDelta(ctx, q, userID, e.AccountID, e.SignedAmount().Neg())
		return err
	})
	if err != nil {
		return batchError(op, err, 1)
	}

	s.log.InfoContext(ctx, "entry deleted", "entry_id", entryID, "account_id", current.AccountID)
	return nil
}

// DeleteSeries removes every entry generated for a recurring or installment
// series and returns how many were removed.
func (s *Service) DeleteSeries(ctx context.Context, userID, parentID string) (int, error) {
	const op = "ledger.DeleteSeries"

	before, err := s.store.ListEntriesByParent(ctx, userID, parentID)
	if err != nil {
		return 0, err
	}
	if len(before) == 0 {
		return 0, apperr.NotFound(op, "series not found: %s", parentID)
	}

	var removed int
	err = s.reconciler.WithAccounts(ctx, accountIDs(before), func(q storage.Querier) error {
		entries, err := q.ListEntriesByParent(ctx, userID, parentID)
		if err != nil {
			return err
		}
		if !sameAccounts(before, entries) {
			return apperr.Conflict(op, "series %s changed while it was being deleted", parentID)
		}

		deltas := make(map[string]decimal.Decimal)
		for _, e := range entries {
			if err := q.DeleteEntry(ctx, e.ID); err != nil {
				return err
			}
			deltas[e.AccountID] = deltas[e.AccountID].Sub(e.SignedAmount())
		}
		for accountID, delta := range deltas {
			if _, err := s.reconciler.ApplyDelta(ctx, q, userID, accountID, delta); err != nil {
				return err
			}
		}
		removed = len(entries)
		return nil
	})
	if err != nil {
		return 0, batchError(op, err, len(before))
	}

	s.log.InfoContext(ctx, "series deleted", "parent_id", parentID, "count", removed)
	return removed, nil
}

// ImportResult counts what ImportEntries did with its rows.
type ImportResult struct {
	Imported int
	Skipped  int // transfer rows
}

// ImportEntries records previously exported entries as one-off debits and
// credits in one transaction. Transfer rows are skipped since a single side
// cannot be replayed. Series metadata is dropped. When accountID is set it
// replaces every row's account.
func (s *Service) ImportEntries(ctx context.Context, userID, accountID string, rows []model.LedgerEntry) (ImportResult, error) {
	const op = "ledger.ImportEntries"

	var res ImportResult
	var entries []model.LedgerEntry
	for i, row := range rows {
		if row.Type.IsTransfer() {
			res.Skipped++
			continue
		}
		if accountID != "" {
			row.AccountID = accountID
		}
		if err := validateEntry(op, row.Description, row.Amount, row.Date, row.AccountID); err != nil {
			return ImportResult{}, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, model.LedgerEntry{
			UserID:        userID,
			Description:   strings.TrimSpace(row.Description),
			Amount:        row.Amount,
			Date:          row.Date,
			CategoryID:    row.CategoryID,
			AccountID:     row.AccountID,
			Type:          row.Type,
			RecurringType: model.RecurringNone,
		})
	}
	if len(entries) == 0 {
		return res, nil
	}

	ids := accountIDs(entries)
	err := s.reconciler.WithAccounts(ctx, ids, func(q storage.Querier) error {
		deltas := make(map[string]decimal.Decimal, len(ids))
		for _, accountID := range ids {
			if _, err := q.GetAccount(ctx, userID, accountID); err != nil {
				return err
			}
		}
		for i := range entries {
			if err := q.InsertEntry(ctx, &entries[i]); err != nil {
				return err
			}
			deltas[entries[i].AccountID] = deltas[entries[i].AccountID].Add(entries[i].SignedAmount())
		}
		for accountID, delta := range deltas {
			if _, err := s.reconciler.ApplyDelta(ctx, q, userID, accountID, delta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, batchError(op, err, len(entries))
	}

	res.Imported = len(entries)
	if s.metrics != nil {
		for _, e := range entries {
			s.metrics.EntriesRecorded.WithLabelValues(string(e.Type)).Inc()
		}
	}
	s.log.InfoContext(ctx, "entries imported", "count", res.Imported, "skipped", res.Skipped)
	return res, nil
}

func validateEntry(op, description string, amount decimal.Decimal, date time.Time, accountID string) error {
	if strings.TrimSpace(description) == "" {
		return apperr.Validation(op, "description is required")
	}
	if !amount.IsPositive() {
		return apperr.Validation(op, "amount must be greater than zero, got %s", amount)
	}
	if !money.IsCents(amount) {
		return apperr.Validation(op, "amount %s has more than 2 decimal places", amount)
	}
	if date.IsZero() {
		return apperr.Validation(op, "date is required")
	}
	if accountID == "" {
		return apperr.Validation(op, "account is required")
	}
	return nil
}

// batchError passes classified errors through and reports anything else
// from a multi-entry write as a Conflict, since the batch was rolled back.
func batchError(op string, err error, n int) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	return apperr.Wrap(apperr.KindConflict, op, err, "rolled back %d entries", n)
}

func accountIDs(entries []model.LedgerEntry) []string {
	seen := make(map[string]bool, len(entries))
	var ids []string
	for _, e := range entries {
		if !seen[e.AccountID] {
			seen[e.AccountID] = true
			ids = append(ids, e.AccountID)
		}
	}
	return ids
}

// sameAccounts reports whether every account in now was also in before.
func sameAccounts(before, now []model.LedgerEntry) bool {
	locked := make(map[string]bool, len(before))
	for _, e := range before {
		locked[e.AccountID] = true
	}
	for _, e := range now {
		if !locked[e.AccountID] {
			return false
		}
	}
	return true
}
