// Package splits divides shared bills into participant shares. Marking a
// share paid records an IOU settlement; no ledger entry is ever created.
package splits

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/apperr"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
	"github.com/tally-dev/tally/internal/storage"
)

// Service provides business logic for bill splits.
type Service struct {
	store storage.Store
	log   *slog.Logger
}

// NewService creates a splits Service. log may be nil.
func NewService(store storage.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log}
}

// Share is one participant in a CreateParams. A zero Amount on every share
// asks for an equal split.
type Share struct {
	Name   string
	Amount decimal.Decimal
}

// CreateParams holds parameters for a new bill split.
type CreateParams struct {
	Description string
	Total       decimal.Decimal
	Date        time.Time
	Shares      []Share
}

// Create stores a split. With no explicit amounts the total is divided
// evenly and the last participant takes the remainder cents; explicit
// amounts must add up to the total exactly.
func (s *Service) Create(ctx context.Context, userID string, p CreateParams) (*model.BillSplit, error) {
	const op = "splits.Create"

	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		return nil, apperr.Validation(op, "description is required")
	}
	if !p.Total.IsPositive() || !money.IsCents(p.Total) {
		return nil, apperr.Validation(op, "total must be a positive amount in cents, got %s", p.Total)
	}
	if p.Date.IsZero() {
		return nil, apperr.Validation(op, "date is required")
	}
	if len(p.Shares) == 0 {
		return nil, apperr.Validation(op, "at least one participant is required")
	}

	explicit := false
	for _, sh := range p.Shares {
		if strings.TrimSpace(sh.Name) == "" {
			return nil, apperr.Validation(op, "participant name is required")
		}
		if !sh.Amount.IsZero() {
			explicit = true
		}
	}

	participants := make([]model.Participant, len(p.Shares))
	if explicit {
		sum := decimal.Zero
		for i, sh := range p.Shares {
			if !sh.Amount.IsPositive() || !money.IsCents(sh.Amount) {
				return nil, apperr.Validation(op, "share for %s must be a positive amount in cents, got %s", sh.Name, sh.Amount)
			}
			participants[i] = model.Participant{Name: strings.TrimSpace(sh.Name), Share: sh.Amount}
			sum = sum.Add(sh.Amount)
		}
		if !sum.Equal(p.Total) {
			return nil, apperr.Validation(op, "shares add up to %s, total is %s", money.Format(sum), money.Format(p.Total))
		}
	} else {
		parts, err := money.Split(p.Total, len(p.Shares))
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, op, err, "cannot split %s", p.Total)
		}
		for i, sh := range p.Shares {
			participants[i] = model.Participant{Name: strings.TrimSpace(sh.Name), Share: parts[i]}
		}
	}

	split := &model.BillSplit{
		UserID:       userID,
		Description:  desc,
		Total:        p.Total,
		Date:         p.Date,
		Participants: participants,
	}
	if err := s.store.WithTx(ctx, func(q storage.Querier) error {
		return q.InsertSplit(ctx, split)
	}); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "bill split created",
		"split_id", split.ID, "total", money.Format(split.Total), "participants", len(participants))
	return split, nil
}

// Get returns a split with its participants.
func (s *Service) Get(ctx context.Context, userID, splitID string) (*model.BillSplit, error) {
	return s.store.GetSplit(ctx, userID, splitID)
}

// List returns the user's splits, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]model.BillSplit, error) {
	return s.store.ListSplits(ctx, userID)
}

// MarkPaid sets a participant's paid flag and returns the updated split.
func (s *Service) MarkPaid(ctx context.Context, userID, splitID, participantID string, paid bool) (*model.BillSplit, error) {
	var split *model.BillSplit
	err := s.store.WithTx(ctx, func(q storage.Querier) error {
		if _, err := q.GetSplit(ctx, userID, splitID); err != nil {
			return err
		}
		if err := q.SetParticipantPaid(ctx, splitID, participantID, paid); err != nil {
			return err
		}
		var err error
		split, err = q.GetSplit(ctx, userID, splitID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "participant marked", "split_id", splitID, "participant_id", participantID, "paid", paid)
	return split, nil
}

// Unpaid sums the unpaid shares of a split.
func Unpaid(split *model.BillSplit) decimal.Decimal {
	total := decimal.Zero
	for _, p := range split.Participants {
		if !p.Paid {
			total = total.Add(p.Share)
		}
	}
	return total
}

// Outstanding sums unpaid shares across all of the user's splits.
func (s *Service) Outstanding(ctx context.Context, userID string) (decimal.Decimal, error) {
	all, err := s.store.ListSplits(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for i := range all {
		total = total.Add(Unpaid(&all[i]))
	}
	return total, nil
}
