// Package goals tracks savings goals against linked account balances.
package goals

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/apperr"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
	"github.com/tally-dev/tally/internal/storage"
)

var hundred = decimal.NewFromInt(100)

// Service provides business logic for goals. Progress is derived from
// linked balances on every read and never stored.
type Service struct {
	store storage.Store
	log   *slog.Logger
}

// NewService creates a goals Service. log may be nil.
func NewService(store storage.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log}
}

// CreateParams holds parameters for a new goal.
type CreateParams struct {
	Name         string
	TargetAmount decimal.Decimal
	TargetDate   time.Time // optional
	AccountIDs   []string
}

// Percent returns current/target as a percentage capped at 100, rounded to
// two places. Overdrawn linked accounts give a negative percentage. A
// non-positive target yields zero.
func Percent(current, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return decimal.Zero
	}
	p := current.Div(target).Mul(hundred)
	if p.GreaterThan(hundred) {
		p = hundred
	}
	return p.Round(money.Places)
}

// Create stores a goal linked to the given accounts.
func (s *Service) Create(ctx context.Context, userID string, p CreateParams) (*model.Goal, error) {
	const op = "goals.Create"

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, apperr.Validation(op, "goal name is required")
	}
	if !p.TargetAmount.IsPositive() {
		return nil, apperr.Validation(op, "target amount must be greater than zero, got %s", p.TargetAmount)
	}
	if !money.IsCents(p.TargetAmount) {
		return nil, apperr.Validation(op, "target amount %s has more than 2 decimal places", p.TargetAmount)
	}

	ids := slices.Clone(p.AccountIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	g := &model.Goal{
		UserID:       userID,
		Name:         name,
		TargetAmount: p.TargetAmount,
		TargetDate:   p.TargetDate,
		AccountIDs:   ids,
	}
	err := s.store.WithTx(ctx, func(q storage.Querier) error {
		for _, accountID := range ids {
			if _, err := q.GetAccount(ctx, userID, accountID); err != nil {
				return err
			}
		}
		return q.InsertGoal(ctx, g)
	})
	if err != nil {
		return nil, err
	}

	if err := s.derive(ctx, s.store, g); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "goal created", "goal_id", g.ID, "target", money.Format(g.TargetAmount), "accounts", len(ids))
	return g, nil
}

// Get returns a goal with CurrentAmount filled in.
func (s *Service) Get(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	g, err := s.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if err := s.derive(ctx, s.store, g); err != nil {
		return nil, err
	}
	return g, nil
}

// List returns the user's goals with CurrentAmount filled in.
func (s *Service) List(ctx context.Context, userID string) ([]model.Goal, error) {
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range goals {
		if err := s.derive(ctx, s.store, &goals[i]); err != nil {
			return nil, err
		}
	}
	return goals, nil
}

// Progress sums the balances of every linked account, inactive ones
// included, against the goal's target.
func (s *Service) Progress(ctx context.Context, userID, goalID string) (model.GoalProgress, error) {
	g, err := s.Get(ctx, userID, goalID)
	if err != nil {
		return model.GoalProgress{}, err
	}
	return model.GoalProgress{
		GoalID:        g.ID,
		CurrentAmount: g.CurrentAmount,
		TargetAmount:  g.TargetAmount,
		Percent:       Percent(g.CurrentAmount, g.TargetAmount),
	}, nil
}

// LinkAccount adds an account to a goal. Linking an already linked
// account is a no-op.
func (s *Service) LinkAccount(ctx context.Context, userID, goalID, accountID string) error {
	return s.store.WithTx(ctx, func(q storage.Querier) error {
		if _, err := q.GetGoal(ctx, userID, goalID); err != nil {
			return err
		}
		if _, err := q.GetAccount(ctx, userID, accountID); err != nil {
			return err
		}
		return q.LinkGoalAccount(ctx, goalID, accountID)
	})
}

// UnlinkAccount removes an account from a goal. Unlinking an account that
// is not linked is a no-op.
func (s *Service) UnlinkAccount(ctx context.Context, userID, goalID, accountID string) error {
	return s.store.WithTx(ctx, func(q storage.Querier) error {
		if _, err := q.GetGoal(ctx, userID, goalID); err != nil {
			return err
		}
		return q.UnlinkGoalAccount(ctx, goalID, accountID)
	})
}

// SetCompleted marks a goal completed or reopens it.
func (s *Service) SetCompleted(ctx context.Context, userID, goalID string, completed bool) (*model.Goal, error) {
	var g *model.Goal
	err := s.store.WithTx(ctx, func(q storage.Querier) error {
		var err error
		g, err = q.GetGoal(ctx, userID, goalID)
		if err != nil {
			return err
		}
		g.IsCompleted = completed
		return q.UpdateGoal(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	if err := s.derive(ctx, s.store, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Delete removes a goal and its links. Linked accounts are untouched.
func (s *Service) Delete(ctx context.Context, userID, goalID string) error {
	return s.store.WithTx(ctx, func(q storage.Querier) error {
		if _, err := q.GetGoal(ctx, userID, goalID); err != nil {
			return err
		}
		return q.DeleteGoal(ctx, goalID)
	})
}

func (s *Service) derive(ctx context.Context, q storage.Querier, g *model.Goal) error {
	total := decimal.Zero
	for _, accountID := range g.AccountIDs {
		acct, err := q.GetAccount(ctx, g.UserID, accountID)
		if err != nil {
			return err
		}
		total = total.Add(acct.Balance)
	}
	g.CurrentAmount = total
	return nil
}
