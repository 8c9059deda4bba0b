// Package accounts manages a user's bank accounts.
package accounts

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/apperr"
	"github.com/tally-dev/tally/internal/balance"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
	"github.com/tally-dev/tally/internal/storage"
)

// Service provides business logic for accounts. Balances are never written
// here; the reconciler owns them.
type Service struct {
	store      storage.Store
	reconciler *balance.Reconciler
	log        *slog.Logger
}

// NewService creates an accounts Service. log may be nil.
func NewService(store storage.Store, reconciler *balance.Reconciler, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, reconciler: reconciler, log: log}
}

// CreateParams holds parameters for opening an account.
type CreateParams struct {
	Name           string
	Kind           model.AccountKind
	Color          string
	InitialBalance decimal.Decimal
	Inactive       bool // accounts are active unless asked otherwise
}

// Update holds the editable fields of an account. Nil fields are unchanged.
type Update struct {
	Name     *string
	Kind     *model.AccountKind
	Color    *string
	IsActive *bool
}

// ListOptions filters List.
type ListOptions struct {
	IncludeInactive bool
}

// Create opens an account at the end of the user's display order.
func (s *Service) Create(ctx context.Context, userID string, p CreateParams) (*model.Account, error) {
	const op = "accounts.Create"

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, apperr.Validation(op, "account name is required")
	}
	if !p.Kind.Valid() {
		return nil, apperr.Validation(op, "unknown account kind %q", p.Kind)
	}
	if !money.IsCents(p.InitialBalance) {
		return nil, apperr.Validation(op, "initial balance %s has more than 2 decimal places", p.InitialBalance)
	}

	acct := &model.Account{
		UserID:         userID,
		Name:           name,
		Kind:           p.Kind,
		Color:          p.Color,
		InitialBalance: p.InitialBalance,
		Balance:        p.InitialBalance,
		IsActive:       !p.Inactive,
	}
	err := s.store.WithTx(ctx, func(q storage.Querier) error {
		max, err := q.MaxSortOrder(ctx, userID)
		if err != nil {
			return err
		}
		acct.SortOrder = max + 1
		return q.InsertAccount(ctx, acct)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "account created",
		"account_id", acct.ID, "kind", acct.Kind, "balance", money.Format(acct.Balance))
	return acct, nil
}

// Get returns one of the user's accounts.
func (s *Service) Get(ctx context.Context, userID, accountID string) (*model.Account, error) {
	return s.store.GetAccount(ctx, userID, accountID)
}

// List returns the user's accounts, active before inactive, each group in
// sort order.
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) ([]model.Account, error) {
	return s.store.ListAccounts(ctx, userID, opts.IncludeInactive)
}

// Update renames, recolors, reclassifies or toggles an account. The
// balance is untouched whatever changes.
func (s *Service) Update(ctx context.Context, userID, accountID string, u Update) (*model.Account, error) {
	const op = "accounts.Update"

	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return nil, apperr.Validation(op, "account name is required")
	}
	if u.Kind != nil && !u.Kind.Valid() {
		return nil, apperr.Validation(op, "unknown account kind %q", *u.Kind)
	}

	var acct *model.Account
	err := s.store.WithTx(ctx, func(q storage.Querier) error {
		var err error
		acct, err = q.GetAccount(ctx, userID, accountID)
		if err != nil {
			return err
		}
		if u.Name != nil {
			acct.Name = strings.TrimSpace(*u.Name)
		}
		if u.Kind != nil {
			acct.Kind = *u.Kind
		}
		if u.Color != nil {
			acct.Color = *u.Color
		}
		if u.IsActive != nil {
			acct.IsActive = *u.IsActive
		}
		return q.UpdateAccount(ctx, acct)
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// Deactivate hides an account from aggregate totals. Its entries, balance
// and goal links are kept.
func (s *Service) Deactivate(ctx context.Context, userID, accountID string) (*model.Account, error) {
	inactive := false
	acct, err := s.Update(ctx, userID, accountID, Update{IsActive: &inactive})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "account deactivated", "account_id", accountID)
	return acct, nil
}

// Reactivate returns an account to aggregate totals.
func (s *Service) Reactivate(ctx context.Context, userID, accountID string) (*model.Account, error) {
	active := true
	acct, err := s.Update(ctx, userID, accountID, Update{IsActive: &active})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "account reactivated", "account_id", accountID)
	return acct, nil
}

// Delete removes an account that no entry or goal references. Accounts
// with history should be deactivated instead.
func (s *Service) Delete(ctx context.Context, userID, accountID string) error {
	const op = "accounts.Delete"

	err := s.store.WithTx(ctx, func(q storage.Querier) error {
		if _, err := q.GetAccount(ctx, userID, accountID); err != nil {
			return err
		}
		entries, goals, err := q.CountAccountReferences(ctx, accountID)
		if err != nil {
			return err
		}
		if entries > 0 || goals > 0 {
			return apperr.Conflict(op, "account %s has %d entries and %d goal links; deactivate it instead", accountID, entries, goals)
		}
		return q.DeleteAccount(ctx, accountID)
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "account deleted", "account_id", accountID)
	return nil
}

// Reorder rewrites sort orders so accountIDs appear in the given sequence.
// Accounts not named keep their relative order after the named ones.
func (s *Service) Reorder(ctx context.Context, userID string, accountIDs []string) ([]model.Account, error) {
	const op = "accounts.Reorder"

	seen := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		if seen[id] {
			return nil, apperr.Validation(op, "account %s listed twice", id)
		}
		seen[id] = true
	}

	var ordered []model.Account
	err := s.store.WithTx(ctx, func(q storage.Querier) error {
		all, err := q.ListAccounts(ctx, userID, true)
		if err != nil {
			return err
		}
		byID := make(map[string]model.Account, len(all))
		for _, a := range all {
			byID[a.ID] = a
		}

		ordered = make([]model.Account, 0, len(all))
		for _, id := range accountIDs {
			a, ok := byID[id]
			if !ok {
				return apperr.NotFound(op, "account not found: %s", id)
			}
			ordered = append(ordered, a)
		}
		for _, a := range all {
			if !seen[a.ID] {
				ordered = append(ordered, a)
			}
		}

		for i := range ordered {
			ordered[i].SortOrder = i
			if err := q.SetAccountSortOrder(ctx, ordered[i].ID, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ordered, nil
}

// Reseed replaces an account's initial balance and recomputes its balance.
func (s *Service) Reseed(ctx context.Context, userID, accountID string, initial decimal.Decimal) (*model.Account, error) {
	if _, err := s.reconciler.Reseed(ctx, userID, accountID, initial); err != nil {
		return nil, err
	}
	return s.store.GetAccount(ctx, userID, accountID)
}

// Seed creates each account in turn, for first-run setup.
func (s *Service) Seed(ctx context.Context, userID string, params []CreateParams) ([]model.Account, error) {
	created := make([]model.Account, 0, len(params))
	for _, p := range params {
		acct, err := s.Create(ctx, userID, p)
		if err != nil {
			return nil, err
		}
		created = append(created, *acct)
	}
	return created, nil
}
