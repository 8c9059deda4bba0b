// Package storage defines the persistence boundary for the ledger.
package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// Querier is the read/write surface shared by a Store and its transactions.
// Lookups of absent rows return an apperr NotFound error.
type Querier interface {
	InsertAccount(ctx context.Context, a *model.Account) error
	GetAccount(ctx context.Context, userID, accountID string) (*model.Account, error)
	UpdateAccount(ctx context.Context, a *model.Account) error
	SetAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal) error
	SetAccountSortOrder(ctx context.Context, accountID string, sortOrder int) error
	DeleteAccount(ctx context.Context, accountID string) error
	ListAccounts(ctx context.Context, userID string, includeInactive bool) ([]model.Account, error)
	MaxSortOrder(ctx context.Context, userID string) (int, error)
	CountAccountReferences(ctx context.Context, accountID string) (entries int, goals int, err error)

	InsertEntry(ctx context.Context, e *model.LedgerEntry) error
	GetEntry(ctx context.Context, userID, entryID string) (*model.LedgerEntry, error)
	UpdateEntry(ctx context.Context, e *model.LedgerEntry) error
	DeleteEntry(ctx context.Context, entryID string) error
	ListEntriesByAccount(ctx context.Context, accountID string) ([]model.LedgerEntry, error)
	ListEntriesByTransfer(ctx context.Context, userID, transferID string) ([]model.LedgerEntry, error)
	ListEntriesByParent(ctx context.Context, userID, parentID string) ([]model.LedgerEntry, error)
	ListEntriesInRange(ctx context.Context, userID string, from, to time.Time) ([]model.LedgerEntry, error)

	InsertGoal(ctx context.Context, g *model.Goal) error
	GetGoal(ctx context.Context, userID, goalID string) (*model.Goal, error)
	UpdateGoal(ctx context.Context, g *model.Goal) error
	DeleteGoal(ctx context.Context, goalID string) error
	ListGoals(ctx context.Context, userID string) ([]model.Goal, error)
	LinkGoalAccount(ctx context.Context, goalID, accountID string) error
	UnlinkGoalAccount(ctx context.Context, goalID, accountID string) error

	InsertSplit(ctx context.Context, s *model.BillSplit) error
	GetSplit(ctx context.Context, userID, splitID string) (*model.BillSplit, error)
	ListSplits(ctx context.Context, userID string) ([]model.BillSplit, error)
	SetParticipantPaid(ctx context.Context, splitID, participantID string, paid bool) error
}

// Store is a Querier that can also run a set of writes atomically.
type Store interface {
	Querier

	// WithTx runs fn inside one transaction. If fn returns an error, or the
	// commit fails, nothing fn wrote is persisted.
	WithTx(ctx context.Context, fn func(q Querier) error) error

	// Close releases any resources held by the store.
	Close() error
}
