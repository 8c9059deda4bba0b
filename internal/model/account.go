package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind classifies bank accounts.
type AccountKind string

const (
	AccountKindChecking AccountKind = "checking"
	AccountKindSavings  AccountKind = "savings"
	AccountKindCredit   AccountKind = "credit"
)

// Valid reports whether k is a recognized account kind.
func (k AccountKind) Valid() bool {
	switch k {
	case AccountKindChecking, AccountKindSavings, AccountKindCredit:
		return true
	}
	return false
}

// Account is a bank account owned by one user.
//
// Balance is a cached aggregate: InitialBalance plus the signed sum of every
// ledger entry on the account. Only the balance reconciler writes it.
type Account struct {
	ID             string
	UserID         string
	Name           string
	Kind           AccountKind
	Color          string
	InitialBalance decimal.Decimal
	Balance        decimal.Decimal
	IsActive       bool
	SortOrder      int
	CreatedAt      time.Time
}
