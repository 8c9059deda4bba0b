package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings target tracked against a set of linked accounts.
// CurrentAmount is derived on every read and never persisted.
type Goal struct {
	ID            string
	UserID        string
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	TargetDate    time.Time
	IsCompleted   bool
	AccountIDs    []string
	CreatedAt     time.Time
}

// GoalProgress is the derived state of a goal.
type GoalProgress struct {
	GoalID        string
	CurrentAmount decimal.Decimal
	TargetAmount  decimal.Decimal
	Percent       decimal.Decimal
}
