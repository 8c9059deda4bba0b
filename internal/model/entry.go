package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType gives the direction of a ledger entry.
type TransactionType string

const (
	TypeDebit       TransactionType = "debit"
	TypeCredit      TransactionType = "credit"
	TypeTransferIn  TransactionType = "transfer_in"
	TypeTransferOut TransactionType = "transfer_out"
)

// Valid reports whether t is a recognized transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeDebit, TypeCredit, TypeTransferIn, TypeTransferOut:
		return true
	}
	return false
}

// IsTransfer reports whether t is one side of a transfer pair.
func (t TransactionType) IsTransfer() bool {
	return t == TypeTransferIn || t == TypeTransferOut
}

// Sign returns +1 for money entering an account and -1 for money leaving it.
func (t TransactionType) Sign() int64 {
	switch t {
	case TypeCredit, TypeTransferIn:
		return 1
	case TypeDebit, TypeTransferOut:
		return -1
	}
	return 0
}

// RecurringType selects how a recurring request is expanded.
type RecurringType string

const (
	RecurringNone        RecurringType = "none"
	RecurringInstallment RecurringType = "installment"
	RecurringAdvanced    RecurringType = "advanced"
)

// Frequency is the cadence unit of a recurrence.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Valid reports whether f is a recognized frequency.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// LedgerEntry is one movement of money on exactly one account.
// Amount is always positive; Type carries the direction.
type LedgerEntry struct {
	ID          string
	UserID      string
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	CategoryID  string
	AccountID   string
	Type        TransactionType

	// TransferID links the two halves of a transfer. Empty otherwise.
	TransferID string

	IsRecurring        bool
	RecurringType      RecurringType
	RecurringFrequency Frequency
	RecurringInterval  int
	InstallmentTotal   int
	InstallmentCurrent int
	RecurringEndDate   time.Time // zero = open-ended
	ParentID           string    // series identifier shared by generated entries

	CreatedAt time.Time
}

// SignedAmount returns the entry's contribution to its account balance.
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	return e.Amount.Mul(decimal.NewFromInt(e.Type.Sign()))
}

// Transfer is the materialized pair of a single logical transfer.
type Transfer struct {
	ID  string
	Out LedgerEntry
	In  LedgerEntry
}
