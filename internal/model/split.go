package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillSplit divides a shared bill into participant shares.
// Marking a share paid tracks an IOU; it never moves money between accounts.
type BillSplit struct {
	ID           string
	UserID       string
	Description  string
	Total        decimal.Decimal
	Date         time.Time
	Participants []Participant
	CreatedAt    time.Time
}

// Participant is one person's share of a bill split.
type Participant struct {
	ID      string
	SplitID string
	Name    string
	Share   decimal.Decimal
	Paid    bool
}
