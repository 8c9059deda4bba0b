package api

import (
	"time"

	"github.com/tally-dev/tally/internal/balance"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
)

type accountDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	Color          string `json:"color,omitempty"`
	InitialBalance string `json:"initialBalance"`
	Balance        string `json:"balance"`
	IsActive       bool   `json:"isActive"`
	SortOrder      int    `json:"sortOrder"`
}

func toAccount(a model.Account) accountDTO {
	return accountDTO{
		ID:             a.ID,
		Name:           a.Name,
		Kind:           string(a.Kind),
		Color:          a.Color,
		InitialBalance: money.Format(a.InitialBalance),
		Balance:        money.Format(a.Balance),
		IsActive:       a.IsActive,
		SortOrder:      a.SortOrder,
	}
}

func toAccounts(list []model.Account) []accountDTO {
	out := make([]accountDTO, 0, len(list))
	for _, a := range list {
		out = append(out, toAccount(a))
	}
	return out
}

type entryDTO struct {
	ID                 string `json:"id"`
	Description        string `json:"description"`
	Amount             string `json:"amount"`
	Date               string `json:"date"`
	CategoryID         string `json:"categoryId,omitempty"`
	AccountID          string `json:"accountId"`
	Type               string `json:"transactionType"`
	TransferID         string `json:"transferId,omitempty"`
	IsRecurring        bool   `json:"isRecurring"`
	RecurringType      string `json:"recurringType,omitempty"`
	RecurringFrequency string `json:"recurringFrequency,omitempty"`
	RecurringInterval  int    `json:"recurringInterval,omitempty"`
	InstallmentTotal   int    `json:"installmentTotal,omitempty"`
	InstallmentCurrent int    `json:"installmentCurrent,omitempty"`
	RecurringEndDate   string `json:"recurringEndDate,omitempty"`
	ParentID           string `json:"parentId,omitempty"`
}

func toEntry(e model.LedgerEntry) entryDTO {
	d := entryDTO{
		ID:                 e.ID,
		Description:        e.Description,
		Amount:             money.Format(e.Amount),
		Date:               e.Date.Format(time.DateOnly),
		CategoryID:         e.CategoryID,
		AccountID:          e.AccountID,
		Type:               string(e.Type),
		TransferID:         e.TransferID,
		IsRecurring:        e.IsRecurring,
		RecurringFrequency: string(e.RecurringFrequency),
		RecurringInterval:  e.RecurringInterval,
		InstallmentTotal:   e.InstallmentTotal,
		InstallmentCurrent: e.InstallmentCurrent,
		RecurringEndDate:   formatOptionalDate(e.RecurringEndDate),
		ParentID:           e.ParentID,
	}
	if e.RecurringType != model.RecurringNone {
		d.RecurringType = string(e.RecurringType)
	}
	return d
}

func toEntries(list []model.LedgerEntry) []entryDTO {
	out := make([]entryDTO, 0, len(list))
	for _, e := range list {
		out = append(out, toEntry(e))
	}
	return out
}

type entryRequest struct {
	Description        string `json:"description"`
	Amount             string `json:"amount"`
	Date               string `json:"date"`
	CategoryID         string `json:"categoryId"`
	AccountID          string `json:"accountId"`
	Type               string `json:"transactionType"`
	RecurringType      string `json:"recurringType"`
	RecurringFrequency string `json:"recurringFrequency"`
	RecurringInterval  *int   `json:"recurringInterval"` // nil means every period
	InstallmentTotal   int    `json:"installmentTotal"`
	RecurringEndDate   string `json:"recurringEndDate"`
}

type transferRequest struct {
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	FromAccountID string `json:"fromAccountId"`
	ToAccountID   string `json:"toAccountId"`
}

type transferDTO struct {
	ID  string   `json:"id"`
	Out entryDTO `json:"out"`
	In  entryDTO `json:"in"`
}

func toTransfer(t model.Transfer) transferDTO {
	return transferDTO{ID: t.ID, Out: toEntry(t.Out), In: toEntry(t.In)}
}

type accountRequest struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	Color          string `json:"color"`
	InitialBalance string `json:"initialBalance"`
	Inactive       bool   `json:"inactive"`
}

type accountPatch struct {
	Name  *string `json:"name"`
	Kind  *string `json:"kind"`
	Color *string `json:"color"`
}

type reorderRequest struct {
	AccountIDs []string `json:"accountIds"`
}

type reseedRequest struct {
	InitialBalance string `json:"initialBalance"`
}

type balanceDTO struct {
	AccountID string `json:"accountId,omitempty"`
	Balance   string `json:"balance"`
}

type driftDTO struct {
	AccountID string `json:"accountId"`
	Cached    string `json:"cached"`
	Computed  string `json:"computed"`
	Drifted   bool   `json:"drifted"`
}

func toDrift(d balance.Drift) driftDTO {
	return driftDTO{
		AccountID: d.AccountID,
		Cached:    money.Format(d.Cached),
		Computed:  money.Format(d.Computed),
		Drifted:   d.Drifted(),
	}
}

type summaryDTO struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Expenses string `json:"expenses"`
	Income   string `json:"income"`
	Net      string `json:"net"`
}

func toSummary(s balance.Summary) summaryDTO {
	return summaryDTO{
		Year:     s.Year,
		Month:    int(s.Month),
		Expenses: money.Format(s.Expenses),
		Income:   money.Format(s.Income),
		Net:      money.Format(s.Net()),
	}
}

type goalRequest struct {
	Name         string   `json:"name"`
	TargetAmount string   `json:"targetAmount"`
	TargetDate   string   `json:"targetDate"`
	AccountIDs   []string `json:"accountIds"`
}

type goalDTO struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	TargetAmount  string   `json:"targetAmount"`
	CurrentAmount string   `json:"currentAmount"`
	TargetDate    string   `json:"targetDate,omitempty"`
	IsCompleted   bool     `json:"isCompleted"`
	AccountIDs    []string `json:"accountIds"`
}

func toGoal(g model.Goal) goalDTO {
	ids := g.AccountIDs
	if ids == nil {
		ids = []string{}
	}
	return goalDTO{
		ID:            g.ID,
		Name:          g.Name,
		TargetAmount:  money.Format(g.TargetAmount),
		CurrentAmount: money.Format(g.CurrentAmount),
		TargetDate:    formatOptionalDate(g.TargetDate),
		IsCompleted:   g.IsCompleted,
		AccountIDs:    ids,
	}
}

type progressDTO struct {
	GoalID        string `json:"goalId"`
	CurrentAmount string `json:"currentAmount"`
	TargetAmount  string `json:"targetAmount"`
	Percent       string `json:"percent"`
}

func toProgress(p model.GoalProgress) progressDTO {
	return progressDTO{
		GoalID:        p.GoalID,
		CurrentAmount: money.Format(p.CurrentAmount),
		TargetAmount:  money.Format(p.TargetAmount),
		Percent:       money.Format(p.Percent),
	}
}

type flagRequest struct {
	Value bool `json:"value"`
}

type shareRequest struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type splitRequest struct {
	Description  string         `json:"description"`
	Total        string         `json:"total"`
	Date         string         `json:"date"`
	Participants []shareRequest `json:"participants"`
}

type participantDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Share string `json:"share"`
	Paid  bool   `json:"paid"`
}

type splitDTO struct {
	ID           string           `json:"id"`
	Description  string           `json:"description"`
	Total        string           `json:"total"`
	Date         string           `json:"date"`
	Participants []participantDTO `json:"participants"`
}

func toSplit(s model.BillSplit) splitDTO {
	d := splitDTO{
		ID:           s.ID,
		Description:  s.Description,
		Total:        money.Format(s.Total),
		Date:         s.Date.Format(time.DateOnly),
		Participants: make([]participantDTO, 0, len(s.Participants)),
	}
	for _, p := range s.Participants {
		d.Participants = append(d.Participants, participantDTO{ID: p.ID, Name: p.Name, Share: money.Format(p.Share), Paid: p.Paid})
	}
	return d
}
