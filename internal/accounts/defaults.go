package accounts

import (
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// DefaultAccounts returns the starter accounts created by `tally init`.
func DefaultAccounts() []CreateParams {
	return []CreateParams{
		{Name: "Checking", Kind: model.AccountKindChecking, Color: "#2563eb", InitialBalance: decimal.Zero},
		{Name: "Savings", Kind: model.AccountKindSavings, Color: "#16a34a", InitialBalance: decimal.Zero},
		{Name: "Credit Card", Kind: model.AccountKindCredit, Color: "#dc2626", InitialBalance: decimal.Zero},
	}
}

// SeedParams converts accounts read from a CSV seed file into CreateParams.
// IDs, balances and sort orders in the file are ignored; the store assigns
// them and the balance starts at the initial balance.
func SeedParams(accts []model.Account) []CreateParams {
	params := make([]CreateParams, len(accts))
	for i, a := range accts {
		params[i] = CreateParams{
			Name:           a.Name,
			Kind:           a.Kind,
			Color:          a.Color,
			InitialBalance: a.InitialBalance,
			Inactive:       !a.IsActive,
		}
	}
	return params
}
