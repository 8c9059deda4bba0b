package accounts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCSVRoundTrip(t *testing.T) {
	accts := []model.Account{
		{ID: "a1", Name: "Checking", Kind: model.AccountKindChecking, Color: "#000", InitialBalance: dec("10"), Balance: dec("12.5"), IsActive: true, SortOrder: 0},
		{ID: "a2", Name: "Old Card, closed", Kind: model.AccountKindCredit, Balance: dec("-3.20"), IsActive: false, SortOrder: 4},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accts))
	assert.True(t, strings.HasPrefix(buf.String(), "account_id,name,"))
	assert.Contains(t, buf.String(), "12.50")

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range accts {
		assert.Equal(t, accts[i].ID, got[i].ID)
		assert.Equal(t, accts[i].Name, got[i].Name)
		assert.Equal(t, accts[i].Kind, got[i].Kind)
		assert.Equal(t, accts[i].Color, got[i].Color)
		assert.True(t, accts[i].InitialBalance.Equal(got[i].InitialBalance), "initial row %d", i)
		assert.True(t, accts[i].Balance.Equal(got[i].Balance), "balance row %d", i)
		assert.Equal(t, accts[i].IsActive, got[i].IsActive)
		assert.Equal(t, accts[i].SortOrder, got[i].SortOrder)
	}
}

func TestReadSeedFile(t *testing.T) {
	seed := "account_id,name,kind,color,initial_balance,balance,active,sort_order\n" +
		",Wallet,checking,,25.00,,,\n" +
		",Emergency Fund,savings,#0f0,1000,,false,\n"

	got, err := ReadAccounts(strings.NewReader(seed))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsActive, "blank active column defaults to active")
	assert.True(t, got[0].InitialBalance.Equal(dec("25")))
	assert.True(t, got[0].Balance.IsZero())
	assert.False(t, got[1].IsActive)

	params := SeedParams(got)
	assert.Equal(t, "Emergency Fund", params[1].Name)
	assert.True(t, params[1].Inactive)
}

func TestReadAccountsRejectsBadRows(t *testing.T) {
	header := strings.Join(Header, ",") + "\n"

	_, err := ReadAccounts(strings.NewReader(header + ",Brokerage,stocks,,,,,\n"))
	assert.Error(t, err)

	_, err = ReadAccounts(strings.NewReader(header + ",Wallet,checking,,1.234,,,\n"))
	assert.Error(t, err)

	_, err = ReadAccounts(strings.NewReader(header + ",Wallet,checking\n"))
	assert.Error(t, err)
}

func TestDefaultAccounts(t *testing.T) {
	defaults := DefaultAccounts()
	require.NotEmpty(t, defaults)

	kinds := make(map[model.AccountKind]bool)
	for _, p := range defaults {
		assert.NotEmpty(t, p.Name)
		assert.True(t, p.Kind.Valid(), "%s has kind %q", p.Name, p.Kind)
		kinds[p.Kind] = true
	}
	assert.Len(t, kinds, 3, "one starter account of every kind")
}
