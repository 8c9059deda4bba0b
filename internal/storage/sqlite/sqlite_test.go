package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/apperr"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestAccountRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	acct := &model.Account{
		UserID:         "u1",
		Name:           "Checking",
		Kind:           model.AccountKindChecking,
		InitialBalance: dec("100.50"),
		Balance:        dec("100.50"),
		IsActive:       true,
	}
	require.NoError(t, store.InsertAccount(ctx, acct))
	assert.NotEmpty(t, acct.ID)
	assert.False(t, acct.CreatedAt.IsZero())

	got, err := store.GetAccount(ctx, "u1", acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "Checking", got.Name)
	assert.Equal(t, model.AccountKindChecking, got.Kind)
	assert.True(t, got.Balance.Equal(dec("100.50")), "balance: got %s", got.Balance)
	assert.True(t, got.IsActive)

	_, err = store.GetAccount(ctx, "someone-else", acct.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, store.SetAccountBalance(ctx, acct.ID, dec("-3.10")))
	got, err = store.GetAccount(ctx, "u1", acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("-3.10")))
}

func TestListAccountsOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, tc := range []struct {
		name   string
		active bool
		order  int
	}{
		{"Old Card", false, 0},
		{"Savings", true, 2},
		{"Checking", true, 1},
	} {
		require.NoError(t, store.InsertAccount(ctx, &model.Account{
			UserID: "u1", Name: tc.name, Kind: model.AccountKindChecking,
			IsActive: tc.active, SortOrder: tc.order,
			CreatedAt: date(2024, 1, i+1),
		}))
	}

	all, err := store.ListAccounts(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Checking", all[0].Name)
	assert.Equal(t, "Savings", all[1].Name)
	assert.Equal(t, "Old Card", all[2].Name)

	active, err := store.ListAccounts(ctx, "u1", false)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	max, err := store.MaxSortOrder(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, max)

	max, err = store.MaxSortOrder(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, -1, max)
}

func TestEntryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	acct := &model.Account{UserID: "u1", Name: "Checking", Kind: model.AccountKindChecking, IsActive: true}
	require.NoError(t, store.InsertAccount(ctx, acct))

	entry := &model.LedgerEntry{
		UserID:             "u1",
		Description:        "Rent",
		Amount:             dec("1200.00"),
		Date:               date(2024, 3, 1),
		CategoryID:         "housing",
		AccountID:          acct.ID,
		Type:               model.TypeDebit,
		IsRecurring:        true,
		RecurringType:      model.RecurringAdvanced,
		RecurringFrequency: model.Monthly,
		RecurringInterval:  1,
		RecurringEndDate:   date(2024, 12, 1),
		ParentID:           "series-1",
	}
	require.NoError(t, store.InsertEntry(ctx, entry))

	got, err := store.GetEntry(ctx, "u1", entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rent", got.Description)
	assert.True(t, got.Amount.Equal(dec("1200")))
	assert.True(t, got.Date.Equal(date(2024, 3, 1)))
	assert.Equal(t, model.TypeDebit, got.Type)
	assert.Equal(t, model.RecurringAdvanced, got.RecurringType)
	assert.Equal(t, model.Monthly, got.RecurringFrequency)
	assert.True(t, got.RecurringEndDate.Equal(date(2024, 12, 1)))
	assert.Equal(t, "series-1", got.ParentID)
	assert.Empty(t, got.TransferID)

	byParent, err := store.ListEntriesByParent(ctx, "u1", "series-1")
	require.NoError(t, err)
	assert.Len(t, byParent, 1)

	inRange, err := store.ListEntriesInRange(ctx, "u1", date(2024, 3, 1), date(2024, 3, 31))
	require.NoError(t, err)
	assert.Len(t, inRange, 1)

	outOfRange, err := store.ListEntriesInRange(ctx, "u1", date(2024, 4, 1), date(2024, 4, 30))
	require.NoError(t, err)
	assert.Empty(t, outOfRange)

	entries, goals, err := store.CountAccountReferences(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, entries)
	assert.Equal(t, 0, goals)

	require.NoError(t, store.DeleteEntry(ctx, entry.ID))
	assert.ErrorIs(t, store.DeleteEntry(ctx, entry.ID), apperr.ErrNotFound)
}

func TestDeleteAccountWithEntriesIsRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	acct := &model.Account{UserID: "u1", Name: "Checking", Kind: model.AccountKindChecking, IsActive: true}
	require.NoError(t, store.InsertAccount(ctx, acct))
	require.NoError(t, store.InsertEntry(ctx, &model.LedgerEntry{
		UserID: "u1", Description: "Coffee", Amount: dec("3.50"), Date: date(2024, 1, 2),
		AccountID: acct.ID, Type: model.TypeDebit,
	}))

	// Foreign key enforcement is the storage-level backstop.
	assert.Error(t, store.DeleteAccount(ctx, acct.ID))
}

func TestWithTxRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	acct := &model.Account{UserID: "u1", Name: "Checking", Kind: model.AccountKindChecking, IsActive: true}
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(q storage.Querier) error {
		if err := q.InsertAccount(ctx, acct); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.GetAccount(ctx, "u1", acct.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "rolled-back insert must not be visible")
}

func TestGoalLinks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a1 := &model.Account{UserID: "u1", Name: "Savings", Kind: model.AccountKindSavings, IsActive: true}
	a2 := &model.Account{UserID: "u1", Name: "Checking", Kind: model.AccountKindChecking, IsActive: true}
	require.NoError(t, store.InsertAccount(ctx, a1))
	require.NoError(t, store.InsertAccount(ctx, a2))

	goal := &model.Goal{UserID: "u1", Name: "Trip", TargetAmount: dec("1000"), AccountIDs: []string{a1.ID}}
	require.NoError(t, store.InsertGoal(ctx, goal))

	require.NoError(t, store.LinkGoalAccount(ctx, goal.ID, a2.ID))
	require.NoError(t, store.LinkGoalAccount(ctx, goal.ID, a2.ID), "linking twice is a no-op")

	got, err := store.GetGoal(ctx, "u1", goal.ID)
	require.NoError(t, err)
	assert.Len(t, got.AccountIDs, 2)
	assert.True(t, got.TargetAmount.Equal(dec("1000")))
	assert.True(t, got.TargetDate.IsZero())

	require.NoError(t, store.UnlinkGoalAccount(ctx, goal.ID, a1.ID))
	require.NoError(t, store.UnlinkGoalAccount(ctx, goal.ID, a1.ID))

	goals, err := store.ListGoals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, []string{a2.ID}, goals[0].AccountIDs)

	_, linked, err := store.CountAccountReferences(ctx, a2.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, linked)
}

func TestSplitRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	split := &model.BillSplit{
		UserID:      "u1",
		Description: "Groceries",
		Total:       dec("90.00"),
		Date:        date(2024, 5, 4),
		Participants: []model.Participant{
			{Name: "Alice", Share: dec("30.00")},
			{Name: "Bob", Share: dec("30.00")},
			{Name: "Carol", Share: dec("30.00")},
		},
	}
	require.NoError(t, store.InsertSplit(ctx, split))

	got, err := store.GetSplit(ctx, "u1", split.ID)
	require.NoError(t, err)
	require.Len(t, got.Participants, 3)
	assert.Equal(t, "Alice", got.Participants[0].Name)
	assert.False(t, got.Participants[0].Paid)

	require.NoError(t, store.SetParticipantPaid(ctx, split.ID, got.Participants[1].ID, true))
	got, err = store.GetSplit(ctx, "u1", split.ID)
	require.NoError(t, err)
	assert.True(t, got.Participants[1].Paid)

	assert.ErrorIs(t, store.SetParticipantPaid(ctx, split.ID, "missing", true), apperr.ErrNotFound)

	all, err := store.ListSplits(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
