// Package balance maintains cached account balances.
//
// A balance is InitialBalance plus the signed sum of the account's ledger
// entries. Incremental deltas keep the cache current; Recompute rebuilds it
// from the entries and is the ground truth whenever the two disagree.
package balance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tally-dev/tally/internal/apperr"
	"github.com/tally-dev/tally/internal/metrics"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
	"github.com/tally-dev/tally/internal/storage"
)

// recomputeWorkers bounds RecomputeAll fan-out.
const recomputeWorkers = 4

// Reconciler is the only writer of Account.Balance.
type Reconciler struct {
	store   storage.Store
	log     *slog.Logger
	metrics *metrics.Metrics
	locks   *lockTable
}

// NewReconciler creates a Reconciler. log and m may be nil.
func NewReconciler(store storage.Store, log *slog.Logger, m *metrics.Metrics) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{store: store, log: log, metrics: m, locks: newLockTable()}
}

// Drift compares a cached balance with the value recomputed from entries.
type Drift struct {
	AccountID string
	Cached    decimal.Decimal
	Computed  decimal.Decimal
}

// Drifted reports whether the cache disagrees with the entries.
func (d Drift) Drifted() bool {
	return !d.Cached.Equal(d.Computed)
}

// Err returns a Consistency error describing the drift, or nil.
func (d Drift) Err() error {
	if !d.Drifted() {
		return nil
	}
	return apperr.Consistency("balance.Check", "account %s: cached balance %s, entries say %s",
		d.AccountID, money.Format(d.Cached), money.Format(d.Computed))
}

// Summary holds one month of income and expense totals.
type Summary struct {
	Year     int
	Month    time.Month
	Expenses decimal.Decimal
	Income   decimal.Decimal
}

// Net is income minus expenses.
func (s Summary) Net() decimal.Decimal {
	return s.Income.Sub(s.Expenses)
}

// Compute sums initial plus every entry's signed contribution.
func Compute(initial decimal.Decimal, entries []model.LedgerEntry) decimal.Decimal {
	total := initial
	for _, e := range entries {
		total = total.Add(e.SignedAmount())
	}
	return total
}

// WithAccounts locks the given accounts in ascending id order, then runs fn
// inside a single storage transaction. Locks are released after the
// transaction commits or rolls back.
func (r *Reconciler) WithAccounts(ctx context.Context, accountIDs []string, fn func(q storage.Querier) error) error {
	release := r.locks.acquire(accountIDs)
	defer release()
	return r.store.WithTx(ctx, fn)
}

// ApplyDelta adds delta to the stored balance and returns the new balance.
// The caller must hold the account's lock through WithAccounts.
func (r *Reconciler) ApplyDelta(ctx context.Context, q storage.Querier, userID, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	acct, err := q.GetAccount(ctx, userID, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	next := acct.Balance.Add(delta)
	if err := q.SetAccountBalance(ctx, accountID, next); err != nil {
		return decimal.Zero, err
	}
	if r.metrics != nil {
		r.metrics.BalanceUpdates.Inc()
	}
	r.log.DebugContext(ctx, "balance updated",
		"account_id", accountID, "delta", money.Format(delta), "balance", money.Format(next))
	return next, nil
}

// Apply is ApplyDelta with its own lock and transaction.
func (r *Reconciler) Apply(ctx context.Context, userID, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var next decimal.Decimal
	err := r.WithAccounts(ctx, []string{accountID}, func(q storage.Querier) error {
		var err error
		next, err = r.ApplyDelta(ctx, q, userID, accountID, delta)
		return err
	})
	return next, err
}

// Recompute rebuilds an account's balance from its entries and stores it.
// Drift against the cached value is logged and the recomputed value wins.
// Calling it twice in a row leaves the balance unchanged.
func (r *Reconciler) Recompute(ctx context.Context, userID, accountID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.WithAccounts(ctx, []string{accountID}, func(q storage.Querier) error {
		var err error
		balance, err = r.RecomputeTx(ctx, q, userID, accountID)
		return err
	})
	return balance, err
}

// RecomputeTx is Recompute inside a caller's transaction. The caller must
// hold the account's lock.
func (r *Reconciler) RecomputeTx(ctx context.Context, q storage.Querier, userID, accountID string) (decimal.Decimal, error) {
	drift, err := r.drift(ctx, q, userID, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	if r.metrics != nil {
		r.metrics.Recomputes.Inc()
	}
	if drift.Drifted() {
		if r.metrics != nil {
			r.metrics.DriftDetected.Inc()
		}
		r.log.WarnContext(ctx, "balance drift repaired",
			"account_id", accountID,
			"cached", money.Format(drift.Cached),
			"computed", money.Format(drift.Computed),
			"err", drift.Err())
	}
	if err := q.SetAccountBalance(ctx, accountID, drift.Computed); err != nil {
		return decimal.Zero, err
	}
	return drift.Computed, nil
}

// Check reports drift on one account without writing anything.
func (r *Reconciler) Check(ctx context.Context, userID, accountID string) (Drift, error) {
	return r.drift(ctx, r.store, userID, accountID)
}

func (r *Reconciler) drift(ctx context.Context, q storage.Querier, userID, accountID string) (Drift, error) {
	acct, err := q.GetAccount(ctx, userID, accountID)
	if err != nil {
		return Drift{}, err
	}
	entries, err := q.ListEntriesByAccount(ctx, accountID)
	if err != nil {
		return Drift{}, err
	}
	return Drift{
		AccountID: accountID,
		Cached:    acct.Balance,
		Computed:  Compute(acct.InitialBalance, entries),
	}, nil
}

// RecomputeAll recomputes every account the user owns, inactive ones
// included, and returns what each one looked like before the repair.
func (r *Reconciler) RecomputeAll(ctx context.Context, userID string) ([]Drift, error) {
	accounts, err := r.store.ListAccounts(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	results := make([]Drift, len(accounts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(recomputeWorkers)
	for i, acct := range accounts {
		g.Go(func() error {
			before := acct.Balance
			after, err := r.Recompute(ctx, userID, acct.ID)
			if err != nil {
				return fmt.Errorf("recompute %s: %w", acct.ID, err)
			}
			results[i] = Drift{AccountID: acct.ID, Cached: before, Computed: after}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Reseed replaces an account's initial balance and recomputes. It is the
// only sanctioned way to change a balance without an entry.
func (r *Reconciler) Reseed(ctx context.Context, userID, accountID string, initial decimal.Decimal) (decimal.Decimal, error) {
	if !money.IsCents(initial) {
		return decimal.Zero, apperr.Validation("balance.Reseed", "initial balance %s has more than 2 decimal places", initial)
	}
	var balance decimal.Decimal
	err := r.WithAccounts(ctx, []string{accountID}, func(q storage.Querier) error {
		acct, err := q.GetAccount(ctx, userID, accountID)
		if err != nil {
			return err
		}
		acct.InitialBalance = initial
		if err := q.UpdateAccount(ctx, acct); err != nil {
			return err
		}
		balance, err = r.RecomputeTx(ctx, q, userID, accountID)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	r.log.InfoContext(ctx, "account reseeded",
		"account_id", accountID, "initial", money.Format(initial), "balance", money.Format(balance))
	return balance, nil
}

// TotalBalance sums the balances of the user's active accounts.
func (r *Reconciler) TotalBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	accounts, err := r.store.ListAccounts(ctx, userID, false)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total, nil
}

// MonthlySummary totals debits and credits dated in the given month on the
// user's active accounts. Transfers move money between the user's own
// accounts and count as neither.
func (r *Reconciler) MonthlySummary(ctx context.Context, userID string, year int, month time.Month) (Summary, error) {
	if month < time.January || month > time.December {
		return Summary{}, apperr.Validation("balance.MonthlySummary", "invalid month %d", month)
	}

	accounts, err := r.store.ListAccounts(ctx, userID, false)
	if err != nil {
		return Summary{}, err
	}
	active := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		active[a.ID] = true
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	entries, err := r.store.ListEntriesInRange(ctx, userID, from, to)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Year: year, Month: month, Expenses: decimal.Zero, Income: decimal.Zero}
	for _, e := range entries {
		if !active[e.AccountID] {
			continue
		}
		switch e.Type {
		case model.TypeDebit:
			s.Expenses = s.Expenses.Add(e.Amount)
		case model.TypeCredit:
			s.Income = s.Income.Add(e.Amount)
		}
	}
	return s, nil
}
