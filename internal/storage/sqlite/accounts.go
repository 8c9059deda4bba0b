package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
)

const accountColumns = `id, user_id, name, kind, color, initial_balance, balance, is_active, sort_order, created_at`

// InsertAccount persists a new account, generating ID and CreatedAt if unset.
func (q *queries) InsertAccount(ctx context.Context, a *model.Account) error {
	if a.ID == "" {
		a.ID = id.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, string(a.Kind), a.Color,
		money.Format(a.InitialBalance), money.Format(a.Balance),
		boolInt(a.IsActive), a.SortOrder, a.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetAccount retrieves one of the user's accounts by ID.
func (q *queries) GetAccount(ctx context.Context, userID, accountID string) (*model.Account, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND user_id = ?`,
		accountID, userID,
	)
	a, err := scanAccount(row)
	if err != nil {
		return nil, notFoundOr(err, "storage.GetAccount", "account", accountID)
	}
	return a, nil
}

// UpdateAccount writes the descriptive fields of an account. Balances are
// only touched by SetAccountBalance.
func (q *queries) UpdateAccount(ctx context.Context, a *model.Account) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, kind = ?, color = ?, initial_balance = ?, is_active = ?, sort_order = ?
		 WHERE id = ? AND user_id = ?`,
		a.Name, string(a.Kind), a.Color, money.Format(a.InitialBalance), boolInt(a.IsActive), a.SortOrder,
		a.ID, a.UserID,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return mustAffect(res, "storage.UpdateAccount", "account", a.ID)
}

// SetAccountBalance overwrites the cached balance.
func (q *queries) SetAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET balance = ? WHERE id = ?`,
		money.Format(balance), accountID,
	)
	if err != nil {
		return fmt.Errorf("set account balance: %w", err)
	}
	return mustAffect(res, "storage.SetAccountBalance", "account", accountID)
}

// SetAccountSortOrder rewrites the display position of an account.
func (q *queries) SetAccountSortOrder(ctx context.Context, accountID string, sortOrder int) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET sort_order = ? WHERE id = ?`,
		sortOrder, accountID,
	)
	if err != nil {
		return fmt.Errorf("set account sort order: %w", err)
	}
	return mustAffect(res, "storage.SetAccountSortOrder", "account", accountID)
}

// DeleteAccount removes an account row. Foreign keys reject the delete if
// entries or goal links still reference it.
func (q *queries) DeleteAccount(ctx context.Context, accountID string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return mustAffect(res, "storage.DeleteAccount", "account", accountID)
}

// ListAccounts returns active accounts before inactive ones, each group by
// sort order.
func (q *queries) ListAccounts(ctx context.Context, userID string, includeInactive bool) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ?`
	if !includeInactive {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY is_active DESC, sort_order ASC, created_at ASC, id ASC`

	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

// MaxSortOrder returns the highest sort order in use, or -1 with no accounts.
func (q *queries) MaxSortOrder(ctx context.Context, userID string) (int, error) {
	var max int
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), -1) FROM accounts WHERE user_id = ?`, userID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max sort order: %w", err)
	}
	return max, nil
}

// CountAccountReferences counts ledger entries and goal links on an account.
func (q *queries) CountAccountReferences(ctx context.Context, accountID string) (int, int, error) {
	var entries, goals int
	err := q.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM entries WHERE account_id = ?),
			(SELECT COUNT(*) FROM goal_accounts WHERE account_id = ?)`,
		accountID, accountID,
	).Scan(&entries, &goals)
	if err != nil {
		return 0, 0, fmt.Errorf("count account references: %w", err)
	}
	return entries, goals, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*model.Account, error) {
	var (
		a         model.Account
		kind      string
		active    int
		createdAt int64
	)
	if err := s.Scan(&a.ID, &a.UserID, &a.Name, &kind, &a.Color,
		&a.InitialBalance, &a.Balance, &active, &a.SortOrder, &createdAt); err != nil {
		return nil, err
	}
	a.Kind = model.AccountKind(kind)
	a.IsActive = active == 1
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &a, nil
}
