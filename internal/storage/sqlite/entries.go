package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
)

const entryColumns = `id, user_id, description, amount, date, category_id, account_id, transaction_type,
	transfer_id, is_recurring, recurring_type, recurring_frequency, recurring_interval,
	installment_total, installment_current, recurring_end_date, parent_id, created_at`

// InsertEntry persists a ledger entry, generating ID and CreatedAt if unset.
func (q *queries) InsertEntry(ctx context.Context, e *model.LedgerEntry) error {
	if e.ID == "" {
		e.ID = id.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.RecurringType == "" {
		e.RecurringType = model.RecurringNone
	}

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Description, money.Format(e.Amount), formatDate(e.Date), e.CategoryID, e.AccountID,
		string(e.Type), nullString(e.TransferID), boolInt(e.IsRecurring), string(e.RecurringType),
		string(e.RecurringFrequency), e.RecurringInterval, e.InstallmentTotal, e.InstallmentCurrent,
		nullDate(e.RecurringEndDate), nullString(e.ParentID), e.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// GetEntry retrieves one of the user's entries by ID.
func (q *queries) GetEntry(ctx context.Context, userID, entryID string) (*model.LedgerEntry, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ? AND user_id = ?`,
		entryID, userID,
	)
	e, err := scanEntry(row)
	if err != nil {
		return nil, notFoundOr(err, "storage.GetEntry", "entry", entryID)
	}
	return e, nil
}

// UpdateEntry rewrites every mutable column of an entry.
func (q *queries) UpdateEntry(ctx context.Context, e *model.LedgerEntry) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE entries SET description = ?, amount = ?, date = ?, category_id = ?, account_id = ?,
			transaction_type = ?, is_recurring = ?, recurring_type = ?, recurring_frequency = ?,
			recurring_interval = ?, installment_total = ?, installment_current = ?,
			recurring_end_date = ?, parent_id = ?
		 WHERE id = ? AND user_id = ?`,
		e.Description, money.Format(e.Amount), formatDate(e.Date), e.CategoryID, e.AccountID,
		string(e.Type), boolInt(e.IsRecurring), string(e.RecurringType), string(e.RecurringFrequency),
		e.RecurringInterval, e.InstallmentTotal, e.InstallmentCurrent,
		nullDate(e.RecurringEndDate), nullString(e.ParentID),
		e.ID, e.UserID,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return mustAffect(res, "storage.UpdateEntry", "entry", e.ID)
}

// DeleteEntry removes an entry by ID.
func (q *queries) DeleteEntry(ctx context.Context, entryID string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, entryID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return mustAffect(res, "storage.DeleteEntry", "entry", entryID)
}

// ListEntriesByAccount returns every entry on an account in date order.
func (q *queries) ListEntriesByAccount(ctx context.Context, accountID string) ([]model.LedgerEntry, error) {
	return q.listEntries(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE account_id = ? ORDER BY date ASC, created_at ASC, id ASC`,
		accountID,
	)
}

// ListEntriesByTransfer returns both halves of a transfer (or whatever is left of them).
func (q *queries) ListEntriesByTransfer(ctx context.Context, userID, transferID string) ([]model.LedgerEntry, error) {
	return q.listEntries(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE transfer_id = ? AND user_id = ? ORDER BY transaction_type DESC`,
		transferID, userID,
	)
}

// ListEntriesByParent returns every entry generated for a recurring series.
func (q *queries) ListEntriesByParent(ctx context.Context, userID, parentID string) ([]model.LedgerEntry, error) {
	return q.listEntries(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE parent_id = ? AND user_id = ? ORDER BY date ASC, installment_current ASC`,
		parentID, userID,
	)
}

// ListEntriesInRange returns the user's entries dated within [from, to].
func (q *queries) ListEntriesInRange(ctx context.Context, userID string, from, to time.Time) ([]model.LedgerEntry, error) {
	return q.listEntries(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date ASC, id ASC`,
		userID, formatDate(from), formatDate(to),
	)
}

func (q *queries) listEntries(ctx context.Context, query string, args ...any) ([]model.LedgerEntry, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func scanEntry(s scanner) (*model.LedgerEntry, error) {
	var (
		e          model.LedgerEntry
		date       string
		typ        string
		transferID sql.NullString
		recurring  int
		recType    string
		freq       string
		endDate    sql.NullString
		parentID   sql.NullString
		createdAt  int64
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Description, &e.Amount, &date, &e.CategoryID, &e.AccountID, &typ,
		&transferID, &recurring, &recType, &freq, &e.RecurringInterval,
		&e.InstallmentTotal, &e.InstallmentCurrent, &endDate, &parentID, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if e.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	if e.RecurringEndDate, err = parseNullDate(endDate); err != nil {
		return nil, err
	}
	e.Type = model.TransactionType(typ)
	e.TransferID = transferID.String
	e.IsRecurring = recurring == 1
	e.RecurringType = model.RecurringType(recType)
	e.RecurringFrequency = model.Frequency(freq)
	e.ParentID = parentID.String
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &e, nil
}
