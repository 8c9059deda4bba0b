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

// InsertGoal persists a goal and its account links.
func (q *queries) InsertGoal(ctx context.Context, g *model.Goal) error {
	if g.ID == "" {
		g.ID = id.New()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, name, target_amount, target_date, is_completed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, money.Format(g.TargetAmount), nullDate(g.TargetDate),
		boolInt(g.IsCompleted), g.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	for _, accountID := range g.AccountIDs {
		if err := q.LinkGoalAccount(ctx, g.ID, accountID); err != nil {
			return err
		}
	}
	return nil
}

// GetGoal retrieves a goal with its linked account IDs.
func (q *queries) GetGoal(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, target_amount, target_date, is_completed, created_at
		 FROM goals WHERE id = ? AND user_id = ?`,
		goalID, userID,
	)
	g, err := scanGoal(row)
	if err != nil {
		return nil, notFoundOr(err, "storage.GetGoal", "goal", goalID)
	}

	if g.AccountIDs, err = q.goalAccountIDs(ctx, g.ID); err != nil {
		return nil, err
	}
	return g, nil
}

// UpdateGoal writes a goal's descriptive fields. Links are managed separately.
func (q *queries) UpdateGoal(ctx context.Context, g *model.Goal) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE goals SET name = ?, target_amount = ?, target_date = ?, is_completed = ?
		 WHERE id = ? AND user_id = ?`,
		g.Name, money.Format(g.TargetAmount), nullDate(g.TargetDate), boolInt(g.IsCompleted),
		g.ID, g.UserID,
	)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return mustAffect(res, "storage.UpdateGoal", "goal", g.ID)
}

// DeleteGoal removes a goal; its account links cascade.
func (q *queries) DeleteGoal(ctx context.Context, goalID string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, goalID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return mustAffect(res, "storage.DeleteGoal", "goal", goalID)
}

// ListGoals returns the user's goals, oldest first.
func (q *queries) ListGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, user_id, name, target_amount, target_date, is_completed, created_at
		 FROM goals WHERE user_id = ? ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	var goals []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}

	// Links are loaded after the goals cursor is closed; the store runs on a
	// single connection.
	for i := range goals {
		if goals[i].AccountIDs, err = q.goalAccountIDs(ctx, goals[i].ID); err != nil {
			return nil, err
		}
	}
	return goals, nil
}

// LinkGoalAccount links an account to a goal. Linking twice is a no-op.
func (q *queries) LinkGoalAccount(ctx context.Context, goalID, accountID string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO goal_accounts (goal_id, account_id) VALUES (?, ?)`,
		goalID, accountID,
	)
	if err != nil {
		return fmt.Errorf("link goal account: %w", err)
	}
	return nil
}

// UnlinkGoalAccount removes a link. Removing an absent link is a no-op.
func (q *queries) UnlinkGoalAccount(ctx context.Context, goalID, accountID string) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM goal_accounts WHERE goal_id = ? AND account_id = ?`,
		goalID, accountID,
	)
	if err != nil {
		return fmt.Errorf("unlink goal account: %w", err)
	}
	return nil
}

func (q *queries) goalAccountIDs(ctx context.Context, goalID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT account_id FROM goal_accounts WHERE goal_id = ? ORDER BY account_id`, goalID,
	)
	if err != nil {
		return nil, fmt.Errorf("get goal accounts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var accountID string
		if err := rows.Scan(&accountID); err != nil {
			return nil, fmt.Errorf("scan goal account: %w", err)
		}
		ids = append(ids, accountID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goal accounts: %w", err)
	}
	return ids, nil
}

func scanGoal(s scanner) (*model.Goal, error) {
	var (
		g          model.Goal
		targetDate sql.NullString
		completed  int
		createdAt  int64
	)
	if err := s.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &targetDate, &completed, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if g.TargetDate, err = parseNullDate(targetDate); err != nil {
		return nil, err
	}
	g.IsCompleted = completed == 1
	g.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &g, nil
}
