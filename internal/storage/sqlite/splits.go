package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
)

// InsertSplit persists a bill split and its participants.
func (q *queries) InsertSplit(ctx context.Context, s *model.BillSplit) error {
	if s.ID == "" {
		s.ID = id.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO bill_splits (id, user_id, description, total, date, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Description, money.Format(s.Total), formatDate(s.Date), s.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert bill split: %w", err)
	}

	for i := range s.Participants {
		p := &s.Participants[i]
		if p.ID == "" {
			p.ID = id.New()
		}
		p.SplitID = s.ID
		_, err = q.db.ExecContext(ctx,
			`INSERT INTO split_participants (id, split_id, name, share, paid, position) VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, s.ID, p.Name, money.Format(p.Share), boolInt(p.Paid), i,
		)
		if err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	return nil
}

// GetSplit retrieves a bill split with its participants in entry order.
func (q *queries) GetSplit(ctx context.Context, userID, splitID string) (*model.BillSplit, error) {
	var (
		s         model.BillSplit
		date      string
		createdAt int64
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, description, total, date, created_at FROM bill_splits WHERE id = ? AND user_id = ?`,
		splitID, userID,
	).Scan(&s.ID, &s.UserID, &s.Description, &s.Total, &date, &createdAt)
	if err != nil {
		return nil, notFoundOr(err, "storage.GetSplit", "bill split", splitID)
	}
	if s.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	s.CreatedAt = time.Unix(createdAt, 0).UTC()

	if s.Participants, err = q.participants(ctx, s.ID); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSplits returns the user's bill splits, newest first.
func (q *queries) ListSplits(ctx context.Context, userID string) ([]model.BillSplit, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id FROM bill_splits WHERE user_id = ? ORDER BY date DESC, created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bill splits: %w", err)
	}
	var ids []string
	for rows.Next() {
		var splitID string
		if err := rows.Scan(&splitID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan bill split: %w", err)
		}
		ids = append(ids, splitID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bill splits: %w", err)
	}

	splits := make([]model.BillSplit, 0, len(ids))
	for _, splitID := range ids {
		s, err := q.GetSplit(ctx, userID, splitID)
		if err != nil {
			return nil, err
		}
		splits = append(splits, *s)
	}
	return splits, nil
}

// SetParticipantPaid flips a participant's paid flag.
func (q *queries) SetParticipantPaid(ctx context.Context, splitID, participantID string, paid bool) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE split_participants SET paid = ? WHERE id = ? AND split_id = ?`,
		boolInt(paid), participantID, splitID,
	)
	if err != nil {
		return fmt.Errorf("set participant paid: %w", err)
	}
	return mustAffect(res, "storage.SetParticipantPaid", "participant", participantID)
}

func (q *queries) participants(ctx context.Context, splitID string) ([]model.Participant, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, split_id, name, share, paid FROM split_participants WHERE split_id = ? ORDER BY position`,
		splitID,
	)
	if err != nil {
		return nil, fmt.Errorf("get participants: %w", err)
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		var (
			p    model.Participant
			paid int
		)
		if err := rows.Scan(&p.ID, &p.SplitID, &p.Name, &p.Share, &paid); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.Paid = paid == 1
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return participants, nil
}
