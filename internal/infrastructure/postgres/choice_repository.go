package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunch-picker/lunch-picker/internal/domain/session"
)

// ChoiceRepository implements session.ChoiceRepository.
type ChoiceRepository struct {
	pool *pgxpool.Pool
}

func NewChoiceRepository(pool *pgxpool.Pool) *ChoiceRepository {
	return &ChoiceRepository{pool: pool}
}

func (r *ChoiceRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*session.Choice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, option, submitted_by, submitted_at
		FROM choices WHERE session_id=$1 ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*session.Choice, 0)
	for rows.Next() {
		var c session.Choice
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Option, &c.SubmittedBy, &c.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *ChoiceRepository) ExistsCaseInsensitive(ctx context.Context, sessionID uuid.UUID, option string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM choices WHERE session_id=$1 AND option_key=$2)
	`, sessionID, session.OptionKey(option)).Scan(&exists)
	return exists, err
}

// Append bumps the session version and inserts the choice in one transaction.
// The version bump only matches OPEN sessions, so a concurrent close and an
// append serialize on the session row.
func (r *ChoiceRepository) Append(ctx context.Context, c *session.Choice) (*session.Choice, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := tx.Exec(ctx, `
		UPDATE sessions SET version=version+1 WHERE session_id=$1 AND status=$2
	`, c.SessionID, string(session.StatusOpen))
	if err != nil {
		return nil, err
	}
	if res.RowsAffected() == 0 {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM sessions WHERE session_id=$1`, c.SessionID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, session.ErrClosed
	}

	stored := *c
	err = tx.QueryRow(ctx, `
		INSERT INTO choices (session_id, option, option_key, submitted_by, submitted_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, c.SessionID, c.Option, session.OptionKey(c.Option), c.SubmittedBy, c.SubmittedAt).Scan(&stored.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, session.ErrDuplicate
		}
		return nil, fmt.Errorf("insert choice: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &stored, nil
}
