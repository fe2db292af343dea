package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/lunch-picker/lunch-picker/internal/domain/session"
)

// ChoiceRepository implements session.ChoiceRepository.
type ChoiceRepository struct {
	db *DB
}

func NewChoiceRepository(db *DB) *ChoiceRepository {
	return &ChoiceRepository{db: db}
}

func (r *ChoiceRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*session.Choice, error) {
	rows, err := r.db.db.QueryContext(ctx,
		`SELECT id, option, submitted_by, submitted_at FROM choices
		 WHERE session_id = ? ORDER BY id ASC`, sessionID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*session.Choice, 0)
	for rows.Next() {
		c := session.Choice{SessionID: sessionID}
		var submitted int64
		if err := rows.Scan(&c.ID, &c.Option, &c.SubmittedBy, &submitted); err != nil {
			return nil, err
		}
		c.SubmittedAt = fromNanos(submitted)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *ChoiceRepository) ExistsCaseInsensitive(ctx context.Context, sessionID uuid.UUID, option string) (bool, error) {
	var exists bool
	err := r.db.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM choices WHERE session_id = ? AND option_key = ?)`,
		sessionID.String(), session.OptionKey(option)).Scan(&exists)
	return exists, err
}

func (r *ChoiceRepository) Append(ctx context.Context, c *session.Choice) (*session.Choice, error) {
	tx, err := r.db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET version = version + 1 WHERE session_id = ? AND status = ?`,
		c.SessionID.String(), string(session.StatusOpen))
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM sessions WHERE session_id = ?`, c.SessionID.String()).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, session.ErrClosed
	}

	res, err = tx.ExecContext(ctx,
		`INSERT INTO choices (session_id, option, option_key, submitted_by, submitted_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.SessionID.String(), c.Option, session.OptionKey(c.Option), c.SubmittedBy, toNanos(c.SubmittedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, session.ErrDuplicate
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	stored := *c
	stored.ID = id
	return &stored, nil
}
