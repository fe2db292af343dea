package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunch-picker/lunch-picker/internal/domain/session"
)

// SessionRepository implements session.Repository.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions
		(session_id, created_by, status, chosen_option, created_at, closed_at, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, s.SessionID, s.CreatedBy, string(s.Status), s.ChosenOption, s.CreatedAt, s.ClosedAt, s.Version)
	return err
}

func (r *SessionRepository) Get(ctx context.Context, sessionID uuid.UUID) (*session.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT session_id, created_by, status, chosen_option, created_at, closed_at, version
		FROM sessions WHERE session_id=$1
	`, sessionID)
	return scanSession(row)
}

// Save is a single conditional UPDATE; the row lock it takes is released at
// statement end.
func (r *SessionRepository) Save(ctx context.Context, s *session.Session, expectedVersion int64) (*session.Session, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET status=$1, chosen_option=$2, closed_at=$3, version=$4
		WHERE session_id=$5 AND version=$6
	`, string(s.Status), s.ChosenOption, s.ClosedAt, expectedVersion+1, s.SessionID, expectedVersion)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE session_id=$1)`, s.SessionID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, session.ErrNotFound
		}
		return nil, session.ErrVersionConflict
	}
	saved := s.Clone()
	saved.Version = expectedVersion + 1
	return saved, nil
}

func scanSession(row pgx.Row) (*session.Session, error) {
	var s session.Session
	var status string
	if err := row.Scan(&s.SessionID, &s.CreatedBy, &status, &s.ChosenOption, &s.CreatedAt, &s.ClosedAt, &s.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Status = session.Status(status)
	return &s, nil
}
