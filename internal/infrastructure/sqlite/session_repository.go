package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/lunch-picker/lunch-picker/internal/domain/session"
)

// SessionRepository implements session.Repository.
type SessionRepository struct {
	db *DB
}

func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	_, err := r.db.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, created_by, status, chosen_option, created_at, closed_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.SessionID.String(), s.CreatedBy, string(s.Status), nullString(s.ChosenOption),
		toNanos(s.CreatedAt), toNullNanos(s.ClosedAt), s.Version)
	return err
}

func (r *SessionRepository) Get(ctx context.Context, sessionID uuid.UUID) (*session.Session, error) {
	var (
		s        session.Session
		id       string
		status   string
		chosen   sql.NullString
		created  int64
		closedAt sql.NullInt64
	)
	err := r.db.db.QueryRowContext(ctx,
		`SELECT session_id, created_by, status, chosen_option, created_at, closed_at, version
		 FROM sessions WHERE session_id = ?`, sessionID.String()).
		Scan(&id, &s.CreatedBy, &status, &chosen, &created, &closedAt, &s.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.SessionID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	s.Status = session.Status(status)
	if chosen.Valid {
		v := chosen.String
		s.ChosenOption = &v
	}
	s.CreatedAt = fromNanos(created)
	s.ClosedAt = fromNullNanos(closedAt)
	return &s, nil
}

func (r *SessionRepository) Save(ctx context.Context, s *session.Session, expectedVersion int64) (*session.Session, error) {
	res, err := r.db.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, chosen_option = ?, closed_at = ?, version = ?
		 WHERE session_id = ? AND version = ?`,
		string(s.Status), nullString(s.ChosenOption), toNullNanos(s.ClosedAt), expectedVersion+1,
		s.SessionID.String(), expectedVersion)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		current, err := r.Get(ctx, s.SessionID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, session.ErrNotFound
		}
		return nil, session.ErrVersionConflict
	}
	saved := s.Clone()
	saved.Version = expectedVersion + 1
	return saved, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
