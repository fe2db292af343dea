package memory

import (
	"context"
	"fmt"

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
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.sessions[s.SessionID]; ok {
		return fmt.Errorf("session %s already exists", s.SessionID)
	}
	r.db.sessions[s.SessionID] = s.Clone()
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID uuid.UUID) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	s, ok := r.db.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (r *SessionRepository) Save(ctx context.Context, s *session.Session, expectedVersion int64) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	current, ok := r.db.sessions[s.SessionID]
	if !ok {
		return nil, session.ErrNotFound
	}
	if current.Version != expectedVersion {
		return nil, session.ErrVersionConflict
	}
	stored := s.Clone()
	stored.Version = expectedVersion + 1
	r.db.sessions[s.SessionID] = stored
	return stored.Clone(), nil
}
