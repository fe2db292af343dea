package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lunch-picker/lunch-picker/internal/domain/session"
)

// SessionRepository implements session.Repository.
type SessionRepository struct {
	store *Store
}

func NewSessionRepository(store *Store) *SessionRepository {
	return &SessionRepository{store: store}
}

func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	ok, err := r.store.client.SetNX(ctx, sessionKey(s.SessionID), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if !ok {
		return fmt.Errorf("session %s already exists", s.SessionID)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID uuid.UUID) (*session.Session, error) {
	return getSession(ctx, r.store.client, sessionID)
}

// Save commits only if the session key is untouched between the version
// check and EXEC.
func (r *SessionRepository) Save(ctx context.Context, s *session.Session, expectedVersion int64) (*session.Session, error) {
	key := sessionKey(s.SessionID)
	saved := s.Clone()
	saved.Version = expectedVersion + 1

	err := r.store.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := getSession(ctx, tx, s.SessionID)
		if err != nil {
			return err
		}
		if current == nil {
			return session.ErrNotFound
		}
		if current.Version != expectedVersion {
			return session.ErrVersionConflict
		}
		raw, err := json.Marshal(saved)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return nil, session.ErrVersionConflict
	}
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// stringGetter is satisfied by both *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getSession(ctx context.Context, c stringGetter, sessionID uuid.UUID) (*session.Session, error) {
	raw, err := c.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	s, err := unmarshal[session.Session](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return s, nil
}
