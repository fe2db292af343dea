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

// ChoiceRepository implements session.ChoiceRepository. Choices live in a
// list per session; a hash of option keys enforces uniqueness.
type ChoiceRepository struct {
	store *Store
}

func NewChoiceRepository(store *Store) *ChoiceRepository {
	return &ChoiceRepository{store: store}
}

func (r *ChoiceRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*session.Choice, error) {
	raws, err := r.store.client.LRange(ctx, choicesKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list choices: %w", err)
	}
	out := make([]*session.Choice, 0, len(raws))
	for _, raw := range raws {
		c, err := unmarshal[session.Choice](raw)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal choice: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *ChoiceRepository) ExistsCaseInsensitive(ctx context.Context, sessionID uuid.UUID, option string) (bool, error) {
	return r.store.client.HExists(ctx, optionsKey(sessionID), session.OptionKey(option)).Result()
}

// Append watches the session key, so a concurrent close, append or pick on the
// same session forces a re-check. Choice ids come from a global counter; ids
// burnt by a lost race leave gaps but never reorder the list.
func (r *ChoiceRepository) Append(ctx context.Context, c *session.Choice) (*session.Choice, error) {
	for i := 0; i < appendRetries; i++ {
		stored, err := r.tryAppend(ctx, c)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return stored, err
	}
	return nil, fmt.Errorf("append choice: %w", session.ErrStaleWrite)
}

func (r *ChoiceRepository) tryAppend(ctx context.Context, c *session.Choice) (*session.Choice, error) {
	key := sessionKey(c.SessionID)
	optKey := session.OptionKey(c.Option)
	var stored *session.Choice

	err := r.store.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := getSession(ctx, tx, c.SessionID)
		if err != nil {
			return err
		}
		if current == nil {
			return session.ErrNotFound
		}
		if current.IsClosed() {
			return session.ErrClosed
		}
		dup, err := tx.HExists(ctx, optionsKey(c.SessionID), optKey).Result()
		if err != nil {
			return err
		}
		if dup {
			return session.ErrDuplicate
		}

		id, err := tx.Incr(ctx, choiceSeqKey).Result()
		if err != nil {
			return err
		}
		next := *c
		next.ID = id
		choiceRaw, err := json.Marshal(&next)
		if err != nil {
			return err
		}
		current.Version++
		sessionRaw, err := json.Marshal(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, sessionRaw, 0)
			pipe.RPush(ctx, choicesKey(c.SessionID), choiceRaw)
			pipe.HSet(ctx, optionsKey(c.SessionID), optKey, id)
			return nil
		})
		if err != nil {
			return err
		}
		stored = &next
		return nil
	}, key)
	if err != nil {
		return nil, err
	}
	return stored, nil
}
