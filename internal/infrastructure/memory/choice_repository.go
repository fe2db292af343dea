package memory

import (
	"context"

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
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	stored := r.db.choices[sessionID]
	out := make([]*session.Choice, 0, len(stored))
	for _, c := range stored {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *ChoiceRepository) ExistsCaseInsensitive(ctx context.Context, sessionID uuid.UUID, option string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.db.hasOption(sessionID, option), nil
}

func (r *ChoiceRepository) Append(ctx context.Context, c *session.Choice) (*session.Choice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sessions[c.SessionID]
	if !ok {
		return nil, session.ErrNotFound
	}
	if s.IsClosed() {
		return nil, session.ErrClosed
	}
	if r.db.hasOption(c.SessionID, c.Option) {
		return nil, session.ErrDuplicate
	}
	r.db.nextChoiceID++
	stored := *c
	stored.ID = r.db.nextChoiceID
	r.db.choices[c.SessionID] = append(r.db.choices[c.SessionID], &stored)
	s.Version++
	out := stored
	return &out, nil
}

// hasOption requires db.mu to be held.
func (db *DB) hasOption(sessionID uuid.UUID, option string) bool {
	key := session.OptionKey(option)
	for _, c := range db.choices[sessionID] {
		if session.OptionKey(c.Option) == key {
			return true
		}
	}
	return false
}
