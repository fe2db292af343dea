package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/lunch-picker/lunch-picker/internal/domain/session"
)

// Guard performs optimistic writes to sessions: the version a session was
// read with travels with the write, and the repository accepts it only if
// nothing else was written in between. No lock is held between read and write.
type Guard struct {
	repo session.Repository
}

func New(repo session.Repository) *Guard {
	return &Guard{repo: repo}
}

// Write applies mutate to a copy of the loaded snapshot and persists it
// against the snapshot's version. A rejected compare-and-swap is reported as
// session.ErrStaleWrite; callers reload and retry if they want to.
func (g *Guard) Write(ctx context.Context, loaded *session.Session, mutate func(*session.Session) error) (*session.Session, error) {
	next := loaded.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	saved, err := g.repo.Save(ctx, next, loaded.Version)
	if err != nil {
		if errors.Is(err, session.ErrVersionConflict) {
			return nil, fmt.Errorf("%w: session %s changed since version %d", session.ErrStaleWrite, loaded.SessionID, loaded.Version)
		}
		return nil, err
	}
	return saved, nil
}
