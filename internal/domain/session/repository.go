package session

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/lunch-picker/lunch-picker/internal/domain/session Repository,ChoiceRepository

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for sessions.
//
// Get returns (nil, nil) when no session has the id.
// Save must apply s only if the stored version equals expectedVersion, storing
// expectedVersion+1 on success and returning ErrVersionConflict otherwise.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	Save(ctx context.Context, s *Session, expectedVersion int64) (*Session, error)
}

// ChoiceRepository defines persistence for choices.
//
// Append assigns the next choice id and bumps the owning session's version in
// the same atomic step. It fails with ErrNotFound, ErrClosed or ErrDuplicate
// when the session is missing, closed, or already holds the option.
type ChoiceRepository interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*Choice, error)
	ExistsCaseInsensitive(ctx context.Context, sessionID uuid.UUID, option string) (bool, error)
	Append(ctx context.Context, c *Choice) (*Choice, error)
}
