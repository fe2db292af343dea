package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domain "github.com/lunch-picker/lunch-picker/internal/domain/session"
	"github.com/lunch-picker/lunch-picker/internal/domain/user"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/metrics"
)

// Service opens sessions and serves read-only views of them.
type Service struct {
	repo    domain.Repository
	choices domain.ChoiceRepository
	users   user.Directory
	logger  zerolog.Logger
}

// NewService creates a session service.
func NewService(repo domain.Repository, choices domain.ChoiceRepository, users user.Directory, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		choices: choices,
		users:   users,
		logger:  logger.With().Str("service", "session").Logger(),
	}
}

// Detail is a session together with its choices in submission order.
type Detail struct {
	*domain.Session
	Choices []*domain.Choice `json:"choices"`
}

// CreateSession opens a session on behalf of a user known to the directory.
func (s *Service) CreateSession(ctx context.Context, username string) (*domain.Session, error) {
	username = user.NormalizeUsername(username)
	if username == "" {
		return nil, fmt.Errorf("%w: user is required to create a session", domain.ErrForbidden)
	}
	ok, err := s.users.Exists(ctx, username)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn().Str("user", username).Msg("session creation rejected: unknown user")
		return nil, fmt.Errorf("%w: user %q is not authorized to create sessions", domain.ErrForbidden, username)
	}

	sess := domain.New(username, time.Now().UTC())
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	metrics.RecordSessionCreated()
	s.logger.Info().Str("session_id", sess.SessionID.String()).Str("user", username).Msg("session created")
	return sess, nil
}

// snapshotAttempts bounds how often GetSession re-reads a session that keeps
// changing underneath it.
const snapshotAttempts = 5

// GetSession returns the session and its ordered choices. The session is
// re-read after listing the choices; every append bumps the version, so an
// unchanged version means the pair is a consistent snapshot.
func (s *Service) GetSession(ctx context.Context, sessionID uuid.UUID) (*Detail, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for attempt := 0; attempt < snapshotAttempts; attempt++ {
		choices, err := s.choices.ListBySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		again, err := s.load(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if again.Version == sess.Version {
			if choices == nil {
				choices = []*domain.Choice{}
			}
			return &Detail{Session: again, Choices: choices}, nil
		}
		sess = again
	}
	s.logger.Warn().Str("session_id", sessionID.String()).Msg("no stable snapshot of session")
	return nil, fmt.Errorf("%w: session %s kept changing while being read", domain.ErrStaleWrite, sessionID)
}

func (s *Service) load(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, sessionID)
	}
	return sess, nil
}
