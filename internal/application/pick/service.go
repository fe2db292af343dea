package pick

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lunch-picker/lunch-picker/internal/application/guard"
	"github.com/lunch-picker/lunch-picker/internal/domain/event"
	"github.com/lunch-picker/lunch-picker/internal/domain/session"
	"github.com/lunch-picker/lunch-picker/internal/domain/user"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/metrics"
)

// Random draws a uniform index in [0, n).
type Random interface {
	Intn(n int) int
}

// Service closes sessions by drawing one of their choices at random.
type Service struct {
	sessions  session.Repository
	choices   session.ChoiceRepository
	guard     *guard.Guard
	random    Random
	publisher event.Publisher
	logger    zerolog.Logger
}

// NewService creates a pick service.
func NewService(
	sessions session.Repository,
	choices session.ChoiceRepository,
	g *guard.Guard,
	random Random,
	publisher event.Publisher,
	logger zerolog.Logger,
) *Service {
	if publisher == nil {
		publisher = event.Nop{}
	}
	return &Service{
		sessions:  sessions,
		choices:   choices,
		guard:     g,
		random:    random,
		publisher: publisher,
		logger:    logger.With().Str("service", "pick").Logger(),
	}
}

// PickRandom closes the session with a uniformly drawn option and returns it.
//
// On a session that is already closed it returns the stored option without
// drawing, writing or checking the requester. Only the first submitter may
// close an open session. A lost race is reported as session.ErrStaleWrite and
// is not retried here; calling again converges on the persisted outcome.
func (s *Service) PickRandom(ctx context.Context, sessionID uuid.UUID, requestingUser string) (string, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", fmt.Errorf("%w: %s", session.ErrNotFound, sessionID)
	}
	if sess.IsClosed() {
		metrics.RecordPick(metrics.PickIdempotent)
		return sess.Chosen(), nil
	}

	choices, err := s.choices.ListBySession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	first, ok := session.FirstSubmitter(choices)
	if !ok {
		metrics.RecordPick(metrics.PickEmpty)
		return "", fmt.Errorf("%w: no choices submitted", session.ErrEmpty)
	}
	if user.NormalizeUsername(requestingUser) != first {
		metrics.RecordPick(metrics.PickForbidden)
		s.logger.Warn().
			Str("session_id", sessionID.String()).
			Str("user", requestingUser).
			Msg("pick rejected: not first submitter")
		return "", fmt.Errorf("%w: not first submitter", session.ErrForbidden)
	}

	drawn := choices[s.random.Intn(len(choices))].Option

	closed, err := s.guard.Write(ctx, sess, func(next *session.Session) error {
		return next.Close(drawn, time.Now().UTC())
	})
	if err != nil {
		if errors.Is(err, session.ErrStaleWrite) {
			metrics.RecordPick(metrics.PickStale)
			s.logger.Warn().Str("session_id", sessionID.String()).Msg("pick lost the race")
		}
		return "", err
	}

	metrics.RecordPick(metrics.PickClosed)
	s.logger.Info().
		Str("session_id", sessionID.String()).
		Str("chosen_option", closed.Chosen()).
		Int("choices", len(choices)).
		Msg("session closed")
	if msg, err := event.NewMessage(event.TypeSessionClosed, closed); err == nil {
		s.publisher.Publish(sessionID, msg)
	}
	return closed.Chosen(), nil
}
