package choice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lunch-picker/lunch-picker/internal/domain/event"
	"github.com/lunch-picker/lunch-picker/internal/domain/session"
	"github.com/lunch-picker/lunch-picker/internal/domain/user"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/metrics"
)

// Service accepts candidate options into open sessions.
type Service struct {
	sessions  session.Repository
	choices   session.ChoiceRepository
	publisher event.Publisher
	logger    zerolog.Logger
}

// NewService creates a choice service.
func NewService(sessions session.Repository, choices session.ChoiceRepository, publisher event.Publisher, logger zerolog.Logger) *Service {
	if publisher == nil {
		publisher = event.Nop{}
	}
	return &Service{
		sessions:  sessions,
		choices:   choices,
		publisher: publisher,
		logger:    logger.With().Str("service", "choice").Logger(),
	}
}

// SubmitInput submits one option to a session.
type SubmitInput struct {
	SessionID   uuid.UUID
	Option      string
	SubmittedBy string
}

// Submit appends an option. Any non-blank identity may submit; it need not be
// a known user.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*session.Choice, error) {
	sess, err := s.sessions.Get(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, in.SessionID)
	}
	if sess.IsClosed() {
		metrics.RecordChoiceRejected(metrics.RejectClosed)
		return nil, fmt.Errorf("%w: no further submissions allowed", session.ErrClosed)
	}

	option := session.NormalizeOption(in.Option)
	if option == "" {
		metrics.RecordChoiceRejected(metrics.RejectBlank)
		return nil, fmt.Errorf("%w: option must not be blank", session.ErrValidation)
	}
	submittedBy := user.NormalizeUsername(in.SubmittedBy)
	if submittedBy == "" {
		return nil, fmt.Errorf("%w: submitter must not be blank", session.ErrValidation)
	}

	exists, err := s.choices.ExistsCaseInsensitive(ctx, in.SessionID, option)
	if err != nil {
		return nil, err
	}
	if exists {
		metrics.RecordChoiceRejected(metrics.RejectDuplicate)
		return nil, fmt.Errorf("%w: %q has already been submitted", session.ErrDuplicate, option)
	}

	// The repository re-checks status and uniqueness atomically; a concurrent
	// close or duplicate that slipped past the checks above surfaces here.
	c, err := s.choices.Append(ctx, &session.Choice{
		SessionID:   in.SessionID,
		Option:      option,
		SubmittedBy: submittedBy,
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrDuplicate):
			metrics.RecordChoiceRejected(metrics.RejectDuplicate)
			return nil, fmt.Errorf("%w: %q has already been submitted", session.ErrDuplicate, option)
		case errors.Is(err, session.ErrClosed):
			metrics.RecordChoiceRejected(metrics.RejectClosed)
			return nil, fmt.Errorf("%w: no further submissions allowed", session.ErrClosed)
		case errors.Is(err, session.ErrNotFound):
			return nil, fmt.Errorf("%w: %s", session.ErrNotFound, in.SessionID)
		}
		return nil, err
	}

	metrics.RecordChoiceSubmitted()
	s.logger.Info().
		Str("session_id", in.SessionID.String()).
		Int64("choice_id", c.ID).
		Str("option", c.Option).
		Str("user", c.SubmittedBy).
		Msg("choice submitted")
	if msg, err := event.NewMessage(event.TypeChoiceSubmitted, c); err == nil {
		s.publisher.Publish(in.SessionID, msg)
	}
	return c, nil
}

// List returns a session's choices in submission order.
func (s *Service) List(ctx context.Context, sessionID uuid.UUID) ([]*session.Choice, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, sessionID)
	}
	return s.choices.ListBySession(ctx, sessionID)
}
