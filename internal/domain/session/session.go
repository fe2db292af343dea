package session

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a session.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// InitialVersion is the version a freshly created session is persisted with.
const InitialVersion int64 = 1

// Session represents one group decision: choices are collected while OPEN and
// exactly one of them is drawn on the transition to CLOSED.
type Session struct {
	SessionID    uuid.UUID  `json:"id"`
	CreatedBy    string     `json:"createdBy"`
	Status       Status     `json:"status"`
	ChosenOption *string    `json:"chosenOption,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	ClosedAt     *time.Time `json:"closedAt,omitempty"`
	Version      int64      `json:"version"`
}

// Choice is one submitted candidate option. IDs grow in submission order.
type Choice struct {
	ID          int64     `json:"id"`
	SessionID   uuid.UUID `json:"sessionId"`
	Option      string    `json:"option"`
	SubmittedBy string    `json:"submittedBy"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// New returns an OPEN session at the initial version.
func New(createdBy string, now time.Time) *Session {
	return &Session{
		SessionID: uuid.New(),
		CreatedBy: createdBy,
		Status:    StatusOpen,
		CreatedAt: now,
		Version:   InitialVersion,
	}
}

func (s *Session) IsClosed() bool {
	return s.Status == StatusClosed
}

// Chosen returns the chosen option, or "" while the session is open.
func (s *Session) Chosen() string {
	if s.ChosenOption == nil {
		return ""
	}
	return *s.ChosenOption
}

// Clone returns a deep copy so callers can mutate without touching a loaded snapshot.
func (s *Session) Clone() *Session {
	c := *s
	if s.ChosenOption != nil {
		v := *s.ChosenOption
		c.ChosenOption = &v
	}
	if s.ClosedAt != nil {
		t := *s.ClosedAt
		c.ClosedAt = &t
	}
	return &c
}

// Close performs the OPEN -> CLOSED transition. CLOSED is terminal.
func (s *Session) Close(option string, now time.Time) error {
	if s.Status != StatusOpen {
		return ErrInvalidTransition
	}
	if strings.TrimSpace(option) == "" {
		return ErrInvalidTransition
	}
	s.Status = StatusClosed
	s.ChosenOption = &option
	s.ClosedAt = &now
	return nil
}

// NormalizeOption trims surrounding whitespace from a submitted option.
func NormalizeOption(option string) string {
	return strings.TrimSpace(option)
}

// OptionKey is the comparison key used for case-insensitive uniqueness.
func OptionKey(option string) string {
	return strings.ToLower(NormalizeOption(option))
}

// FirstSubmitter returns the submitter of the lowest-id choice.
// choices must be ordered by ID.
func FirstSubmitter(choices []*Choice) (string, bool) {
	if len(choices) == 0 {
		return "", false
	}
	return choices[0].SubmittedBy, true
}
