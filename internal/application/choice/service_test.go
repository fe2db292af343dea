package choice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lunch-picker/lunch-picker/internal/domain/event"
	"github.com/lunch-picker/lunch-picker/internal/domain/session"
	"github.com/lunch-picker/lunch-picker/internal/domain/session/mocks"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/memory"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/sse"
)

type fixture struct {
	svc      *Service
	sessions *memory.SessionRepository
	hub      *sse.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.NewDB()
	sessions := memory.NewSessionRepository(db)
	hub := sse.NewHub()
	t.Cleanup(hub.Stop)
	return &fixture{
		svc:      NewService(sessions, memory.NewChoiceRepository(db), hub, zerolog.Nop()),
		sessions: sessions,
		hub:      hub,
	}
}

func (f *fixture) openSession(t *testing.T) *session.Session {
	t.Helper()
	s := session.New("alice", time.Now().UTC())
	require.NoError(t, f.sessions.Create(context.Background(), s))
	return s
}

func (f *fixture) submit(sessionID uuid.UUID, option, by string) (*session.Choice, error) {
	return f.svc.Submit(context.Background(), SubmitInput{SessionID: sessionID, Option: option, SubmittedBy: by})
}

func TestSubmitTrimsAndOrders(t *testing.T) {
	f := newFixture(t)
	s := f.openSession(t)

	first, err := f.submit(s.SessionID, "  Subway  ", "alice")
	require.NoError(t, err)
	assert.Equal(t, "Subway", first.Option)
	second, err := f.submit(s.SessionID, "Tacos", "bob")
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	list, err := f.svc.List(context.Background(), s.SessionID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].SubmittedBy)
	assert.Equal(t, "bob", list[1].SubmittedBy)
}

func TestSubmitDuplicateIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	s := f.openSession(t)

	_, err := f.submit(s.SessionID, "Subway", "alice")
	require.NoError(t, err)
	_, err = f.submit(s.SessionID, "subway", "bob")
	assert.True(t, errors.Is(err, session.ErrDuplicate))
	assert.True(t, errors.Is(err, session.ErrConflict))
	_, err = f.submit(s.SessionID, " SUBWAY ", "bob")
	assert.True(t, errors.Is(err, session.ErrDuplicate))
}

func TestSubmitBlankIsValidationError(t *testing.T) {
	f := newFixture(t)
	s := f.openSession(t)
	for _, opt := range []string{"", "   ", "\t\n"} {
		_, err := f.submit(s.SessionID, opt, "alice")
		assert.True(t, errors.Is(err, session.ErrValidation), "option %q", opt)
	}
}

func TestSubmitRequiresSubmitter(t *testing.T) {
	f := newFixture(t)
	s := f.openSession(t)
	_, err := f.submit(s.SessionID, "Subway", "  ")
	assert.True(t, errors.Is(err, session.ErrValidation))

	c, err := f.submit(s.SessionID, "Subway", " bob ")
	require.NoError(t, err)
	assert.Equal(t, "bob", c.SubmittedBy)
}

func TestSubmitToMissingSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.submit(uuid.New(), "Subway", "alice")
	assert.True(t, errors.Is(err, session.ErrNotFound))
	_, err = f.svc.List(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, session.ErrNotFound))
}

func TestSubmitToClosedSession(t *testing.T) {
	f := newFixture(t)
	s := f.openSession(t)
	_, err := f.submit(s.SessionID, "Subway", "alice")
	require.NoError(t, err)

	loaded, err := f.sessions.Get(context.Background(), s.SessionID)
	require.NoError(t, err)
	next := loaded.Clone()
	require.NoError(t, next.Close("Subway", time.Now().UTC()))
	_, err = f.sessions.Save(context.Background(), next, loaded.Version)
	require.NoError(t, err)

	// closed wins over blank and duplicate
	for _, opt := range []string{"Pizza", "", "subway"} {
		_, err = f.submit(s.SessionID, opt, "bob")
		assert.True(t, errors.Is(err, session.ErrClosed), "option %q: %v", opt, err)
	}
}

func TestSubmitAnyIdentityAccepted(t *testing.T) {
	f := newFixture(t)
	s := f.openSession(t)
	c, err := f.submit(s.SessionID, "Dim Sum", "guest-without-account")
	require.NoError(t, err)
	assert.Equal(t, "guest-without-account", c.SubmittedBy)
}

func TestSubmitIsolatedBetweenSessions(t *testing.T) {
	f := newFixture(t)
	s1 := f.openSession(t)
	s2 := f.openSession(t)
	_, err := f.submit(s1.SessionID, "Subway", "alice")
	require.NoError(t, err)
	_, err = f.submit(s2.SessionID, "Subway", "alice")
	require.NoError(t, err, "same option in another session is allowed")

	list, err := f.svc.List(context.Background(), s2.SessionID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, s2.SessionID, list[0].SessionID)
}

func TestSubmitPublishesEvent(t *testing.T) {
	f := newFixture(t)
	s := f.openSession(t)
	client := event.NewClient("c1", s.SessionID)
	f.hub.Register(client)

	_, err := f.submit(s.SessionID, "Pho", "alice")
	require.NoError(t, err)

	select {
	case msg := <-client.MessageChan:
		assert.Equal(t, event.TypeChoiceSubmitted, msg.Event)
		assert.Contains(t, string(msg.Data), "Pho")
	case <-time.After(time.Second):
		t.Fatal("expected choice_submitted event")
	}
}

func TestConcurrentDuplicateSubmissions(t *testing.T) {
	f := newFixture(t)
	s := f.openSession(t)

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.submit(s.SessionID, "Burgers", "user")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, session.ErrDuplicate), "unexpected %v", err)
	}
	assert.Equal(t, 1, ok)
}

func TestSubmitMapsRepositoryRaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockRepository(ctrl)
	choices := mocks.NewMockChoiceRepository(ctrl)
	svc := NewService(sessions, choices, nil, zerolog.Nop())

	open := session.New("alice", time.Now().UTC())
	sessions.EXPECT().Get(gomock.Any(), open.SessionID).Return(open, nil).Times(2)
	choices.EXPECT().ExistsCaseInsensitive(gomock.Any(), open.SessionID, "Pizza").Return(false, nil).Times(2)
	gomock.InOrder(
		choices.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil, session.ErrClosed),
		choices.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil, session.ErrDuplicate),
	)

	_, err := svc.Submit(context.Background(), SubmitInput{SessionID: open.SessionID, Option: "Pizza", SubmittedBy: "bob"})
	assert.True(t, errors.Is(err, session.ErrClosed))
	_, err = svc.Submit(context.Background(), SubmitInput{SessionID: open.SessionID, Option: "Pizza", SubmittedBy: "bob"})
	assert.True(t, errors.Is(err, session.ErrDuplicate))
}
