package pick

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lunch-picker/lunch-picker/internal/application/choice"
	"github.com/lunch-picker/lunch-picker/internal/application/guard"
	"github.com/lunch-picker/lunch-picker/internal/domain/event"
	"github.com/lunch-picker/lunch-picker/internal/domain/session"
	"github.com/lunch-picker/lunch-picker/internal/domain/session/mocks"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/memory"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/random"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/sse"
)

type fixedRandom int

func (f fixedRandom) Intn(n int) int { return int(f) % n }

type countingRandom struct {
	mu    sync.Mutex
	calls int
	inner Random
}

func (c *countingRandom) Intn(n int) int {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Intn(n)
}

type fixture struct {
	svc      *Service
	sessions *memory.SessionRepository
	choices  *memory.ChoiceRepository
}

func newFixture(t *testing.T, rnd Random, pub event.Publisher) *fixture {
	t.Helper()
	db := memory.NewDB()
	sessions := memory.NewSessionRepository(db)
	choices := memory.NewChoiceRepository(db)
	return &fixture{
		svc:      NewService(sessions, choices, guard.New(sessions), rnd, pub, zerolog.Nop()),
		sessions: sessions,
		choices:  choices,
	}
}

func (f *fixture) sessionWith(t *testing.T, submissions ...[2]string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	s := session.New("alice", time.Now().UTC())
	require.NoError(t, f.sessions.Create(ctx, s))
	for _, sub := range submissions {
		_, err := f.choices.Append(ctx, &session.Choice{
			SessionID:   s.SessionID,
			Option:      sub[0],
			SubmittedBy: sub[1],
			SubmittedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
	}
	return s.SessionID
}

func TestPickFirstSubmitterCloses(t *testing.T) {
	f := newFixture(t, fixedRandom(1), nil)
	id := f.sessionWith(t, [2]string{"Subway", "alice"}, [2]string{"Tacos", "bob"})

	chosen, err := f.svc.PickRandom(context.Background(), id, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Tacos", chosen)

	stored, err := f.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, stored.IsClosed())
	assert.Equal(t, "Tacos", stored.Chosen())
	assert.NotNil(t, stored.ClosedAt)
}

func TestPickBySomeoneElseIsForbidden(t *testing.T) {
	f := newFixture(t, fixedRandom(0), nil)
	id := f.sessionWith(t, [2]string{"Subway", "alice"}, [2]string{"Tacos", "bob"})

	_, err := f.svc.PickRandom(context.Background(), id, "bob")
	assert.True(t, errors.Is(err, session.ErrForbidden))

	// the creator is not special either; only the first submitter is
	id2 := f.sessionWith(t, [2]string{"Pho", "carol"})
	_, err = f.svc.PickRandom(context.Background(), id2, "alice")
	assert.True(t, errors.Is(err, session.ErrForbidden))

	stored, err := f.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, stored.IsClosed())
}

func TestPickEmptySession(t *testing.T) {
	f := newFixture(t, fixedRandom(0), nil)
	id := f.sessionWith(t)

	_, err := f.svc.PickRandom(context.Background(), id, "alice")
	assert.True(t, errors.Is(err, session.ErrEmpty))
	assert.True(t, errors.Is(err, session.ErrConflict))
	assert.False(t, errors.Is(err, session.ErrStaleWrite))
}

func TestPickMissingSession(t *testing.T) {
	f := newFixture(t, fixedRandom(0), nil)
	_, err := f.svc.PickRandom(context.Background(), uuid.New(), "alice")
	assert.True(t, errors.Is(err, session.ErrNotFound))
}

func TestPickIsIdempotentOnceClosed(t *testing.T) {
	rnd := &countingRandom{inner: fixedRandom(2)}
	f := newFixture(t, rnd, nil)
	id := f.sessionWith(t, [2]string{"Subway", "alice"}, [2]string{"Tacos", "bob"}, [2]string{"Pho", "carol"})

	first, err := f.svc.PickRandom(context.Background(), id, "alice")
	require.NoError(t, err)
	before, err := f.sessions.Get(context.Background(), id)
	require.NoError(t, err)

	// any caller gets the stored result; no draw, no write
	for _, who := range []string{"alice", "bob", "mallory", ""} {
		again, err := f.svc.PickRandom(context.Background(), id, who)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 1, rnd.calls)

	after, err := f.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
}

func TestPickPublishesSessionClosed(t *testing.T) {
	hub := sse.NewHub()
	t.Cleanup(hub.Stop)
	f := newFixture(t, fixedRandom(0), hub)
	id := f.sessionWith(t, [2]string{"Ramen", "alice"})
	client := event.NewClient("watcher", id)
	hub.Register(client)

	_, err := f.svc.PickRandom(context.Background(), id, "alice")
	require.NoError(t, err)

	select {
	case msg := <-client.MessageChan:
		assert.Equal(t, event.TypeSessionClosed, msg.Event)
		assert.Contains(t, string(msg.Data), "Ramen")
	case <-time.After(time.Second):
		t.Fatal("expected session_closed event")
	}
}

func TestPickStaleWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockRepository(ctrl)
	choices := mocks.NewMockChoiceRepository(ctrl)
	svc := NewService(sessions, choices, guard.New(sessions), fixedRandom(0), nil, zerolog.Nop())

	open := session.New("alice", time.Now().UTC())
	list := []*session.Choice{{ID: 1, SessionID: open.SessionID, Option: "Subway", SubmittedBy: "alice"}}

	sessions.EXPECT().Get(gomock.Any(), open.SessionID).Return(open, nil)
	choices.EXPECT().ListBySession(gomock.Any(), open.SessionID).Return(list, nil)
	sessions.EXPECT().Save(gomock.Any(), gomock.Any(), open.Version).Return(nil, session.ErrVersionConflict)

	_, err := svc.PickRandom(context.Background(), open.SessionID, "alice")
	assert.True(t, errors.Is(err, session.ErrStaleWrite))
	assert.False(t, errors.Is(err, session.ErrEmpty))
}

func TestPickRetryAfterStaleConverges(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockRepository(ctrl)
	choices := mocks.NewMockChoiceRepository(ctrl)
	svc := NewService(sessions, choices, guard.New(sessions), fixedRandom(0), nil, zerolog.Nop())

	open := session.New("alice", time.Now().UTC())
	closed := open.Clone()
	require.NoError(t, closed.Close("Tacos", time.Now().UTC()))
	closed.Version = open.Version + 1
	list := []*session.Choice{{ID: 1, SessionID: open.SessionID, Option: "Subway", SubmittedBy: "alice"}}

	gomock.InOrder(
		sessions.EXPECT().Get(gomock.Any(), open.SessionID).Return(open, nil),
		choices.EXPECT().ListBySession(gomock.Any(), open.SessionID).Return(list, nil),
		sessions.EXPECT().Save(gomock.Any(), gomock.Any(), open.Version).Return(nil, session.ErrVersionConflict),
		sessions.EXPECT().Get(gomock.Any(), open.SessionID).Return(closed, nil),
	)

	_, err := svc.PickRandom(context.Background(), open.SessionID, "alice")
	require.True(t, errors.Is(err, session.ErrStaleWrite))
	chosen, err := svc.PickRandom(context.Background(), open.SessionID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Tacos", chosen)
}

func TestConcurrentPickRace(t *testing.T) {
	f := newFixture(t, random.New(nil), nil)
	id := f.sessionWith(t,
		[2]string{"Subway", "alice"},
		[2]string{"Tacos", "bob"},
		[2]string{"Pho", "carol"},
		[2]string{"Ramen", "dave"},
	)

	const n = 32
	var (
		wg     sync.WaitGroup
		start  = make(chan struct{})
		mu     sync.Mutex
		stale  int
		result = make([]string, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			for {
				chosen, err := f.svc.PickRandom(context.Background(), id, "alice")
				if errors.Is(err, session.ErrStaleWrite) {
					mu.Lock()
					stale++
					mu.Unlock()
					continue
				}
				assert.NoError(t, err)
				result[i] = chosen
				return
			}
		}(i)
	}
	close(start)
	wg.Wait()

	stored, err := f.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, stored.IsClosed())
	for i, r := range result {
		assert.Equal(t, stored.Chosen(), r, "caller %d", i)
	}
	// exactly one close-transition: one write on top of the initial version
	// and the four appends
	assert.Equal(t, session.InitialVersion+4+1, stored.Version)
	t.Logf("stale writes observed: %d", stale)
}

func TestPickRacesSubmissions(t *testing.T) {
	f := newFixture(t, random.New(nil), nil)
	submit := choice.NewService(f.sessions, f.choices, nil, zerolog.Nop())
	id := f.sessionWith(t, [2]string{"Subway", "alice"})

	const submitters = 16
	var (
		wg       sync.WaitGroup
		start    = make(chan struct{})
		mu       sync.Mutex
		accepted = []string{"Subway"}
		chosen   string
	)
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			c, err := submit.Submit(context.Background(), choice.SubmitInput{
				SessionID:   id,
				Option:      fmt.Sprintf("Option %d", i),
				SubmittedBy: "bob",
			})
			if err != nil {
				assert.ErrorIs(t, err, session.ErrClosed)
				return
			}
			mu.Lock()
			accepted = append(accepted, c.Option)
			mu.Unlock()
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		for {
			got, err := f.svc.PickRandom(context.Background(), id, "alice")
			if errors.Is(err, session.ErrStaleWrite) {
				continue
			}
			assert.NoError(t, err)
			chosen = got
			return
		}
	}()
	close(start)
	wg.Wait()

	stored, err := f.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, stored.IsClosed())
	assert.Equal(t, chosen, stored.Chosen())

	list, err := f.choices.ListBySession(context.Background(), id)
	require.NoError(t, err)
	options := make([]string, 0, len(list))
	for _, c := range list {
		options = append(options, c.Option)
	}
	assert.ElementsMatch(t, accepted, options, "every accepted submission is stored and nothing else")
	assert.Contains(t, options, chosen)
	// every accepted append and the close each bumped the version once
	assert.Equal(t, session.InitialVersion+int64(len(list))+1, stored.Version)
}

func TestPickDistribution(t *testing.T) {
	options := []string{"Subway", "Tacos", "Pho", "Ramen"}
	const trials = 4000
	counts := make(map[string]int)

	rnd := random.New(&random.Config{Seed: 42})
	for i := 0; i < trials; i++ {
		f := newFixture(t, rnd, nil)
		subs := make([][2]string, 0, len(options))
		for j, o := range options {
			who := "alice"
			if j > 0 {
				who = "bob"
			}
			subs = append(subs, [2]string{o, who})
		}
		id := f.sessionWith(t, subs...)
		chosen, err := f.svc.PickRandom(context.Background(), id, "alice")
		require.NoError(t, err)
		counts[chosen]++
	}

	expected := trials / len(options)
	for _, o := range options {
		// generous bound; a positional bias would push one bucket far outside it
		assert.InDelta(t, expected, counts[o], float64(expected)*0.2, "option %s drawn %d times", o, counts[o])
	}
}
