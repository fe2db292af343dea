// Package storetest holds the behavioural contract every repository backend
// must satisfy. Backend test files call Run with a factory for fresh stores.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunch-picker/lunch-picker/internal/domain/session"
	"github.com/lunch-picker/lunch-picker/internal/domain/user"
)

// Stores bundles the repositories of one backend.
type Stores struct {
	Sessions session.Repository
	Choices  session.ChoiceRepository
	Users    user.Repository
}

// Run executes the repository contract against stores produced by newStores.
func Run(t *testing.T, newStores func(t *testing.T) Stores) {
	tests := []struct {
		name string
		fn   func(t *testing.T, st Stores)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"GetMissing", testGetMissing},
		{"SaveCompareAndSwap", testSaveCompareAndSwap},
		{"SaveMissing", testSaveMissing},
		{"AppendOrderAndIsolation", testAppendOrderAndIsolation},
		{"AppendDuplicate", testAppendDuplicate},
		{"AppendClosedOrMissing", testAppendClosedOrMissing},
		{"AppendBumpsVersion", testAppendBumpsVersion},
		{"ConcurrentSave", testConcurrentSave},
		{"ConcurrentAppendSameOption", testConcurrentAppendSameOption},
		{"ConcurrentAppendAndClose", testConcurrentAppendAndClose},
		{"Users", testUsers},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStores(t))
		})
	}
}

func newSession(t *testing.T, st Stores) *session.Session {
	t.Helper()
	s := session.New("alice", time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, st.Sessions.Create(context.Background(), s))
	return s
}

func appendChoice(t *testing.T, st Stores, sessionID uuid.UUID, option, by string) *session.Choice {
	t.Helper()
	c, err := st.Choices.Append(context.Background(), &session.Choice{
		SessionID:   sessionID,
		Option:      option,
		SubmittedBy: by,
		SubmittedAt: time.Now().UTC().Truncate(time.Millisecond),
	})
	require.NoError(t, err)
	return c
}

func testCreateAndGet(t *testing.T, st Stores) {
	s := newSession(t, st)
	got, err := st.Sessions.Get(context.Background(), s.SessionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.SessionID, got.SessionID)
	assert.Equal(t, "alice", got.CreatedBy)
	assert.Equal(t, session.StatusOpen, got.Status)
	assert.Nil(t, got.ChosenOption)
	assert.Equal(t, session.InitialVersion, got.Version)
	assert.True(t, s.CreatedAt.Equal(got.CreatedAt), "createdAt %v != %v", s.CreatedAt, got.CreatedAt)
}

func testGetMissing(t *testing.T, st Stores) {
	got, err := st.Sessions.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testSaveCompareAndSwap(t *testing.T, st Stores) {
	ctx := context.Background()
	s := newSession(t, st)

	next := s.Clone()
	require.NoError(t, next.Close("Subway", time.Now().UTC()))
	saved, err := st.Sessions.Save(ctx, next, s.Version)
	require.NoError(t, err)
	assert.Equal(t, s.Version+1, saved.Version)

	stale := s.Clone()
	require.NoError(t, stale.Close("Pizza", time.Now().UTC()))
	_, err = st.Sessions.Save(ctx, stale, s.Version)
	assert.True(t, errors.Is(err, session.ErrVersionConflict), "got %v", err)

	got, err := st.Sessions.Get(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusClosed, got.Status)
	assert.Equal(t, "Subway", got.Chosen())
	assert.Equal(t, s.Version+1, got.Version)
	require.NotNil(t, got.ClosedAt)
}

func testSaveMissing(t *testing.T, st Stores) {
	s := session.New("alice", time.Now().UTC())
	_, err := st.Sessions.Save(context.Background(), s, s.Version)
	assert.Error(t, err)
}

func testAppendOrderAndIsolation(t *testing.T, st Stores) {
	ctx := context.Background()
	s1 := newSession(t, st)
	s2 := newSession(t, st)

	a := appendChoice(t, st, s1.SessionID, "Subway", "alice")
	b := appendChoice(t, st, s2.SessionID, "Sushi", "carol")
	c := appendChoice(t, st, s1.SessionID, "Tacos", "bob")
	assert.Less(t, a.ID, b.ID)
	assert.Less(t, b.ID, c.ID)

	list, err := st.Choices.ListBySession(ctx, s1.SessionID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Subway", list[0].Option)
	assert.Equal(t, "alice", list[0].SubmittedBy)
	assert.Equal(t, "Tacos", list[1].Option)
	for _, ch := range list {
		assert.Equal(t, s1.SessionID, ch.SessionID)
	}

	other, err := st.Choices.ListBySession(ctx, s2.SessionID)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "Sushi", other[0].Option)

	empty, err := st.Choices.ListBySession(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testAppendDuplicate(t *testing.T, st Stores) {
	ctx := context.Background()
	s := newSession(t, st)
	other := newSession(t, st)
	appendChoice(t, st, s.SessionID, "Subway", "alice")

	exists, err := st.Choices.ExistsCaseInsensitive(ctx, s.SessionID, "SUBWAY")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = st.Choices.ExistsCaseInsensitive(ctx, other.SessionID, "subway")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = st.Choices.Append(ctx, &session.Choice{SessionID: s.SessionID, Option: "subway", SubmittedBy: "bob", SubmittedAt: time.Now().UTC()})
	assert.True(t, errors.Is(err, session.ErrDuplicate), "got %v", err)

	appendChoice(t, st, other.SessionID, "subway", "bob")

	appendChoice(t, st, s.SessionID, "ÄPFEL", "carol")
	exists, err = st.Choices.ExistsCaseInsensitive(ctx, s.SessionID, "äpfel")
	require.NoError(t, err)
	assert.True(t, exists)
	_, err = st.Choices.Append(ctx, &session.Choice{SessionID: s.SessionID, Option: "äpfel", SubmittedBy: "dave", SubmittedAt: time.Now().UTC()})
	assert.True(t, errors.Is(err, session.ErrDuplicate), "got %v", err)
}

func testAppendClosedOrMissing(t *testing.T, st Stores) {
	ctx := context.Background()
	s := newSession(t, st)
	appendChoice(t, st, s.SessionID, "Subway", "alice")
	loaded, err := st.Sessions.Get(ctx, s.SessionID)
	require.NoError(t, err)
	next := loaded.Clone()
	require.NoError(t, next.Close("Subway", time.Now().UTC()))
	_, err = st.Sessions.Save(ctx, next, loaded.Version)
	require.NoError(t, err)

	_, err = st.Choices.Append(ctx, &session.Choice{SessionID: s.SessionID, Option: "Pizza", SubmittedBy: "bob", SubmittedAt: time.Now().UTC()})
	assert.True(t, errors.Is(err, session.ErrClosed), "got %v", err)

	_, err = st.Choices.Append(ctx, &session.Choice{SessionID: uuid.New(), Option: "Pizza", SubmittedBy: "bob", SubmittedAt: time.Now().UTC()})
	assert.True(t, errors.Is(err, session.ErrNotFound), "got %v", err)
}

func testAppendBumpsVersion(t *testing.T, st Stores) {
	ctx := context.Background()
	s := newSession(t, st)
	appendChoice(t, st, s.SessionID, "Subway", "alice")

	got, err := st.Sessions.Get(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, s.Version+1, got.Version)

	next := s.Clone()
	require.NoError(t, next.Close("Subway", time.Now().UTC()))
	_, err = st.Sessions.Save(ctx, next, s.Version)
	assert.True(t, errors.Is(err, session.ErrVersionConflict), "got %v", err)
}

func testConcurrentSave(t *testing.T, st Stores) {
	ctx := context.Background()
	s := newSession(t, st)

	const writers = 8
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := s.Clone()
			_ = next.Close(string(rune('A'+i)), time.Now().UTC())
			_, err := st.Sessions.Save(ctx, next, s.Version)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, session.ErrVersionConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(writers-1), conflicts.Load())

	got, err := st.Sessions.Get(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, s.Version+1, got.Version)
}

func testConcurrentAppendSameOption(t *testing.T, st Stores) {
	ctx := context.Background()
	s := newSession(t, st)

	const writers = 8
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			option := "pizza"
			if i%2 == 0 {
				option = "PIZZA"
			}
			_, err := st.Choices.Append(ctx, &session.Choice{SessionID: s.SessionID, Option: option, SubmittedBy: "u", SubmittedAt: time.Now().UTC()})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, session.ErrDuplicate):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	list, err := st.Choices.ListBySession(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// testConcurrentAppendAndClose races appends against a closer that retries on
// version conflicts. The close must cover exactly the choices stored, and no
// append may land after it.
func testConcurrentAppendAndClose(t *testing.T, st Stores) {
	const rounds = 5
	for round := 0; round < rounds; round++ {
		raceAppendAndClose(t, st)
	}
}

func raceAppendAndClose(t *testing.T, st Stores) {
	ctx := context.Background()
	s := newSession(t, st)
	appendChoice(t, st, s.SessionID, "Subway", "alice")

	const submitters = 8
	var appended atomic.Int32
	appended.Store(1)
	var (
		closedOver int
		chosen     string
	)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := st.Choices.Append(ctx, &session.Choice{
				SessionID:   s.SessionID,
				Option:      fmt.Sprintf("option-%d", i),
				SubmittedBy: "bob",
				SubmittedAt: time.Now().UTC(),
			})
			switch {
			case err == nil:
				appended.Add(1)
			case errors.Is(err, session.ErrClosed), errors.Is(err, session.ErrStaleWrite):
			default:
				t.Errorf("unexpected append error: %v", err)
			}
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		for attempt := 0; attempt < 1000; attempt++ {
			cur, err := st.Sessions.Get(ctx, s.SessionID)
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			choices, err := st.Choices.ListBySession(ctx, s.SessionID)
			if err != nil {
				t.Errorf("list: %v", err)
				return
			}
			option := choices[attempt%len(choices)].Option
			next := cur.Clone()
			if err := next.Close(option, time.Now().UTC()); err != nil {
				t.Errorf("close: %v", err)
				return
			}
			_, err = st.Sessions.Save(ctx, next, cur.Version)
			if err == nil {
				closedOver, chosen = len(choices), option
				return
			}
			if !errors.Is(err, session.ErrVersionConflict) {
				t.Errorf("save: %v", err)
				return
			}
		}
		t.Error("close never won against concurrent appends")
	}()

	close(start)
	wg.Wait()

	got, err := st.Sessions.Get(ctx, s.SessionID)
	require.NoError(t, err)
	require.Equal(t, session.StatusClosed, got.Status)
	assert.Equal(t, chosen, got.Chosen())

	list, err := st.Choices.ListBySession(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Len(t, list, int(appended.Load()))
	assert.Equal(t, closedOver, len(list), "choices changed after the session closed")
	options := make([]string, 0, len(list))
	for _, c := range list {
		options = append(options, c.Option)
	}
	assert.Contains(t, options, got.Chosen())
}

func testUsers(t *testing.T, st Stores) {
	ctx := context.Background()
	n, err := st.Users.Upsert(ctx, []*user.User{{Username: "carol"}, {Username: "alice"}, {Username: "bob"}})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = st.Users.Upsert(ctx, []*user.User{{Username: "alice"}})
	require.NoError(t, err)

	ok, err := st.Users.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = st.Users.Exists(ctx, "mallory")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := st.Users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"alice", "bob", "carol"}, []string{list[0].Username, list[1].Username, list[2].Username})
}
