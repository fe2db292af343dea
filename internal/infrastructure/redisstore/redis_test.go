package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/lunch-picker/lunch-picker/internal/domain/session"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/storetest"
)

func newMiniStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store, err := New(context.Background(), &Config{RedisClient: client})
	require.NoError(t, err)
	return store
}

func TestRepositoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Stores {
		store := newMiniStore(t)
		return storetest.Stores{
			Sessions: NewSessionRepository(store),
			Choices:  NewChoiceRepository(store),
			Users:    NewUserRepository(store),
		}
	})
}

type RedisStoreTestSuite struct {
	suite.Suite
	mr       *miniredis.Miniredis
	client   *redis.Client
	sessions *SessionRepository
	choices  *ChoiceRepository
	testNow  time.Time
}

func (s *RedisStoreTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr
	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})

	store, err := New(context.Background(), &Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.sessions = NewSessionRepository(store)
	s.choices = NewChoiceRepository(store)
	s.testNow = time.Date(2025, 4, 5, 12, 0, 0, 0, time.UTC)
}

func (s *RedisStoreTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestRedisStoreTestSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreTestSuite))
}

func (s *RedisStoreTestSuite) TestNewRejectsMissingClient() {
	_, err := New(context.Background(), nil)
	s.Error(err)
	_, err = New(context.Background(), &Config{})
	s.Error(err)
}

func (s *RedisStoreTestSuite) TestKeyLayout() {
	ctx := context.Background()
	sess := session.New("alice", s.testNow)
	s.Require().NoError(s.sessions.Create(ctx, sess))
	_, err := s.choices.Append(ctx, &session.Choice{SessionID: sess.SessionID, Option: "Bagels", SubmittedBy: "alice", SubmittedAt: s.testNow})
	s.Require().NoError(err)

	s.True(s.mr.Exists(sessionKey(sess.SessionID)))
	list, err := s.mr.List(choicesKey(sess.SessionID))
	s.Require().NoError(err)
	s.Len(list, 1)
	s.Equal("1", s.mr.HGet(optionsKey(sess.SessionID), "bagels"))
}

func (s *RedisStoreTestSuite) TestCreateTwiceFails() {
	ctx := context.Background()
	sess := session.New("alice", s.testNow)
	s.Require().NoError(s.sessions.Create(ctx, sess))
	s.Error(s.sessions.Create(ctx, sess))
}

func (s *RedisStoreTestSuite) TestSaveAfterExternalWriteConflicts() {
	ctx := context.Background()
	sess := session.New("alice", s.testNow)
	s.Require().NoError(s.sessions.Create(ctx, sess))
	_, err := s.choices.Append(ctx, &session.Choice{SessionID: sess.SessionID, Option: "Bagels", SubmittedBy: "alice", SubmittedAt: s.testNow})
	s.Require().NoError(err)

	next := sess.Clone()
	s.Require().NoError(next.Close("Bagels", s.testNow))
	_, err = s.sessions.Save(ctx, next, sess.Version)
	s.True(errors.Is(err, session.ErrVersionConflict), "got %v", err)
}
