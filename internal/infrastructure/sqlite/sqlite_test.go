package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunch-picker/lunch-picker/internal/domain/session"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/storetest"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRepositoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Stores {
		db := openTestDB(t)
		return storetest.Stores{
			Sessions: NewSessionRepository(db),
			Choices:  NewChoiceRepository(db),
			Users:    NewUserRepository(db),
		}
	})
}

func TestSessionsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lunch.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	s := session.New("alice", time.Now().UTC())
	require.NoError(t, NewSessionRepository(db).Create(ctx, s))
	_, err = NewChoiceRepository(db).Append(ctx, &session.Choice{
		SessionID: s.SessionID, Option: "Falafel", SubmittedBy: "alice", SubmittedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	got, err := NewSessionRepository(db).Get(ctx, s.SessionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.Version+1, got.Version)
	list, err := NewChoiceRepository(db).ListBySession(ctx, s.SessionID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Falafel", list[0].Option)
}
