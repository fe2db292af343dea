// Package memory keeps sessions, choices and users in process memory. A single
// mutex guards each compare-and-swap; it is never held across I/O.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/lunch-picker/lunch-picker/internal/domain/session"
	"github.com/lunch-picker/lunch-picker/internal/domain/user"
)

// DB is the shared in-memory state behind the memory repositories.
type DB struct {
	mu           sync.RWMutex
	sessions     map[uuid.UUID]*session.Session
	choices      map[uuid.UUID][]*session.Choice
	users        map[string]*user.User
	nextChoiceID int64
}

func NewDB() *DB {
	return &DB{
		sessions: make(map[uuid.UUID]*session.Session),
		choices:  make(map[uuid.UUID][]*session.Choice),
		users:    make(map[string]*user.User),
	}
}
