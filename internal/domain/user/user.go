package user

import (
	"errors"
	"strings"
	"time"
)

// User is a known identity allowed to open sessions.
type User struct {
	Username string    `json:"username"`
	LoadedAt time.Time `json:"-"`
}

// NormalizeUsername trims surrounding whitespace. Usernames are compared
// exactly otherwise, so "Alice" and "alice" are distinct identities.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if strings.ContainsAny(username, "\r\n\t") {
		return errors.New("username must not contain control whitespace")
	}
	return nil
}
