// Package redisstore keeps sessions, choices and users in Redis. Session
// writes are optimistic: they WATCH the session key and commit in MULTI/EXEC.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "lunch:session:"
	choiceSeqKey     = "lunch:choice:seq"
	usersKey         = "lunch:users"

	// appendRetries bounds how often Append re-runs after losing a WATCH race.
	appendRetries = 16
)

// Config holds configuration for the Redis repositories.
type Config struct {
	RedisClient *redis.Client
}

// Store is the shared Redis handle behind the repositories.
type Store struct {
	client *redis.Client
}

// New validates the config and checks connectivity.
func New(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if err := cfg.RedisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Store{client: cfg.RedisClient}, nil
}

// Ping verifies Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func sessionKey(id uuid.UUID) string {
	return sessionKeyPrefix + id.String()
}

func choicesKey(id uuid.UUID) string {
	return sessionKeyPrefix + id.String() + ":choices"
}

func optionsKey(id uuid.UUID) string {
	return sessionKeyPrefix + id.String() + ":options"
}

func unmarshal[T any](raw string) (*T, error) {
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return &v, nil
}
