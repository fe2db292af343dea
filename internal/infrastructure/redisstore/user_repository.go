package redisstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/lunch-picker/lunch-picker/internal/domain/user"
)

// UserRepository implements user.Repository as a hash of username to load time.
type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Exists(ctx context.Context, username string) (bool, error) {
	return r.store.client.HExists(ctx, usersKey, username).Result()
}

func (r *UserRepository) Upsert(ctx context.Context, users []*user.User) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	values := make([]interface{}, 0, len(users)*2)
	for _, u := range users {
		loaded := u.LoadedAt
		if loaded.IsZero() {
			loaded = now
		}
		values = append(values, u.Username, loaded.UnixNano())
	}
	if err := r.store.client.HSet(ctx, usersKey, values...).Err(); err != nil {
		return 0, fmt.Errorf("failed to upsert users: %w", err)
	}
	return len(users), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	all, err := r.store.client.HGetAll(ctx, usersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]*user.User, 0, len(all))
	for name, raw := range all {
		u := &user.User{Username: name}
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			u.LoadedAt = time.Unix(0, n).UTC()
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
