package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunch-picker/lunch-picker/internal/domain/user"
)

// UserRepository implements user.Repository.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username=$1)`, username).Scan(&exists)
	return exists, err
}

// Upsert sends all users in one batch.
func (r *UserRepository) Upsert(ctx context.Context, users []*user.User) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, u := range users {
		batch.Queue(`
			INSERT INTO users (username, loaded_at) VALUES ($1, COALESCE($2, now()))
			ON CONFLICT (username) DO UPDATE SET loaded_at=EXCLUDED.loaded_at
		`, u.Username, nullTime(u))
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range users {
		if _, err := br.Exec(); err != nil {
			return 0, err
		}
	}
	return len(users), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT username, loaded_at FROM users ORDER BY username COLLATE "C" ASC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*user.User, error) {
		var u user.User
		err := row.Scan(&u.Username, &u.LoadedAt)
		return &u, err
	})
}

func nullTime(u *user.User) any {
	if u.LoadedAt.IsZero() {
		return nil
	}
	return u.LoadedAt
}
