package sqlite

import (
	"context"
	"time"

	"github.com/lunch-picker/lunch-picker/internal/domain/user"
)

// UserRepository implements user.Repository.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)`, username).Scan(&exists)
	return exists, err
}

func (r *UserRepository) Upsert(ctx context.Context, users []*user.User) (int, error) {
	tx, err := r.db.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO users (username, loaded_at) VALUES (?, ?)
		 ON CONFLICT(username) DO UPDATE SET loaded_at = excluded.loaded_at`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, u := range users {
		loaded := u.LoadedAt
		if loaded.IsZero() {
			loaded = now
		}
		if _, err := stmt.ExecContext(ctx, u.Username, toNanos(loaded)); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(users), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	rows, err := r.db.db.QueryContext(ctx, `SELECT username, loaded_at FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*user.User, 0)
	for rows.Next() {
		var u user.User
		var loaded int64
		if err := rows.Scan(&u.Username, &loaded); err != nil {
			return nil, err
		}
		u.LoadedAt = fromNanos(loaded)
		out = append(out, &u)
	}
	return out, rows.Err()
}
