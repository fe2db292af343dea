package user

import "context"

// Directory answers whether an identity is known.
type Directory interface {
	Exists(ctx context.Context, username string) (bool, error)
}

// Repository defines persistence for users.
type Repository interface {
	Directory
	Upsert(ctx context.Context, users []*User) (int, error)
	List(ctx context.Context) ([]*User, error)
}
