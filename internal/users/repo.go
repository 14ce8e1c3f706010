package users

import "context"

// Repo is the persistence contract for users.
type Repo interface {
	Create(ctx context.Context, user User) error
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	TouchLogin(ctx context.Context, userID string) error
}
