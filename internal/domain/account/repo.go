package account

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no account matches the lookup.
var ErrNotFound = errors.New("account not found")

// ErrDuplicateUsername is returned when a create or update collides
// with an existing username.
var ErrDuplicateUsername = errors.New("username already exists")

// Repository defines the persistence interface for dashboard accounts.
// The tenant resolution core only reads; writes belong to the
// account-management endpoints and the bootstrap CLI.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Account, error)
	FindByUsername(ctx context.Context, username string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	Create(ctx context.Context, a *Account) error
	Update(ctx context.Context, a *Account) error
	Delete(ctx context.Context, id int64) error
}
