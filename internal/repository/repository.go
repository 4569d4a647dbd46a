package repository

import (
	"context"

	"github.com/arefin/authbox/internal/model"
)

// UserRepository is the Credential Store contract. The service layer depends
// on this interface, not on a concrete database — tests swap in an in-memory
// fake, production wires the sqlite implementation.
//
// Create must fail atomically with apperror.ErrConflict when the email is
// already registered; email uniqueness is enforced by the store itself, so
// concurrent registrations of the same address can never both succeed.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// Delete exists for operational cleanup; the HTTP API never exposes it.
	// A deleted user invalidates any tokens still bound to their ID.
	Delete(ctx context.Context, id int64) error
}
