package user

import (
	"context"

	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// Repository persists user accounts.
type Repository interface {
	// Create stores a new user.
	Create(ctx context.Context, u *User) error

	// GetByID returns a user by ID.
	GetByID(ctx context.Context, id shared.UserID) (*User, error)

	// GetByEmail returns a user by normalized email.
	GetByEmail(ctx context.Context, email shared.Email) (*User, error)
}
