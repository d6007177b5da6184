package store

import (
	"context"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Upsert creates the user if no record exists for its email. If one
	// exists and its auth method differs, the auth method is replaced and
	// updatedAt and lastLogin are set to user.LastLogin; otherwise the
	// stored record is left untouched. Returns the current record and
	// whether it was created by this call.
	Upsert(ctx context.Context, user *domain.User) (*domain.User, bool, error)

	// RecordLogin sets lastLogin on the user with the given email.
	// Returns ErrUserNotFound if the user does not exist.
	RecordLogin(ctx context.Context, email string, at time.Time) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
