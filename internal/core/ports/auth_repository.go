package ports

import (
	"context"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
)

// AuthRepository defines the interface for user authentication persistence.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// UpdateCredentials replaces the password hash and role of an existing user.
	UpdateCredentials(ctx context.Context, email, passwordHash, role string) error
}
