package repositories

import (
	"context"

	"github.com/google/uuid"
	"storefront-api/internal/domain/entities"
)

// UserRepository lookups return domain.ErrNotFound when nothing matches.
// Create returns domain.ErrConflict when username or email is taken.
type UserRepository interface {
	Create(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error)
	FindById(ctx context.Context, id uuid.UUID) (*entities.User, error)
	FindByUsername(ctx context.Context, username string) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	FindAll(ctx context.Context) ([]*entities.User, error)
	Update(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error)
}
