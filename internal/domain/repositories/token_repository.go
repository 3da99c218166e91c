package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"storefront-api/internal/domain/entities"
)

type TokenRepository interface {
	Create(ctx context.Context, token *entities.Token) error

	// Consume marks the token identified by hash as used, provided it has the
	// given purpose, is unconsumed and has not expired at now. Exactly one of
	// any number of concurrent callers succeeds. Failures are
	// domain.ErrNotFound (unknown or already consumed) or domain.ErrExpired.
	Consume(ctx context.Context, hash string, purpose entities.TokenPurpose, now time.Time) (*entities.Token, error)

	// DeleteByUser removes every outstanding token of the purpose for the user.
	DeleteByUser(ctx context.Context, userID uuid.UUID, purpose entities.TokenPurpose) error
}
