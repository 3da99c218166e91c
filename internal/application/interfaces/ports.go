package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
	"storefront-api/internal/domain/entities"
)

// PasswordHasher is the one-way credential transform. Implementations must
// never log or retain the plaintext.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenIssuer manages single-use verification and reset tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, purpose entities.TokenPurpose, userID uuid.UUID, ttl time.Duration) (string, error)
	Consume(ctx context.Context, rawToken string, purpose entities.TokenPurpose) (uuid.UUID, error)
	Revoke(ctx context.Context, userID uuid.UUID, purpose entities.TokenPurpose) error
}

// SessionManager issues and checks bearer session tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID uuid.UUID) (token string, expiresAt time.Time, err error)
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

type Notifier interface {
	SendVerification(ctx context.Context, email, username, link string) error
	SendPasswordReset(ctx context.Context, email, username, link string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// Throttle reports whether another request for key is allowed right now.
type Throttle interface {
	Allow(key string) bool
}

// Transactor runs fn atomically. Store calls made with the ctx passed to fn
// join the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
