package infrastructure

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"storefront-api/internal/domain"
	"storefront-api/internal/domain/entities"
	"storefront-api/internal/domain/repositories"
)

const tokenBytes = 32

// TokenService hands out single-use verification and reset tokens. The raw
// value goes to the user; only its SHA-256 digest is persisted.
type TokenService struct {
	repo repositories.TokenRepository
	now  func() time.Time
}

func NewTokenService(repo repositories.TokenRepository) *TokenService {
	return &TokenService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *TokenService) Issue(ctx context.Context, purpose entities.TokenPurpose, userID uuid.UUID, ttl time.Duration) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: generate token: %v", domain.ErrUnexpected, err)
	}
	raw := hex.EncodeToString(buf)

	token := entities.NewToken(hashToken(raw), purpose, userID, ttl)
	token.CreatedAt = s.now()
	token.ExpiresAt = token.CreatedAt.Add(ttl)

	if err := s.repo.Create(ctx, token); err != nil {
		return "", err
	}
	return raw, nil
}

// Consume spends the token and returns the user it was issued to.
func (s *TokenService) Consume(ctx context.Context, rawToken string, purpose entities.TokenPurpose) (uuid.UUID, error) {
	if rawToken == "" {
		return uuid.Nil, fmt.Errorf("%w: token is empty", domain.ErrNotFound)
	}

	token, err := s.repo.Consume(ctx, hashToken(rawToken), purpose, s.now())
	if err != nil {
		return uuid.Nil, err
	}
	return token.UserId, nil
}

func (s *TokenService) Revoke(ctx context.Context, userID uuid.UUID, purpose entities.TokenPurpose) error {
	return s.repo.DeleteByUser(ctx, userID, purpose)
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
