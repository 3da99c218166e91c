package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"storefront-api/internal/domain"
)

// SessionService issues JWT session tokens and, when Redis is available,
// tracks them so they can be revoked before they expire.
type SessionService struct {
	jwt      *JWTService
	registry *RedisService
	log      *zap.Logger
}

func NewSessionService(jwtService *JWTService, registry *RedisService, log *zap.Logger) *SessionService {
	return &SessionService{jwt: jwtService, registry: registry, log: log}
}

func (s *SessionService) Issue(ctx context.Context, userID uuid.UUID) (string, time.Time, error) {
	token, claims, err := s.jwt.GenerateToken(userID)
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := claims.ExpiresAt.Time
	if err := s.registry.SetSession(ctx, claims.ID, userID.String(), time.Until(expiresAt)); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: register session: %v", domain.ErrUnexpected, err)
	}
	return token, expiresAt, nil
}

func (s *SessionService) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, fmt.Errorf("%w: missing session token", domain.ErrAuth)
	}

	claims, err := s.jwt.ParseToken(token)
	if err != nil {
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed session subject", domain.ErrAuth)
	}

	active, err := s.registry.SessionActive(ctx, claims.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: check session: %v", domain.ErrUnexpected, err)
	}
	if !active {
		return uuid.Nil, fmt.Errorf("%w: session revoked", domain.ErrAuth)
	}
	return userID, nil
}

func (s *SessionService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.registry.RevokeUserSessions(ctx, userID.String()); err != nil {
		return fmt.Errorf("%w: revoke sessions: %v", domain.ErrUnexpected, err)
	}
	return nil
}
