package infrastructure

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"storefront-api/internal/domain"
)

type Claims struct {
	jwt.RegisteredClaims
}

type JWTService struct {
	secretKey []byte
	ttl       time.Duration
}

func NewJWTService(secretKey string, ttl time.Duration) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		ttl:       ttl,
	}
}

// GenerateToken signs a session token for userID. Each token gets its own
// jti so it can be tracked and revoked individually.
func (j *JWTService) GenerateToken(userID uuid.UUID) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", nil, fmt.Errorf("%w: sign session token: %v", domain.ErrUnexpected, err)
	}
	return signed, claims, nil
}

func (j *JWTService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return j.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid session token", domain.ErrAuth)
	}
	return claims, nil
}
