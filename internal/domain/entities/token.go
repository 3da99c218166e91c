package entities

import (
	"time"

	"github.com/google/uuid"
)

type TokenPurpose string

const (
	TokenPurposeVerify TokenPurpose = "verify"
	TokenPurposeReset  TokenPurpose = "reset"
)

// Token is a single-use credential bound to one user and one purpose. Only
// the hash of the value handed to the user is kept.
type Token struct {
	Id         uuid.UUID
	Hash       string
	Purpose    TokenPurpose
	UserId     uuid.UUID
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

func NewToken(hash string, purpose TokenPurpose, userID uuid.UUID, ttl time.Duration) *Token {
	now := time.Now().UTC()
	return &Token{
		Id:        uuid.New(),
		Hash:      hash,
		Purpose:   purpose,
		UserId:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

func (t *Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *Token) IsConsumed() bool {
	return t.ConsumedAt != nil
}
