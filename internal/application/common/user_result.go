package common

import (
	"time"

	"github.com/google/uuid"
)

type UserResult struct {
	Id         uuid.UUID `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Username   string    `json:"userName"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"isVerified"`
}
