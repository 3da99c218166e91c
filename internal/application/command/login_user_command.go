package command

import (
	"time"

	"storefront-api/internal/application/common"
)

type LoginUserCommand struct {
	Username string `json:"userName" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginUserCommandResult struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      *common.UserResult `json:"user"`
}
