package command

import "storefront-api/internal/application/common"

type VerifyUserCommand struct {
	Token string `json:"-" validate:"required"`
}

type VerifyUserCommandResult struct {
	Result *common.UserResult `json:"result"`
}
