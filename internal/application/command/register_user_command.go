package command

import "storefront-api/internal/application/common"

type RegisterUserCommand struct {
	Username        string `json:"userName" validate:"required,min=3,max=32,username"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=8,max=72,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type RegisterUserCommandResult struct {
	Result *common.UserResult `json:"result"`
}

type ResendVerificationCommand struct {
	Email string `json:"email" validate:"required,email"`
}
