package interfaces

import (
	"context"

	"github.com/google/uuid"
	"storefront-api/internal/application/command"
	"storefront-api/internal/application/query"
)

type UserService interface {
	RegisterUser(ctx context.Context, registerCommand *command.RegisterUserCommand) (*command.RegisterUserCommandResult, error)
	ResendVerification(ctx context.Context, resendCommand *command.ResendVerificationCommand) (*command.MessageResult, error)
	VerifyUser(ctx context.Context, verifyCommand *command.VerifyUserCommand) (*command.VerifyUserCommandResult, error)
	LoginUser(ctx context.Context, loginCommand *command.LoginUserCommand) (*command.LoginUserCommandResult, error)
	GetUser(ctx context.Context, userQuery *query.GetUserQuery) (*query.UserQueryResult, error)
	GetUsers(ctx context.Context) (*query.UserQueryListResult, error)
	ForgotPassword(ctx context.Context, forgotCommand *command.ForgotPasswordCommand) (*command.MessageResult, error)
	ResetPassword(ctx context.Context, resetCommand *command.ResetPasswordCommand) (*command.MessageResult, error)
	ChangePassword(ctx context.Context, changeCommand *command.ChangePasswordCommand) (*command.MessageResult, error)
	Authenticate(ctx context.Context, sessionToken string) (uuid.UUID, error)
}
