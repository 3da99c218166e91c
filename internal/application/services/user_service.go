package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"storefront-api/internal/application/command"
	"storefront-api/internal/application/interfaces"
	"storefront-api/internal/application/mapper"
	"storefront-api/internal/application/query"
	"storefront-api/internal/application/validation"
	"storefront-api/internal/domain"
	"storefront-api/internal/domain/entities"
	"storefront-api/internal/domain/repositories"
)

const (
	SubjectUserRegistered       = "user.registered"
	SubjectUserVerified         = "user.verified"
	SubjectPasswordResetRequest = "user.password_reset_requested"
	SubjectPasswordReset        = "user.password_reset"
	SubjectPasswordChanged      = "user.password_changed"
)

const (
	verifyLinkPath = "/api/v1/verify/user/"
	resetLinkPath  = "/api/v1/reset/password/"

	resendThrottlePrefix = "verify:"
	forgotThrottlePrefix = "reset:"
)

type UserServiceConfig struct {
	VerifyTokenTTL time.Duration
	ResetTokenTTL  time.Duration
	PublicBaseURL  string
}

type UserEvent struct {
	UserId    uuid.UUID `json:"userId"`
	Username  string    `json:"userName"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

type UserService struct {
	userRepo  repositories.UserRepository
	hasher    interfaces.PasswordHasher
	tokens    interfaces.TokenIssuer
	sessions  interfaces.SessionManager
	notifier  interfaces.Notifier
	publisher interfaces.EventPublisher
	throttle  interfaces.Throttle
	tx        interfaces.Transactor
	config    UserServiceConfig
	log       *zap.Logger
}

func NewUserService(
	userRepo repositories.UserRepository,
	hasher interfaces.PasswordHasher,
	tokens interfaces.TokenIssuer,
	sessions interfaces.SessionManager,
	notifier interfaces.Notifier,
	publisher interfaces.EventPublisher,
	throttle interfaces.Throttle,
	tx interfaces.Transactor,
	config UserServiceConfig,
	log *zap.Logger,
) interfaces.UserService {
	return &UserService{
		userRepo:  userRepo,
		hasher:    hasher,
		tokens:    tokens,
		sessions:  sessions,
		notifier:  notifier,
		publisher: publisher,
		throttle:  throttle,
		tx:        tx,
		config:    config,
		log:       log,
	}
}

func (s *UserService) RegisterUser(ctx context.Context, registerCommand *command.RegisterUserCommand) (*command.RegisterUserCommandResult, error) {
	registerCommand.Username = strings.TrimSpace(registerCommand.Username)
	registerCommand.Email = normalizeEmail(registerCommand.Email)
	if err := validation.Struct(registerCommand); err != nil {
		return nil, err
	}

	if err := s.ensureAvailable(ctx, registerCommand.Username, registerCommand.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(registerCommand.Password)
	if err != nil {
		return nil, err
	}

	validatedUser, err := entities.NewValidatedUser(entities.NewUser(registerCommand.Username, registerCommand.Email, hash))
	if err != nil {
		return nil, err
	}

	// The unique indexes settle races the pre-check above cannot see.
	createdUser, err := s.userRepo.Create(ctx, validatedUser)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		return nil, err
	}

	if err := s.sendVerification(ctx, createdUser); err != nil {
		return nil, err
	}
	s.publish(ctx, SubjectUserRegistered, createdUser)

	s.log.Info("user registered", zap.String("user_id", createdUser.Id.String()))
	return &command.RegisterUserCommandResult{
		Result: mapper.NewUserResultFromEntity(createdUser),
	}, nil
}

func (s *UserService) ResendVerification(ctx context.Context, resendCommand *command.ResendVerificationCommand) (*command.MessageResult, error) {
	resendCommand.Email = normalizeEmail(resendCommand.Email)
	if err := validation.Struct(resendCommand); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, resendCommand.Email)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, fmt.Errorf("%w: account is already verified", domain.ErrConflict)
	}
	if !s.throttle.Allow(resendThrottlePrefix + user.Email) {
		return nil, fmt.Errorf("%w: too many verification emails, try again later", domain.ErrRateLimited)
	}

	if err := s.tokens.Revoke(ctx, user.Id, entities.TokenPurposeVerify); err != nil {
		return nil, err
	}
	if err := s.sendVerification(ctx, user); err != nil {
		return nil, err
	}

	return &command.MessageResult{Message: "Verification email sent"}, nil
}

func (s *UserService) VerifyUser(ctx context.Context, verifyCommand *command.VerifyUserCommand) (*command.VerifyUserCommandResult, error) {
	if err := validation.Struct(verifyCommand); err != nil {
		return nil, err
	}

	userID, err := s.tokens.Consume(ctx, verifyCommand.Token, entities.TokenPurposeVerify)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindById(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.IsVerified {
		user.MarkAsVerified()
		validatedUser, err := entities.NewValidatedUser(user)
		if err != nil {
			return nil, err
		}
		if user, err = s.userRepo.Update(ctx, validatedUser); err != nil {
			return nil, err
		}
	}

	if err := s.tokens.Revoke(ctx, user.Id, entities.TokenPurposeVerify); err != nil {
		s.log.Warn("failed to clear verification tokens", zap.String("user_id", user.Id.String()), zap.Error(err))
	}
	s.publish(ctx, SubjectUserVerified, user)

	s.log.Info("user verified", zap.String("user_id", user.Id.String()))
	return &command.VerifyUserCommandResult{
		Result: mapper.NewUserResultFromEntity(user),
	}, nil
}

// LoginUser checks the password before the verification flag so that an
// unverified account never confirms a guessed password.
func (s *UserService) LoginUser(ctx context.Context, loginCommand *command.LoginUserCommand) (*command.LoginUserCommandResult, error) {
	loginCommand.Username = strings.TrimSpace(loginCommand.Username)
	if err := validation.Struct(loginCommand); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByUsername(ctx, loginCommand.Username)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(loginCommand.Password, user.Password) {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrAuth)
	}
	if !user.IsVerified {
		return nil, fmt.Errorf("%w: verify your email before logging in", domain.ErrUnverified)
	}

	token, expiresAt, err := s.sessions.Issue(ctx, user.Id)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.String("user_id", user.Id.String()))
	return &command.LoginUserCommandResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      mapper.NewUserResultFromEntity(user),
	}, nil
}

func (s *UserService) GetUser(ctx context.Context, userQuery *query.GetUserQuery) (*query.UserQueryResult, error) {
	userID, err := s.sessions.Authenticate(ctx, userQuery.SessionToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindById(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &query.UserQueryResult{
		Result: mapper.NewUserResultFromEntity(user),
	}, nil
}

func (s *UserService) GetUsers(ctx context.Context) (*query.UserQueryListResult, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: no users", domain.ErrNotFound)
	}

	return &query.UserQueryListResult{
		Result: mapper.NewUserResultsFromEntities(users),
	}, nil
}

func (s *UserService) ForgotPassword(ctx context.Context, forgotCommand *command.ForgotPasswordCommand) (*command.MessageResult, error) {
	forgotCommand.Email = normalizeEmail(forgotCommand.Email)
	if err := validation.Struct(forgotCommand); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, forgotCommand.Email)
	if err != nil {
		return nil, err
	}
	if !s.throttle.Allow(forgotThrottlePrefix + user.Email) {
		return nil, fmt.Errorf("%w: too many password reset requests, try again later", domain.ErrRateLimited)
	}

	if err := s.tokens.Revoke(ctx, user.Id, entities.TokenPurposeReset); err != nil {
		return nil, err
	}
	rawToken, err := s.tokens.Issue(ctx, entities.TokenPurposeReset, user.Id, s.config.ResetTokenTTL)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.SendPasswordReset(ctx, user.Email, user.Username, s.link(resetLinkPath, rawToken)); err != nil {
		s.log.Error("failed to send password reset email", zap.String("user_id", user.Id.String()), zap.Error(err))
	}
	s.publish(ctx, SubjectPasswordResetRequest, user)

	return &command.MessageResult{Message: "Password reset link sent to your email"}, nil
}

func (s *UserService) ResetPassword(ctx context.Context, resetCommand *command.ResetPasswordCommand) (*command.MessageResult, error) {
	if err := validation.Struct(resetCommand); err != nil {
		return nil, err
	}

	// Hash before consuming so a hashing failure leaves the token usable.
	hash, err := s.hasher.Hash(resetCommand.NewPassword)
	if err != nil {
		return nil, err
	}

	// The token is only spent if the new hash is stored.
	var user *entities.User
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		userID, err := s.tokens.Consume(ctx, resetCommand.Token, entities.TokenPurposeReset)
		if err != nil {
			return err
		}
		user, err = s.updatePassword(ctx, userID, hash)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.sessions.RevokeAll(ctx, user.Id); err != nil {
		s.log.Error("failed to revoke sessions after password reset", zap.String("user_id", user.Id.String()), zap.Error(err))
	}
	s.publish(ctx, SubjectPasswordReset, user)

	s.log.Info("password reset", zap.String("user_id", user.Id.String()))
	return &command.MessageResult{Message: "Password has been reset"}, nil
}

func (s *UserService) ChangePassword(ctx context.Context, changeCommand *command.ChangePasswordCommand) (*command.MessageResult, error) {
	userID, err := s.sessions.Authenticate(ctx, changeCommand.SessionToken)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(changeCommand); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindById(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(changeCommand.CurrentPassword, user.Password) {
		return nil, fmt.Errorf("%w: current password is incorrect", domain.ErrAuth)
	}

	hash, err := s.hasher.Hash(changeCommand.NewPassword)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err = s.updatePassword(ctx, user.Id, hash)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, SubjectPasswordChanged, user)

	s.log.Info("password changed", zap.String("user_id", user.Id.String()))
	return &command.MessageResult{Message: "Password changed successfully"}, nil
}

func (s *UserService) Authenticate(ctx context.Context, sessionToken string) (uuid.UUID, error) {
	return s.sessions.Authenticate(ctx, sessionToken)
}

// updatePassword stores the new hash and drops any outstanding reset tokens.
func (s *UserService) updatePassword(ctx context.Context, userID uuid.UUID, hash string) (*entities.User, error) {
	user, err := s.userRepo.FindById(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.SetPasswordHash(hash)
	validatedUser, err := entities.NewValidatedUser(user)
	if err != nil {
		return nil, err
	}
	if user, err = s.userRepo.Update(ctx, validatedUser); err != nil {
		return nil, err
	}

	if err := s.tokens.Revoke(ctx, user.Id, entities.TokenPurposeReset); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return fmt.Errorf("%w: %w: username already exists", domain.ErrValidation, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return fmt.Errorf("%w: %w: email already exists", domain.ErrValidation, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// sendVerification issues a fresh verify token and mails the link. A mail
// failure is logged only; the user can ask for another link.
func (s *UserService) sendVerification(ctx context.Context, user *entities.User) error {
	rawToken, err := s.tokens.Issue(ctx, entities.TokenPurposeVerify, user.Id, s.config.VerifyTokenTTL)
	if err != nil {
		return err
	}

	if err := s.notifier.SendVerification(ctx, user.Email, user.Username, s.link(verifyLinkPath, rawToken)); err != nil {
		s.log.Error("failed to send verification email", zap.String("user_id", user.Id.String()), zap.Error(err))
	}
	return nil
}

func (s *UserService) publish(ctx context.Context, subject string, user *entities.User) {
	event := UserEvent{
		UserId:    user.Id,
		Username:  user.Username,
		Email:     user.Email,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.log.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func (s *UserService) link(path, rawToken string) string {
	return strings.TrimRight(s.config.PublicBaseURL, "/") + path + rawToken
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
