package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"storefront-api/internal/application/command"
	"storefront-api/internal/application/interfaces"
	"storefront-api/internal/application/query"
	"storefront-api/internal/domain"
)

type UserHandler struct {
	users interfaces.UserService
}

func NewUserHandler(users interfaces.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Register(c echo.Context) error {
	var registerCommand command.RegisterUserCommand
	if err := bind(c, &registerCommand); err != nil {
		return err
	}

	result, err := h.users.RegisterUser(c.Request().Context(), &registerCommand)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "User registered, check your email to verify the account", result.Result)
}

func (h *UserHandler) ResendVerification(c echo.Context) error {
	var resendCommand command.ResendVerificationCommand
	if err := bind(c, &resendCommand); err != nil {
		return err
	}

	result, err := h.users.ResendVerification(c.Request().Context(), &resendCommand)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, result.Message, nil)
}

func (h *UserHandler) Verify(c echo.Context) error {
	result, err := h.users.VerifyUser(c.Request().Context(), &command.VerifyUserCommand{Token: c.Param("token")})
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Account verified", result.Result)
}

func (h *UserHandler) Login(c echo.Context) error {
	var loginCommand command.LoginUserCommand
	if err := bind(c, &loginCommand); err != nil {
		return err
	}

	result, err := h.users.LoginUser(c.Request().Context(), &loginCommand)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Login successful", result)
}

func (h *UserHandler) GetUsers(c echo.Context) error {
	result, err := h.users.GetUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", result.Result)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	result, err := h.users.GetUser(c.Request().Context(), &query.GetUserQuery{SessionToken: sessionToken(c)})
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", result.Result)
}

func (h *UserHandler) ForgotPassword(c echo.Context) error {
	var forgotCommand command.ForgotPasswordCommand
	if err := bind(c, &forgotCommand); err != nil {
		return err
	}

	result, err := h.users.ForgotPassword(c.Request().Context(), &forgotCommand)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, result.Message, nil)
}

func (h *UserHandler) ResetPassword(c echo.Context) error {
	var resetCommand command.ResetPasswordCommand
	if err := bind(c, &resetCommand); err != nil {
		return err
	}
	resetCommand.Token = c.Param("token")

	result, err := h.users.ResetPassword(c.Request().Context(), &resetCommand)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, result.Message, nil)
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	var changeCommand command.ChangePasswordCommand
	if err := bind(c, &changeCommand); err != nil {
		return err
	}
	changeCommand.SessionToken = sessionToken(c)

	result, err := h.users.ChangePassword(c.Request().Context(), &changeCommand)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, result.Message, nil)
}

// bind decodes the request body; malformed payloads are validation errors.
func bind(c echo.Context, target interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, target); err != nil {
		return fmt.Errorf("%w: malformed request body", domain.ErrValidation)
	}
	return nil
}
