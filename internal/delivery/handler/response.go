package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"storefront-api/internal/domain"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Code    int         `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, Response{
		Status:  "success",
		Message: message,
		Code:    code,
		Data:    data,
	})
}

func failure(c echo.Context, code int, message string) error {
	return c.JSON(code, Response{
		Status:  "error",
		Message: message,
		Code:    code,
	})
}

// statusFor maps the domain error taxonomy onto HTTP status codes. Bad
// credentials are a 400 here; only the bearer middleware answers 401.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrUnverified):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrExpired),
		errors.Is(err, domain.ErrAuth):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders every error that reaches echo in the Response
// envelope. Internal failures are logged and answered with a generic text.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			message := http.StatusText(httpErr.Code)
			if m, ok := httpErr.Message.(string); ok {
				message = m
			}
			_ = failure(c, httpErr.Code, message)
			return
		}

		code := statusFor(err)
		message := err.Error()
		if code == http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			message = "internal server error"
		}
		_ = failure(c, code, message)
	}
}
