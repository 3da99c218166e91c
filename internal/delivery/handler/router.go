package handler

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"storefront-api/internal/application/interfaces"
	"storefront-api/internal/application/services"
	"storefront-api/internal/metrics"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker func(ctx context.Context) error

type RouterConfig struct {
	Users          interfaces.UserService
	Products       interfaces.ProductService
	Metrics        *metrics.Metrics
	RateLimit      *RateLimit
	TrustedProxies []*net.IPNet
	MaxImageSize   int64
	HealthCheckers map[string]HealthChecker
	Log            *zap.Logger
}

func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(cfg.Log)
	e.IPExtractor = IPExtractor(cfg.TrustedProxies)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(cfg.Log))
	if cfg.Metrics != nil {
		e.Use(Metrics(cfg.Metrics))
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics.Handler()))
	}
	// Multipart bodies carry the image plus a little form overhead.
	e.Use(middleware.BodyLimit(bodyLimit(cfg.MaxImageSize)))

	e.GET("/healthz", healthz(cfg.HealthCheckers))

	api := e.Group("/api/v1")
	if cfg.RateLimit != nil && cfg.RateLimit.RPS > 0 {
		api.Use(RateLimiter(*cfg.RateLimit))
	}

	users := NewUserHandler(cfg.Users)
	auth := BearerAuth(cfg.Users)
	api.POST("/register", users.Register)
	api.POST("/verify/resend", users.ResendVerification)
	api.GET("/verify/user/:token", users.Verify)
	api.POST("/login", users.Login)
	api.GET("/users", users.GetUsers)
	api.GET("/user", users.GetUser, auth)
	api.POST("/forgot/password", users.ForgotPassword)
	api.POST("/reset/password/:token", users.ResetPassword)
	api.POST("/change/password", users.ChangePassword, auth)

	products := NewProductHandler(cfg.Products, cfg.MaxImageSize)
	api.POST("/create/product", products.Create)
	api.GET("/product/:productId", products.Get)
	api.GET("/products", products.List)
	api.PUT("/update/:productId", products.Update)
	api.DELETE("/delete/:productId", products.Delete)

	return e
}

func healthz(checkers map[string]HealthChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		failed := make(map[string]string)
		for name, check := range checkers {
			if err := check(c.Request().Context()); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			return c.JSON(http.StatusServiceUnavailable, Response{
				Status: "error",
				Code:   http.StatusServiceUnavailable,
				Data:   failed,
			})
		}
		return success(c, http.StatusOK, "ok", nil)
	}
}

func bodyLimit(maxImageSize int64) string {
	const overhead = 1 << 20
	if maxImageSize <= 0 {
		maxImageSize = services.DefaultMaxImageSize
	}
	return strconv.FormatInt((maxImageSize+overhead)/1024, 10) + "K"
}
