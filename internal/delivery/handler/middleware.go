package handler

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"storefront-api/internal/application/interfaces"
	"storefront-api/internal/metrics"
)

const (
	contextKeyUserID       = "userID"
	contextKeySessionToken = "sessionToken"
)

// RequestLogger writes one structured line per request.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			log.Info("request",
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
			)
			return nil
		}
	}
}

func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.InFlight.Inc()
			defer m.InFlight.Dec()

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.Requests.WithLabelValues(route, method, strconv.Itoa(c.Response().Status)).Inc()
			m.Latency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// RateLimit throttles each client IP with a token bucket.
type RateLimit struct {
	RPS   float64
	Burst int
	// Idle buckets are dropped after this long. Defaults to three minutes.
	ExpiresIn time.Duration
}

func RateLimiter(limit RateLimit) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(limit.RPS),
		Burst:     limit.Burst,
		ExpiresIn: limit.ExpiresIn,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return failure(c, http.StatusForbidden, "could not identify client")
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return failure(c, http.StatusTooManyRequests, "too many requests")
		},
	})
}

// IPExtractor takes the client IP from the connection unless proxies are
// trusted, in which case X-Forwarded-For is honoured only through them.
func IPExtractor(trustedProxies []*net.IPNet) echo.IPExtractor {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect()
	}

	options := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, ipRange := range trustedProxies {
		options = append(options, echo.TrustIPRange(ipRange))
	}
	return echo.ExtractIPFromXFFHeader(options...)
}

// BearerAuth rejects requests without a live session with 401 and stores the
// caller's id and token on the context.
func BearerAuth(users interfaces.UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return failure(c, http.StatusUnauthorized, "missing bearer token")
			}

			userID, err := users.Authenticate(c.Request().Context(), token)
			if err != nil {
				if statusFor(err) == http.StatusInternalServerError {
					return err
				}
				return failure(c, http.StatusUnauthorized, "invalid or expired session")
			}

			c.Set(contextKeyUserID, userID)
			c.Set(contextKeySessionToken, token)
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func sessionToken(c echo.Context) string {
	token, _ := c.Get(contextKeySessionToken).(string)
	return token
}
