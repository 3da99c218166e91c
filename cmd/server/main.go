package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"storefront-api/internal/application/interfaces"
	"storefront-api/internal/application/services"
	"storefront-api/internal/config"
	"storefront-api/internal/delivery/handler"
	"storefront-api/internal/infrastructure"
	"storefront-api/internal/infrastructure/db/postgres"
	"storefront-api/internal/logger"
	"storefront-api/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.DBDriver, cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	registry := infrastructure.NewRedisService(cfg.RedisURL, log)
	defer registry.Close()
	healthCheckers := map[string]handler.HealthChecker{"database": sqlDB.PingContext}
	if registry.Enabled() {
		healthCheckers["redis"] = registry.Ping
	} else {
		log.Warn("session registry disabled, sessions stay valid until they expire")
	}

	var publisher interfaces.EventPublisher = infrastructure.NopPublisher{}
	if cfg.NatsURL != "" {
		natsPublisher, err := infrastructure.NewNatsPublisher(cfg.NatsURL, log)
		if err != nil {
			log.Warn("nats unavailable, events disabled", zap.Error(err))
		} else {
			defer natsPublisher.Close()
			publisher = natsPublisher
		}
	}

	var notifier interfaces.Notifier = infrastructure.NewLogNotifier(log)
	if cfg.SendGridAPIKey != "" {
		notifier = infrastructure.NewMailService(cfg.SendGridAPIKey, cfg.EmailSender, cfg.EmailSenderName, log)
	} else {
		log.Info("SENDGRID_API_KEY not set, emails are written to the log")
	}

	var images interfaces.ImageStore = infrastructure.NopImageStore{}
	if cfg.S3Bucket != "" {
		store, err := infrastructure.NewS3ImageStore(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Endpoint)
		if err != nil {
			return fmt.Errorf("init image store: %w", err)
		}
		images = store
	}

	throttle := infrastructure.NewRateLimiter(cfg.ForgotPasswordWindow, cfg.ForgotPasswordMaxRequests)
	defer throttle.Close()

	userService := services.NewUserService(
		postgres.NewUserRepository(db),
		infrastructure.NewBcryptHasher(cfg.BcryptCost),
		infrastructure.NewTokenService(postgres.NewTokenRepository(db)),
		infrastructure.NewSessionService(infrastructure.NewJWTService(cfg.JWTSecret, cfg.SessionTTL), registry, log),
		notifier,
		publisher,
		throttle,
		postgres.NewTransactor(db),
		services.UserServiceConfig{
			VerifyTokenTTL: cfg.VerifyTokenTTL,
			ResetTokenTTL:  cfg.ResetTokenTTL,
			PublicBaseURL:  cfg.PublicBaseURL,
		},
		log,
	)
	productService := services.NewProductService(postgres.NewProductRepository(db), images, publisher, cfg.MaxImageSize, log)

	e := handler.NewRouter(handler.RouterConfig{
		Users:    userService,
		Products: productService,
		Metrics:  metrics.New(),
		RateLimit: &handler.RateLimit{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		TrustedProxies: cfg.TrustedProxyNets(),
		MaxImageSize:   cfg.MaxImageSize,
		HealthCheckers: healthCheckers,
		Log:            log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
