// Package config loads runtime settings from the environment. A .env file,
// when present, is applied first by the caller (see cmd/server).
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`

	DBDriver    string `mapstructure:"DB_DRIVER"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	VerifyTokenTTL time.Duration `mapstructure:"VERIFY_TOKEN_TTL"`
	ResetTokenTTL  time.Duration `mapstructure:"RESET_TOKEN_TTL"`
	BcryptCost     int           `mapstructure:"BCRYPT_COST"`

	RedisURL string `mapstructure:"REDIS_URL"`
	NatsURL  string `mapstructure:"NATS_URL"`

	SendGridAPIKey  string `mapstructure:"SENDGRID_API_KEY"`
	EmailSender     string `mapstructure:"EMAIL_SENDER"`
	EmailSenderName string `mapstructure:"EMAIL_SENDER_NAME"`
	PublicBaseURL   string `mapstructure:"PUBLIC_BASE_URL"`

	ForgotPasswordWindow      time.Duration `mapstructure:"FORGOT_PASSWORD_WINDOW"`
	ForgotPasswordMaxRequests int           `mapstructure:"FORGOT_PASSWORD_MAX_REQUESTS"`
	RateLimitRPS              float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst            int           `mapstructure:"RATE_LIMIT_BURST"`

	// CIDRs of reverse proxies whose X-Forwarded-For is trusted.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`

	S3Bucket     string `mapstructure:"S3_BUCKET"`
	S3Region     string `mapstructure:"S3_REGION"`
	S3Endpoint   string `mapstructure:"S3_ENDPOINT"`
	MaxImageSize int64  `mapstructure:"MAX_IMAGE_SIZE"`

	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var defaults = map[string]interface{}{
	"APP_ENV":                      "development",
	"HTTP_ADDR":                    ":8080",
	"DB_DRIVER":                    "postgres",
	"DATABASE_URL":                 "",
	"JWT_SECRET":                   "",
	"SESSION_TTL":                  "24h",
	"VERIFY_TOKEN_TTL":             "24h",
	"RESET_TOKEN_TTL":              "30m",
	"BCRYPT_COST":                  12,
	"REDIS_URL":                    "",
	"NATS_URL":                     "",
	"SENDGRID_API_KEY":             "",
	"EMAIL_SENDER":                 "",
	"EMAIL_SENDER_NAME":            "Storefront",
	"PUBLIC_BASE_URL":              "http://localhost:8080",
	"FORGOT_PASSWORD_WINDOW":       "1h",
	"FORGOT_PASSWORD_MAX_REQUESTS": 3,
	"RATE_LIMIT_RPS":               20,
	"RATE_LIMIT_BURST":             40,
	"TRUSTED_PROXIES":              []string{},
	"S3_BUCKET":                    "",
	"S3_REGION":                    "us-east-1",
	"S3_ENDPOINT":                  "",
	"MAX_IMAGE_SIZE":               5 << 20,
	"SHUTDOWN_TIMEOUT":             "15s",
}

func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// TrustedProxyNets returns TrustedProxies parsed. Load has already
// rejected malformed entries.
func (c *Config) TrustedProxyNets() []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(c.TrustedProxies))
	for _, cidr := range c.TrustedProxies {
		if _, ipNet, err := net.ParseCIDR(strings.TrimSpace(cidr)); err == nil {
			nets = append(nets, ipNet)
		}
	}
	return nets
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.SessionTTL <= 0 || c.VerifyTokenTTL <= 0 || c.ResetTokenTTL <= 0 {
		return errors.New("SESSION_TTL, VERIFY_TOKEN_TTL and RESET_TOKEN_TTL must be positive")
	}
	if c.ForgotPasswordMaxRequests <= 0 {
		return errors.New("FORGOT_PASSWORD_MAX_REQUESTS must be positive")
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
	}
	return nil
}
