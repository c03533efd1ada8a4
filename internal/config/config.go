package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAccessTTL        = "1h"
	defaultRefreshTTL       = "168h"  // 7 days
	defaultRememberMeTTL    = "720h"  // 30 days
	defaultResetTokenTTL    = "1h"
	defaultVerifyTokenTTL   = "24h"
	defaultResendCooldown   = "5m"
	defaultLockoutWindow    = "15m"
	defaultLockoutThreshold = "5"
	defaultJWTSecret        = "change-me-jwt-secret"
	defaultTokenPepper      = "change-me-token-pepper"
)

// Config holds every runtime knob the service reads from the environment.
// Secrets are kept here and passed into constructors explicitly; business
// logic never reads the environment directly.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	JWTSecret   string
	TokenPepper string

	AccessTTL            time.Duration
	RefreshTTL           time.Duration
	RememberMeRefreshTTL time.Duration
	ResetTokenTTL        time.Duration
	VerifyTokenTTL       time.Duration
	ResendCooldown       time.Duration

	LockoutThreshold int
	LockoutWindow    time.Duration

	RedisAddr string // empty disables the rate limiter
	AMQPURL   string // empty falls back to the console mailer
}

func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", "8080"))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", "authhub.db"))

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.TokenPepper = strings.TrimSpace(getEnv("TOKEN_PEPPER", defaultTokenPepper))

	var err error
	if cfg.AccessTTL, err = parseDurationEnv("ACCESS_TTL", defaultAccessTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = parseDurationEnv("REFRESH_TTL", defaultRefreshTTL); err != nil {
		return nil, err
	}
	if cfg.RememberMeRefreshTTL, err = parseDurationEnv("REMEMBER_ME_REFRESH_TTL", defaultRememberMeTTL); err != nil {
		return nil, err
	}
	if cfg.ResetTokenTTL, err = parseDurationEnv("RESET_TOKEN_TTL", defaultResetTokenTTL); err != nil {
		return nil, err
	}
	if cfg.VerifyTokenTTL, err = parseDurationEnv("VERIFY_TOKEN_TTL", defaultVerifyTokenTTL); err != nil {
		return nil, err
	}
	if cfg.ResendCooldown, err = parseDurationEnv("RESEND_COOLDOWN", defaultResendCooldown); err != nil {
		return nil, err
	}
	if cfg.LockoutWindow, err = parseDurationEnv("LOCKOUT_WINDOW", defaultLockoutWindow); err != nil {
		return nil, err
	}

	threshold := strings.TrimSpace(getEnv("LOCKOUT_THRESHOLD", defaultLockoutThreshold))
	cfg.LockoutThreshold, err = strconv.Atoi(threshold)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCKOUT_THRESHOLD value %q: %w", threshold, err)
	}

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.AMQPURL = strings.TrimSpace(os.Getenv("AMQP_URL"))

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.AccessTTL <= 0 {
		return fmt.Errorf("ACCESS_TTL must be > 0")
	}
	if cfg.RefreshTTL <= 0 {
		return fmt.Errorf("REFRESH_TTL must be > 0")
	}
	if cfg.RememberMeRefreshTTL < cfg.RefreshTTL {
		return fmt.Errorf("REMEMBER_ME_REFRESH_TTL must be >= REFRESH_TTL")
	}
	if cfg.ResetTokenTTL <= 0 {
		return fmt.Errorf("RESET_TOKEN_TTL must be > 0")
	}
	if cfg.VerifyTokenTTL <= 0 {
		return fmt.Errorf("VERIFY_TOKEN_TTL must be > 0")
	}
	if cfg.ResendCooldown <= 0 {
		return fmt.Errorf("RESEND_COOLDOWN must be > 0")
	}
	if cfg.LockoutThreshold <= 0 {
		return fmt.Errorf("LOCKOUT_THRESHOLD must be > 0")
	}
	if cfg.LockoutWindow <= 0 {
		return fmt.Errorf("LOCKOUT_WINDOW must be > 0")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.TokenPepper, defaultTokenPepper) {
			return fmt.Errorf("in prod/release TOKEN_PEPPER must be set and not default")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
