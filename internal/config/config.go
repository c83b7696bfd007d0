package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort             = "8080"
	defaultDatabaseURL      = "reservecore.db"
	defaultBusinessTimezone = "UTC"
	defaultHoldTTL          = "30m"
	defaultSweepInterval    = "1m"
	defaultSweepEnabled     = "true"
	defaultLockBackend      = "memory"
	defaultLockTTL          = "10s"
	defaultJWTTTL           = "24h"
	defaultJWTSecret        = "change-me-jwt-secret"
	defaultKafkaTopic       = "resource-holds"
)

const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	BusinessTimezone string

	HoldTTL       time.Duration
	SweepInterval time.Duration
	SweepEnabled  bool

	LockBackend string
	LockTTL     time.Duration
	RedisURL    string

	JWTSecret string
	JWTTTL    time.Duration

	CORSAllowedOrigins []string

	KafkaBrokers []string
	KafkaTopic   string

	OTLPEndpoint string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first without overriding variables already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARN: failed to load .env: %v", err)
	}

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.BusinessTimezone = strings.TrimSpace(getEnv("BUSINESS_TIMEZONE", defaultBusinessTimezone))
	cfg.LockBackend = strings.ToLower(strings.TrimSpace(getEnv("LOCK_BACKEND", defaultLockBackend)))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.CORSAllowedOrigins = parseCSV(os.Getenv("CORS_ALLOWED_ORIGINS"))
	cfg.KafkaBrokers = parseCSV(os.Getenv("KAFKA_BROKERS"))
	cfg.KafkaTopic = strings.TrimSpace(getEnv("KAFKA_TOPIC", defaultKafkaTopic))
	cfg.OTLPEndpoint = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	cfg.SweepEnabled = parseBoolEnv("SWEEP_ENABLED", defaultSweepEnabled)

	var err error
	cfg.HoldTTL, err = parseDurationEnv("HOLD_TTL", defaultHoldTTL)
	if err != nil {
		return nil, err
	}
	cfg.SweepInterval, err = parseDurationEnv("SWEEP_INTERVAL", defaultSweepInterval)
	if err != nil {
		return nil, err
	}
	cfg.LockTTL, err = parseDurationEnv("LOCK_TTL", defaultLockTTL)
	if err != nil {
		return nil, err
	}
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s port=%s tz=%s hold_ttl=%s sweep_interval=%s lock_backend=%s",
		cfg.AppEnv, cfg.Port, cfg.BusinessTimezone, cfg.HoldTTL, cfg.SweepInterval, cfg.LockBackend)

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.HoldTTL <= 0 {
		return fmt.Errorf("HOLD_TTL must be > 0")
	}
	if cfg.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be > 0")
	}
	// Expiry is discovered lazily; a slower sweep leaves capacity phantom-reserved too long.
	if cfg.SweepInterval > cfg.HoldTTL/2 {
		return fmt.Errorf("SWEEP_INTERVAL (%s) must be <= HOLD_TTL/2 (%s)", cfg.SweepInterval, cfg.HoldTTL/2)
	}
	if cfg.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be > 0")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	switch cfg.LockBackend {
	case LockBackendMemory:
	case LockBackendRedis:
		if cfg.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when LOCK_BACKEND=redis")
		}
	default:
		return fmt.Errorf("LOCK_BACKEND must be one of: memory, redis")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.LockBackend == LockBackendMemory {
			return fmt.Errorf("in prod/release LOCK_BACKEND=memory is not allowed; use redis")
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

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func parseCSV(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
