package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full runtime configuration, loaded from the environment.
// Validation failures are fatal at startup; nothing here is re-read per
// request.
type Config struct {
	ListenAddr  string
	PublicHost  string
	Environment string

	SessionTTL             time.Duration
	SessionCleanupInterval time.Duration

	PasswordChangeMaxAttempts int
	PasswordChangeWindow      time.Duration
	RefreshMaxAttempts        int
	RefreshWindow             time.Duration
	RateLimitBackend          string
	RedisAddr                 string

	AuthStoreDriver string
	AuthStoreDSN    string

	InitialAdminUsername string
	InitialAdminPassword string

	JWTIssuer        string
	JWTAudience      string
	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	OTELMetricsEnabled        bool
	OTELTracesEnabled         bool
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELServiceName           string
	OTELEnvironment           string
	OTELMetricsExportInterval time.Duration

	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:  envString("LISTEN_ADDR", ":8090"),
		PublicHost:  envString("PUBLIC_HOST", "localhost"),
		Environment: envString("ENVIRONMENT", "development"),

		SessionTTL:             envDuration("SESSION_TTL", 8*time.Hour),
		SessionCleanupInterval: envDuration("SESSION_CLEANUP_INTERVAL", 10*time.Minute),

		PasswordChangeMaxAttempts: envInt("PASSWORD_CHANGE_MAX_ATTEMPTS", 5),
		PasswordChangeWindow:      envDuration("PASSWORD_CHANGE_WINDOW", time.Minute),
		RefreshMaxAttempts:        envInt("REFRESH_MAX_ATTEMPTS", 10),
		RefreshWindow:             envDuration("REFRESH_WINDOW", time.Minute),
		RateLimitBackend:          envString("RATE_LIMIT_BACKEND", "memory"),
		RedisAddr:                 envString("REDIS_ADDR", "localhost:6379"),

		AuthStoreDriver: envString("AUTH_STORE_DRIVER", "sqlite"),
		AuthStoreDSN:    envString("AUTH_STORE_DSN", "file:authcore.db"),

		InitialAdminUsername: envString("INITIAL_ADMIN_USERNAME", "admin"),
		InitialAdminPassword: envString("INITIAL_ADMIN_PASSWORD", ""),

		JWTIssuer:        envString("JWT_ISSUER", "code-indexer"),
		JWTAudience:      envString("JWT_AUDIENCE", "code-indexer-api"),
		JWTAccessSecret:  envString("JWT_ACCESS_SECRET", ""),
		JWTRefreshSecret: envString("JWT_REFRESH_SECRET", ""),
		AccessTokenTTL:   envDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  envDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		OTELMetricsEnabled:        envBool("OTEL_METRICS_ENABLED", false),
		OTELTracesEnabled:         envBool("OTEL_TRACES_ENABLED", false),
		OTELExporterOTLPEndpoint:  envString("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure:  envBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELServiceName:           envString("OTEL_SERVICE_NAME", "code-indexer-authcore"),
		OTELEnvironment:           envString("OTEL_ENVIRONMENT", "development"),
		OTELMetricsExportInterval: envDuration("OTEL_METRICS_EXPORT_INTERVAL", 15*time.Second),

		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	err := cfg.Validate()
	recordConfigValidationEvent(context.Background(), cfg.Environment, validationOutcome(err), classifyConfigLoadError(err))
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.PasswordChangeMaxAttempts <= 0 || c.RefreshMaxAttempts <= 0 {
		return fmt.Errorf("rate limit attempt budgets must be positive")
	}
	if c.PasswordChangeWindow <= 0 || c.RefreshWindow <= 0 {
		return fmt.Errorf("rate limit windows must be positive")
	}
	switch c.RateLimitBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be memory or redis, got %q", c.RateLimitBackend)
	}
	switch c.AuthStoreDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("AUTH_STORE_DRIVER must be sqlite or postgres, got %q", c.AuthStoreDriver)
	}
	if c.AuthStoreDSN == "" {
		return fmt.Errorf("AUTH_STORE_DSN must not be empty")
	}
	if c.JWTAccessSecret == "" || c.JWTRefreshSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must be set")
	}
	if c.JWTAccessSecret == c.JWTRefreshSecret {
		return fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	return nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return fallback
}

func validationOutcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
