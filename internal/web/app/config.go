package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	SupabaseURL         string        // Required: project URL, e.g. https://abc.supabase.co
	SupabaseAnonKey     string        // Required: public anon key sent as the apikey header
	SupabaseJWTSecret   string        // Optional: HS256 secret for access tokens (legacy projects)
	JWKSEnabled         bool          // Optional: verify ES256/RS256 tokens against the project JWKS (default: false)
	JWKSRefreshInterval time.Duration // Optional: how often the JWKS is re-fetched (default: 10m)
	DatabaseURL         string        // Optional: postgres:// URL, otherwise a SQLite file (default: econest.db)
	CookieSecret        string        // Required: at least 32 bytes, seals the refresh-token cookie
	CookieSecure        bool          // Mark cookies Secure (default: true outside dev)
	ContentFile         string        // Optional: YAML file replacing the embedded site content
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	PendingBudget       time.Duration // How long a guarded page waits before showing the loading page (default: 2s)
	ProvisionTimeout    time.Duration // Upper bound for one profile provisioning attempt (default: 10s)
	HubBuffer           int           // Per-subscriber event buffer of the session hub (default: 16)
}

func LoadConfig() Config {
	env := getEnvOrDefault("ENV", "dev")
	return Config{
		SupabaseURL:         strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseAnonKey:     os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseJWTSecret:   os.Getenv("SUPABASE_JWT_SECRET"),
		JWKSEnabled:         getEnvBoolOrDefault("SUPABASE_JWKS_ENABLED", false),
		JWKSRefreshInterval: getEnvDurationOrDefault("JWKS_REFRESH_INTERVAL", 10*time.Minute),
		DatabaseURL:         getEnvOrDefault("DATABASE_URL", "econest.db"),
		CookieSecret:        os.Getenv("COOKIE_SECRET"),
		CookieSecure:        getEnvBoolOrDefault("COOKIE_SECURE", env != "dev"),
		ContentFile:         os.Getenv("CONTENT_FILE"),
		Env:                 env,
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		PendingBudget:       getEnvDurationOrDefault("GUARD_PENDING_BUDGET", 2*time.Second),
		ProvisionTimeout:    getEnvDurationOrDefault("PROVISION_TIMEOUT", 10*time.Second),
		HubBuffer:           getEnvIntOrDefault("SESSION_HUB_BUFFER", 16),
	}
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.SupabaseURL == "" {
		errs = append(errs, errors.New("SUPABASE_URL is required"))
	}
	if c.SupabaseAnonKey == "" {
		errs = append(errs, errors.New("SUPABASE_ANON_KEY is required"))
	}
	if c.SupabaseJWTSecret == "" && !c.JWKSEnabled {
		errs = append(errs, errors.New("set SUPABASE_JWT_SECRET or SUPABASE_JWKS_ENABLED=true"))
	}
	if len(c.CookieSecret) < 32 {
		errs = append(errs, fmt.Errorf("COOKIE_SECRET must be at least 32 bytes, got %d", len(c.CookieSecret)))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	return errors.Join(errs...)
}

// UsesPostgres is true when DatabaseURL is a Postgres connection string.
func (c Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// Issuer is the iss claim Supabase Auth puts in access tokens.
func (c Config) Issuer() string {
	return c.SupabaseURL + "/auth/v1"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
