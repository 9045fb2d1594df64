// Package config loads server settings from the environment, an optional
// .env file, and command-line flags (flags win).
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the server.
type Config struct {
	// Server
	Port        int
	CORSOrigins []string
	Env         string
	LogLevel    zerolog.Level

	// Database
	DBDriver    string
	DBPath      string // sqlite file, ":memory:" allowed
	DatabaseURL string // postgres

	// EPF policy
	AnnualRate     decimal.Decimal
	RatesFile      string // optional rate policy JSON, see factory package
	RejectOverlaps bool

	// RateRefreshInterval reloads stored rates periodically; 0 disables.
	RateRefreshInterval time.Duration

	// Rate limiting per client IP
	RateLimitPerMinute int
	RateLimitBurst     int

	// TrustProxy honours X-Forwarded-For; only safe behind a proxy that sets it.
	TrustProxy bool
}

// IsProduction reports whether console-friendly logging should be off.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables, then applies
// command-line flags from args on top.
func Load(args []string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080")),
		Env:         getEnv("ENV", "development"),
		DBDriver:    getEnv("DB_DRIVER", DriverSQLite),
		DBPath:      getEnv("DB_PATH", "networth.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RatesFile:   getEnv("EPF_RATES_FILE", ""),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}
	if cfg.RejectOverlaps, err = strconv.ParseBool(getEnv("REJECT_OVERLAPS", "true")); err != nil {
		return nil, fmt.Errorf("REJECT_OVERLAPS: %w", err)
	}
	if cfg.TrustProxy, err = strconv.ParseBool(getEnv("TRUST_PROXY", "false")); err != nil {
		return nil, fmt.Errorf("TRUST_PROXY: %w", err)
	}
	if cfg.AnnualRate, err = decimal.NewFromString(getEnv("EPF_ANNUAL_RATE", "8.25")); err != nil {
		return nil, fmt.Errorf("EPF_ANNUAL_RATE: %w", err)
	}
	if cfg.RateRefreshInterval, err = time.ParseDuration(getEnv("RATE_REFRESH_INTERVAL", "0s")); err != nil {
		return nil, fmt.Errorf("RATE_REFRESH_INTERVAL: %w", err)
	}
	if cfg.LogLevel, err = zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (\":memory:\" for in-memory)")
	fs.StringVar(&cfg.DBDriver, "driver", cfg.DBDriver, "Database driver: sqlite or postgres")
	fs.StringVar(&cfg.RatesFile, "rates", cfg.RatesFile, "Rate policy JSON file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.AnnualRate.IsNegative() {
		return fmt.Errorf("EPF_ANNUAL_RATE must not be negative")
	}
	if c.RateRefreshInterval < 0 {
		return fmt.Errorf("RATE_REFRESH_INTERVAL must not be negative")
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
