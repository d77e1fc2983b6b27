// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultUserPattern is the username pattern accepted at login.
	DefaultUserPattern = `^[A-Za-z_][A-Za-z0-9\-_]{0,31}$`

	// DefaultMaxOrderCount bounds the per-item quantity of one order
	// form. You can thank the person that ordered 65535 drinks once.
	DefaultMaxOrderCount = 16
)

// Config holds the application configuration.
type Config struct {
	// Addr is the listen address of the web server.
	Addr string

	// DBPath is the SQLite database file.
	DBPath string

	// SessionSecret signs session tokens. Required for the server.
	SessionSecret string

	// SessionTTL is the session lifetime.
	SessionTTL time.Duration

	// UserPattern validates login names.
	UserPattern *regexp.Regexp

	// MaxOrderCount is the maximum per-item quantity a user may request.
	MaxOrderCount int

	// IsProd disables debug conveniences (verbose router logging).
	IsProd bool
}

// Load reads configuration from the environment, consulting a .env file if
// one is present. Unset variables fall back to development defaults; only a
// malformed value is an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:          getEnv("NOODLZ_ADDR", ":8080"),
		DBPath:        getEnv("DB_PATH", "./data/noodlz.db"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    14 * 24 * time.Hour,
		MaxOrderCount: DefaultMaxOrderCount,
		IsProd:        os.Getenv("IS_PROD") == "true",
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = ttl
	}

	if v := os.Getenv("MAX_ORDER_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid MAX_ORDER_COUNT: %q", v)
		}
		cfg.MaxOrderCount = n
	}

	pattern := getEnv("RE_USER", DefaultUserPattern)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid RE_USER: %w", err)
	}
	cfg.UserPattern = re

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
