// Package config loads runtime settings for both binaries.
//
// SOURCES, IN ORDER:
//  1. A .env file in the working directory, if present (godotenv never
//     overrides variables that are already set in the process).
//  2. Process environment variables.
//  3. Built-in defaults.
//
// Bad values fail fast: a typo in HTTP_TIMEOUT should stop the CLI at start-up,
// not surface later as a confusing network error.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Client configures the dashboard CLI.
type Client struct {
	APIBaseURL    string        // backend REST root, ends in /api
	MarketBaseURL string        // market data provider root
	StatePath     string        // sqlite file holding the persisted session
	HTTPTimeout   time.Duration // per-request timeout for both upstreams
	LogLevel      slog.Level
}

// Server configures the development backend.
type Server struct {
	Port       int
	DBPath     string
	JWTSecret  string
	TokenTTL   time.Duration
	AdminEmail string // promoted to admin on sign-up; optional
	LogLevel   slog.Level
}

const minSecretLen = 16

// LoadClient reads the CLI configuration.
func LoadClient() (*Client, error) {
	_ = godotenv.Load()

	timeout, err := durationEnv("HTTP_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	level, err := levelEnv("LOG_LEVEL", slog.LevelWarn)
	if err != nil {
		return nil, err
	}

	cfg := &Client{
		APIBaseURL:    strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:3001/api"), "/"),
		MarketBaseURL: strings.TrimRight(getEnv("MARKET_BASE_URL", "https://api.coingecko.com/api/v3"), "/"),
		StatePath:     getEnv("STATE_PATH", "data/client-state.db"),
		HTTPTimeout:   timeout,
		LogLevel:      level,
	}

	for name, raw := range map[string]string{"API_BASE_URL": cfg.APIBaseURL, "MARKET_BASE_URL": cfg.MarketBaseURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("config: %s must be an absolute URL, got %q", name, raw)
		}
	}
	return cfg, nil
}

// LoadServer reads the development backend configuration.
func LoadServer() (*Server, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "3001"))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("config: invalid PORT %q", os.Getenv("PORT"))
	}
	ttl, err := durationEnv("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	level, err := levelEnv("LOG_LEVEL", slog.LevelInfo)
	if err != nil {
		return nil, err
	}

	secret := os.Getenv("JWT_SECRET")
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("config: JWT_SECRET must be at least %d characters", minSecretLen)
	}

	return &Server{
		Port:       port,
		DBPath:     getEnv("DB_PATH", "data/backend.db"),
		JWTSecret:  secret,
		TokenTTL:   ttl,
		AdminEmail: strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		LogLevel:   level,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}

func levelEnv(key string, def slog.Level) (slog.Level, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return lvl, nil
}
