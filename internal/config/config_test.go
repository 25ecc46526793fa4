package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClient_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("MARKET_BASE_URL", "")
	t.Setenv("HTTP_TIMEOUT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("STATE_PATH", "")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3001/api", cfg.APIBaseURL)
	assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.MarketBaseURL)
	assert.Equal(t, "data/client-state.db", cfg.StatePath)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestLoadClient_Overrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://trad-backend.example.com/api/")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "https://trad-backend.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadClient_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad timeout", "HTTP_TIMEOUT", "soon"},
		{"negative timeout", "HTTP_TIMEOUT", "-1s"},
		{"relative url", "API_BASE_URL", "/api"},
		{"bad level", "LOG_LEVEL", "chatty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadClient()
			assert.Error(t, err)
		})
	}
}

func TestLoadServer(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("ADMIN_EMAIL", " Boss@Example.com ")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "boss@example.com", cfg.AdminEmail)
}

func TestLoadServer_ShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	_, err := LoadServer()
	assert.Error(t, err)
}

func TestLoadServer_BadPort(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("PORT", "99999")

	_, err := LoadServer()
	assert.Error(t, err)
}
