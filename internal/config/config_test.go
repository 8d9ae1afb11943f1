package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 5*time.Minute, cfg.RenderCacheTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 50, cfg.RateLimitPerSecond)
	assert.Equal(t, 100, cfg.RateLimitBurst)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/blocklayer")
	t.Setenv("RENDER_CACHE_TTL", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.com, https://staging.example.com")
	t.Setenv("RATE_LIMIT_PER_SECOND", "10")
	t.Setenv("RATE_LIMIT_BURST", "20")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "postgres://localhost/blocklayer", cfg.DatabaseURL)
	assert.Equal(t, 90*time.Second, cfg.RenderCacheTTL)
	assert.Equal(t, []string{"https://admin.example.com", "https://staging.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 10, cfg.RateLimitPerSecond)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsBadTTL(t *testing.T) {
	t.Setenv("RENDER_CACHE_TTL", "soon")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadRateLimits(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_SECOND", "-1")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("RATE_LIMIT_PER_SECOND", "10")
	t.Setenv("RATE_LIMIT_BURST", "zero")
	_, err = Load()
	require.Error(t, err)
}
