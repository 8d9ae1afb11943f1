// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds everything the server binary needs to start.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"ADDR,default=:8080"`
	// DatabaseURL enables the PostgreSQL store when set; empty runs on the
	// in-memory store.
	DatabaseURL string `env:"DATABASE_URL"`
	// RedisURL enables the render cache when set.
	RedisURL string `env:"REDIS_URL"`
	// RenderCacheTTL bounds staleness of cached page renders.
	RenderCacheTTL time.Duration `env:"RENDER_CACHE_TTL,default=5m"`
	// JWTSecret signs and verifies admin tokens. Empty disables auth.
	JWTSecret string `env:"JWT_SECRET"`
	// CORSAllowedOrigins is the comma-separated origin allowlist.
	CORSAllowedOrigins []string
	// RateLimitPerSecond and RateLimitBurst tune per-caller throttling.
	RateLimitPerSecond int `env:"RATE_LIMIT_PER_SECOND,default=50"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST,default=100"`
	// LogLevel sets the minimum log level (debug, info, warn, error).
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	// Origins are comma-separated; envdecode splits slices on semicolons, so
	// the allowlist is parsed by hand.
	cfg.CORSAllowedOrigins = splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	if cfg.RateLimitPerSecond <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_PER_SECOND must be a positive integer")
	}
	if cfg.RateLimitBurst <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_BURST must be a positive integer")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
