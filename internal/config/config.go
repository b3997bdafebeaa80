// Package config loads server configuration from the environment.
package config

import "os"

// Config holds all runtime configuration for the server.
type Config struct {
	// Port the HTTP/WebSocket server listens on.
	Port string
	// Env is the deployment environment; "production" hides debug endpoints.
	Env string
	// DataDir is the root directory for the filesystem blob store.
	DataDir string
	// DatabaseURL selects the Postgres blob store when set.
	DatabaseURL string
	// RedisURL selects the Redis blob store when DatabaseURL is unset.
	RedisURL string
	// JWTSecret signs and verifies session tokens.
	JWTSecret string
}

// Load reads configuration from the environment with defaults.
func Load() *Config {
	return &Config{
		Port:        getenv("PORT", "3000"),
		Env:         getenv("APP_ENV", "development"),
		DataDir:     getenv("DATA_DIR", "./data"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   getenv("JWT_SECRET", "local-dev-secret-change-in-production"),
	}
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
