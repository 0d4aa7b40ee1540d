// Package config loads process configuration for the Muse core from the
// environment, following the flat-struct/getEnv convention this repo uses
// throughout.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the core needs to boot: where to find Redis/Postgres
// for the storage contract, the sync loop's tick interval, and the extension
// discovery directory.
type Config struct {
	Environment string

	// Sync loop
	SyncInterval time.Duration

	// Extensions
	ExtensionDir string

	// Storage (backs the extensions collection and the credential store)
	RedisURL    string
	DatabaseURL string

	// CredentialKeyB64 is the 32-byte (base64) key used to encrypt credential
	// payloads at rest. Required outside "development".
	CredentialKeyB64 string

	// CacheRoot is loaded from CACHE_ROOT but no component reads it; the
	// cover-art cache keeps its durable tier in the storage opener's
	// "cover_art" collection.
	CacheRoot string
}

// Load reads configuration from the environment, optionally seeded by a
// local .env file.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		SyncInterval:     getEnvAsDuration("SYNC_INTERVAL", 5*time.Minute),
		ExtensionDir:     getEnv("EXTENSION_DIR", "./extensions"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		CredentialKeyB64: os.Getenv("CREDENTIAL_KEY"),
		CacheRoot:        getEnv("CACHE_ROOT", "./cache"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.SyncInterval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	if c.CredentialKeyB64 == "" && c.Environment != "development" {
		return fmt.Errorf("CREDENTIAL_KEY is required outside development")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return defaultValue
}
