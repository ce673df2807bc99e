// ABOUTME: Runtime configuration from environment variables and an optional .env file
// ABOUTME: Resolves the database location, listen address, Redis feed, and default actor
package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

type Config struct {
	DBPath      string
	DatabaseURL string
	Addr        string
	RedisURL    string
	Actor       string
	DisplayPath string
}

// DefaultDBPath is the SQLite file used when nothing else is configured.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "studiocrm", "crm.db")
}

// Load reads .env when present, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("studiocrm: .env not loaded: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		DBPath:      envOr("STUDIOCRM_DB_PATH", DefaultDBPath()),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Addr:        envOr("STUDIOCRM_ADDR", ":8080"),
		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),
		Actor:       envOr("STUDIOCRM_ACTOR", "admin"),
		DisplayPath: strings.TrimSpace(os.Getenv("STUDIOCRM_DISPLAY_CONFIG")),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Backend names the store that Config selects.
func (c Config) Backend() string {
	if c.DatabaseURL != "" {
		return "postgres"
	}
	return "sqlite"
}
