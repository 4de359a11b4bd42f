// Package config reads process configuration from environment
// variables. Defaults are chosen so a bare `go run .` serves the site;
// missing Telegram credentials degrade to skipping the forward step
// rather than failing anything.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const defaultDataURL = "https://raw.githubusercontent.com/noirrs/noirrs/master/data.json"

type Config struct {
	Port string

	TelegramToken  string
	TelegramChatID int64

	// BeaconURL is where the collector posts events; defaults to the
	// process's own /api/track endpoint.
	BeaconURL string

	// GeoDBPath optionally points at a local MaxMind City database,
	// tried ahead of the public lookup services.
	GeoDBPath string

	DataURL      string
	DataCacheTTL time.Duration
	DBPath       string

	AdminUsername string
	AdminPassword string
}

// FromEnv builds the configuration. It never fails: malformed values
// fall back to defaults and the error is left to the caller's logging.
func FromEnv() Config {
	cfg := Config{
		Port:          envOr("PORT", "8080"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		BeaconURL:     os.Getenv("BEACON_URL"),
		GeoDBPath:     os.Getenv("GEO_DB_PATH"),
		DataURL:       envOr("DATA_URL", defaultDataURL),
		DataCacheTTL:  time.Hour,
		DBPath:        envOr("DB_PATH", "portfolio.db"),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.TelegramChatID = id
		}
	}

	if raw := os.Getenv("DATA_CACHE_TTL"); raw != "" {
		if ttl, err := time.ParseDuration(raw); err == nil && ttl > 0 {
			cfg.DataCacheTTL = ttl
		}
	}

	if cfg.BeaconURL == "" {
		cfg.BeaconURL = fmt.Sprintf("http://127.0.0.1:%s/api/track", cfg.Port)
	}
	return cfg
}

// TelegramConfigured reports whether both relay credentials are set.
func (c Config) TelegramConfigured() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
