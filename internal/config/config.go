// Package config loads the tool's configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for the connection retry loop.
const (
	DefaultConnectAttempts = 5
	DefaultConnectDelay    = 3 * time.Second
)

// Config holds everything needed to reach the target database.
type Config struct {
	// DatabaseURL is the connection string: a postgres:// URL for Postgres,
	// or a file path / :memory: for SQLite.
	DatabaseURL string

	// Driver is the database/sql driver name inferred from DatabaseURL.
	Driver string

	// ConnectAttempts and ConnectDelay control the ping retry loop on startup.
	ConnectAttempts int
	ConnectDelay    time.Duration
}

// FromEnv builds a Config from environment variables. databaseURL overrides
// DATABASE_URL when non-empty (set from the --database-url flag).
func FromEnv(databaseURL string) Config {
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	databaseURL = NormalizeURL(databaseURL)

	cfg := Config{
		DatabaseURL:     databaseURL,
		Driver:          DriverFor(databaseURL),
		ConnectAttempts: DefaultConnectAttempts,
		ConnectDelay:    DefaultConnectDelay,
	}

	if v := os.Getenv("CONNECT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ConnectAttempts = n
		}
	}
	if v := os.Getenv("CONNECT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ConnectDelay = d
		}
	}

	return cfg
}

// NormalizeURL rewrites a postgresql:// scheme to postgres://, which is the
// form the driver accepts. Hosted platforms hand out either spelling.
func NormalizeURL(url string) string {
	if strings.HasPrefix(url, "postgresql://") {
		return "postgres://" + strings.TrimPrefix(url, "postgresql://")
	}
	return url
}

// DriverFor infers the database/sql driver name from the connection string.
// Postgres-style URLs go to lib/pq; both the postgres:// and un-normalized
// postgresql:// spellings are accepted, so callers need not run NormalizeURL
// first. Everything else (file paths, :memory:, file: URLs) is treated as
// SQLite.
func DriverFor(url string) string {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return "postgres"
	}
	return "sqlite3"
}
