// Package db opens and verifies connections to the target database.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"           // Register Postgres driver
	_ "github.com/mattn/go-sqlite3" // Register SQLite driver
	"github.com/sirupsen/logrus"

	"github.com/ideaboard/schema-migrator/internal/config"
	"github.com/ideaboard/schema-migrator/internal/dialect"
	"github.com/ideaboard/schema-migrator/internal/retry"
)

// Open connects to the database described by cfg and pings it with the
// configured retry schedule. The returned dialect matches the driver.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, dialect.Dialect, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("no database URL configured (set DATABASE_URL or --database-url)")
	}

	d, err := dialect.ForDriver(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}

	conn, err := sql.Open(d.Driver(), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if d.Name() == "sqlite" {
		// SQLite serializes writers; a single connection also keeps an
		// in-memory database from being cloned per connection.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(5)
		conn.SetMaxIdleConns(2)
		conn.SetConnMaxLifetime(time.Hour)
	}

	retryCfg := retry.Config{Attempts: cfg.ConnectAttempts, Delay: cfg.ConnectDelay}
	if err := retry.Do(ctx, retryCfg, "database connection", func() error {
		return conn.PingContext(ctx)
	}); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logrus.WithError(closeErr).Warn("Failed to close database connection after ping error")
		}
		return nil, nil, err
	}

	logrus.WithField("dialect", d.Name()).Info("Connected to database")
	return conn, d, nil
}
