// Package settings reads and writes rows of the settings table.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ideaboard/schema-migrator/internal/dialect"
)

// ErrNotFound is returned by Get when no row holds the requested key.
var ErrNotFound = errors.New("setting not found")

// MaxKeyLength matches the VARCHAR(100) primary key of the settings table.
const MaxKeyLength = 100

// Setting is one row of the settings table.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
	UpdatedBy string
}

// Store provides keyed access to the settings table.
type Store struct {
	db      *sql.DB
	dialect dialect.Dialect
}

// NewStore creates a settings store over an open connection.
func NewStore(db *sql.DB, d dialect.Dialect) *Store {
	return &Store{db: db, dialect: d}
}

// Set upserts a setting: colliding keys update the existing row rather than
// erroring. updatedBy may be empty, in which case the actor is recorded as NULL.
func (s *Store) Set(ctx context.Context, key, value, updatedBy string) error {
	if key == "" {
		return fmt.Errorf("setting key must not be empty")
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("setting key exceeds %d characters: %s", MaxKeyLength, key)
	}

	var by sql.NullString
	if updatedBy != "" {
		by = sql.NullString{String: updatedBy, Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, s.dialect.UpsertSetting(), key, value, by); err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", key, err)
	}

	logrus.WithFields(logrus.Fields{"key": key, "updated_by": updatedBy}).Info("Setting written")
	return nil
}

// Get retrieves one setting by key.
func (s *Store) Get(ctx context.Context, key string) (*Setting, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.SelectSetting(), key)
	setting, err := scanSetting(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to query setting %s: %w", key, err)
	}
	return setting, nil
}

// List retrieves all settings ordered by key.
func (s *Store) List(ctx context.Context) ([]*Setting, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.ListSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logrus.WithError(closeErr).Warn("Failed to close database rows")
		}
	}()

	var settings []*Setting
	for rows.Next() {
		setting, err := scanSetting(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, setting)
	}
	return settings, rows.Err()
}

func scanSetting(scan func(dest ...any) error) (*Setting, error) {
	setting := &Setting{}
	var updatedAt sql.NullTime
	var updatedBy sql.NullString
	if err := scan(&setting.Key, &setting.Value, &updatedAt, &updatedBy); err != nil {
		return nil, err
	}
	setting.UpdatedAt = updatedAt.Time
	setting.UpdatedBy = updatedBy.String
	return setting, nil
}
