// Package dialect abstracts the engine-specific SQL the migrator needs:
// schema introspection, DDL rendering, duplicate-object classification and
// the settings upsert. Postgres is the production engine; SQLite backs local
// runs and tests.
package dialect

import (
	"context"
	"database/sql"
	"fmt"
)

// Type enumerates the column types the schema uses.
type Type int

const (
	TypeText Type = iota
	TypeString
	TypeJSON
	TypeDate
	TypeTimestamp
)

// Column specifies a column to add or create.
type Column struct {
	Name       string
	Type       Type
	Size       int    // character limit for TypeString
	Default    string // SQL literal, e.g. "'[]'" or "CURRENT_TIMESTAMP"; empty means none
	NotNull    bool
	PrimaryKey bool
}

// ColumnInfo is one row of the introspection report.
type ColumnInfo struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
}

// Dialect is the engine-specific surface used by the migrator, the settings
// store and the verification report.
type Dialect interface {
	// Name identifies the dialect ("postgres", "sqlite").
	Name() string
	// Driver is the database/sql driver name to open connections with.
	Driver() string

	TableExists(ctx context.Context, db *sql.DB, table string) (bool, error)
	ColumnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error)
	// Columns lists a table's columns in definition order.
	Columns(ctx context.Context, db *sql.DB, table string) ([]ColumnInfo, error)

	// AddColumn renders an ALTER TABLE ... ADD COLUMN statement.
	AddColumn(table string, col Column) string
	// CreateTable renders a CREATE TABLE statement.
	CreateTable(table string, cols []Column) string

	// IsDuplicateObject reports whether err is the engine's duplicate column
	// or duplicate table condition.
	IsDuplicateObject(err error) bool

	// UpsertSetting is the parameterized insert-or-update statement for the
	// settings table; parameters are key, value, updated_by.
	UpsertSetting() string
	// SelectSetting selects one settings row by key.
	SelectSetting() string
	// ListSettings selects all settings rows ordered by key.
	ListSettings() string
}

// ForDriver returns the Dialect matching a database/sql driver name.
func ForDriver(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return Postgres{}, nil
	case "sqlite3":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}
