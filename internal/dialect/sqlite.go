package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLite implements Dialect for SQLite via mattn/go-sqlite3.
type SQLite struct{}

func (SQLite) Name() string   { return "sqlite" }
func (SQLite) Driver() string { return "sqlite3" }

func (SQLite) TableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
		table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return count > 0, nil
}

func (SQLite) ColumnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?",
		table, column).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check column %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}

func (SQLite) Columns(ctx context.Context, db *sql.DB, table string) ([]ColumnInfo, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`,
		table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var info ColumnInfo
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&info.Name, &info.Type, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		info.Nullable = notNull == 0 && pk == 0
		info.Default = dflt.String
		cols = append(cols, info)
	}
	return cols, rows.Err()
}

func (d SQLite) AddColumn(table string, col Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, d.columnDef(col))
}

func (d SQLite) CreateTable(table string, cols []Column) string {
	defs := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = d.columnDef(col)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))
}

func (d SQLite) columnDef(col Column) string {
	def := col.Name + " " + d.columnType(col)
	if col.PrimaryKey {
		// SQLite does not imply NOT NULL for non-INTEGER primary keys.
		def += " PRIMARY KEY NOT NULL"
	}
	if col.NotNull && !col.PrimaryKey {
		def += " NOT NULL"
	}
	if col.Default != "" {
		def += " DEFAULT " + col.Default
	}
	return def
}

func (SQLite) columnType(col Column) string {
	// SQLite keeps declared type names verbatim, so the introspection report
	// shows the same names Postgres would use.
	switch col.Type {
	case TypeString:
		return fmt.Sprintf("VARCHAR(%d)", col.Size)
	case TypeJSON:
		return "TEXT"
	case TypeDate:
		return "DATE"
	case TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func (SQLite) IsDuplicateObject(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate column name") ||
		strings.Contains(msg, "already exists")
}

func (SQLite) UpsertSetting() string {
	return `
INSERT INTO settings (key, value, updated_at, updated_by)
VALUES (?, ?, CURRENT_TIMESTAMP, ?)
ON CONFLICT (key) DO UPDATE
SET value = excluded.value, updated_at = CURRENT_TIMESTAMP, updated_by = excluded.updated_by
`
}

func (SQLite) SelectSetting() string {
	return "SELECT key, value, updated_at, updated_by FROM settings WHERE key = ?"
}

func (SQLite) ListSettings() string {
	return "SELECT key, value, updated_at, updated_by FROM settings ORDER BY key"
}
