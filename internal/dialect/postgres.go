package dialect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Postgres error codes for duplicate objects.
const (
	pgDuplicateColumn = "42701"
	pgDuplicateTable  = "42P07"
)

// Postgres implements Dialect for PostgreSQL via lib/pq.
type Postgres struct{}

func (Postgres) Name() string   { return "postgres" }
func (Postgres) Driver() string { return "postgres" }

func (Postgres) TableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM information_schema.tables
WHERE table_schema = current_schema()
AND table_name = $1
`, table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return count > 0, nil
}

func (Postgres) ColumnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM information_schema.columns
WHERE table_schema = current_schema()
AND table_name = $1
AND column_name = $2
`, table, column).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check column %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}

func (Postgres) Columns(ctx context.Context, db *sql.DB, table string) ([]ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, `
SELECT column_name, data_type, is_nullable, column_default
FROM information_schema.columns
WHERE table_schema = current_schema()
AND table_name = $1
ORDER BY ordinal_position
`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var info ColumnInfo
		var nullable string
		var dflt sql.NullString
		if err := rows.Scan(&info.Name, &info.Type, &nullable, &dflt); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		info.Nullable = nullable == "YES"
		info.Default = dflt.String
		cols = append(cols, info)
	}
	return cols, rows.Err()
}

func (d Postgres) AddColumn(table string, col Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, d.columnDef(col))
}

func (d Postgres) CreateTable(table string, cols []Column) string {
	defs := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = d.columnDef(col)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))
}

func (d Postgres) columnDef(col Column) string {
	def := col.Name + " " + d.columnType(col)
	if col.PrimaryKey {
		def += " PRIMARY KEY"
	}
	if col.NotNull && !col.PrimaryKey {
		def += " NOT NULL"
	}
	if col.Default != "" {
		def += " DEFAULT " + col.Default
		if col.Type == TypeJSON {
			def += "::jsonb"
		}
	}
	return def
}

func (Postgres) columnType(col Column) string {
	switch col.Type {
	case TypeString:
		return fmt.Sprintf("VARCHAR(%d)", col.Size)
	case TypeJSON:
		return "JSONB"
	case TypeDate:
		return "DATE"
	case TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func (Postgres) IsDuplicateObject(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == pgDuplicateColumn || string(pqErr.Code) == pgDuplicateTable
}

func (Postgres) UpsertSetting() string {
	return `
INSERT INTO settings (key, value, updated_at, updated_by)
VALUES ($1, $2, CURRENT_TIMESTAMP, $3)
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP, updated_by = EXCLUDED.updated_by
`
}

func (Postgres) SelectSetting() string {
	return "SELECT key, value, updated_at, updated_by FROM settings WHERE key = $1"
}

func (Postgres) ListSettings() string {
	return "SELECT key, value, updated_at, updated_by FROM settings ORDER BY key"
}
