package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ideaboard/schema-migrator/internal/dialect"
)

// Change is one additive schema change. Each change probes its own presence,
// so the full list is safe to re-run without a migration ledger.
type Change interface {
	// Name identifies the change in notices and errors, e.g. "ideas.chat_history".
	Name() string
	// Applied reports whether the change is already present in the schema.
	Applied(ctx context.Context, db *sql.DB, d dialect.Dialect) (bool, error)
	// Apply performs the schema change.
	Apply(ctx context.Context, db *sql.DB, d dialect.Dialect) error
}

// ColumnChange adds one column to an existing table. The table itself must
// already exist; a missing table is a fatal error, not a skipped change.
type ColumnChange struct {
	Table  string
	Column dialect.Column
}

func (c ColumnChange) Name() string {
	return c.Table + "." + c.Column.Name
}

func (c ColumnChange) Applied(ctx context.Context, db *sql.DB, d dialect.Dialect) (bool, error) {
	return d.ColumnExists(ctx, db, c.Table, c.Column.Name)
}

func (c ColumnChange) Apply(ctx context.Context, db *sql.DB, d dialect.Dialect) error {
	if _, err := db.ExecContext(ctx, d.AddColumn(c.Table, c.Column)); err != nil {
		return fmt.Errorf("failed to add column %s: %w", c.Name(), err)
	}
	return nil
}

// TableChange creates a new table.
type TableChange struct {
	Table   string
	Columns []dialect.Column
}

func (c TableChange) Name() string {
	return c.Table
}

func (c TableChange) Applied(ctx context.Context, db *sql.DB, d dialect.Dialect) (bool, error) {
	return d.TableExists(ctx, db, c.Table)
}

func (c TableChange) Apply(ctx context.Context, db *sql.DB, d dialect.Dialect) error {
	if _, err := db.ExecContext(ctx, d.CreateTable(c.Table, c.Columns)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", c.Table, err)
	}
	return nil
}

// Changes returns the schema changes in application order: ideas columns,
// then tasks columns, then the settings table.
func Changes() []Change {
	return []Change{
		ColumnChange{Table: "ideas", Column: dialect.Column{
			Name: "chat_history", Type: dialect.TypeJSON, Default: "'[]'",
		}},
		ColumnChange{Table: "ideas", Column: dialect.Column{
			Name: "ai_feedback", Type: dialect.TypeText,
		}},
		ColumnChange{Table: "ideas", Column: dialect.Column{
			Name: "created_by", Type: dialect.TypeString, Size: 255,
		}},
		ColumnChange{Table: "tasks", Column: dialect.Column{
			Name: "task_owner", Type: dialect.TypeString, Size: 255,
		}},
		ColumnChange{Table: "tasks", Column: dialect.Column{
			Name: "due_date", Type: dialect.TypeDate,
		}},
		TableChange{Table: "settings", Columns: []dialect.Column{
			{Name: "key", Type: dialect.TypeString, Size: 100, PrimaryKey: true},
			{Name: "value", Type: dialect.TypeText, NotNull: true},
			{Name: "updated_at", Type: dialect.TypeTimestamp, Default: "CURRENT_TIMESTAMP"},
			{Name: "updated_by", Type: dialect.TypeString, Size: 255},
		}},
	}
}
