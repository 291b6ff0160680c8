// Package verify produces the read-only schema report printed after a
// migration run. It never changes schema state.
package verify

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ideaboard/schema-migrator/internal/dialect"
)

// Tables are the tables the migration touches, in report order.
var Tables = []string{"ideas", "tasks", "settings"}

// TableReport describes one table's columns as the database reports them.
type TableReport struct {
	Table   string
	Exists  bool
	Columns []dialect.ColumnInfo
}

// Inspect lists columns and types for the given tables. A missing table is
// reported with Exists=false rather than failing; the report is for operator
// confirmation only.
func Inspect(ctx context.Context, db *sql.DB, d dialect.Dialect, tables ...string) ([]TableReport, error) {
	if len(tables) == 0 {
		tables = Tables
	}

	reports := make([]TableReport, 0, len(tables))
	for _, table := range tables {
		exists, err := d.TableExists(ctx, db, table)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect %s: %w", table, err)
		}

		report := TableReport{Table: table, Exists: exists}
		if exists {
			cols, err := d.Columns(ctx, db, table)
			if err != nil {
				return nil, fmt.Errorf("failed to inspect %s: %w", table, err)
			}
			report.Columns = cols
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Render writes the reports as aligned text tables.
func Render(w io.Writer, reports []TableReport) error {
	for _, report := range reports {
		if !report.Exists {
			if _, err := fmt.Fprintf(w, "table %s: MISSING\n\n", report.Table); err != nil {
				return err
			}
			continue
		}

		if _, err := fmt.Fprintf(w, "table %s:\n", report.Table); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  COLUMN\tTYPE\tNULLABLE\tDEFAULT")
		for _, col := range report.Columns {
			nullable := "yes"
			if !col.Nullable {
				nullable = "no"
			}
			dflt := col.Default
			if dflt == "" {
				dflt = "-"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", col.Name, col.Type, nullable, dflt)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
