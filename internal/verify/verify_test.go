package verify

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideaboard/schema-migrator/internal/dialect"
	"github.com/ideaboard/schema-migrator/internal/migrate"
)

func openMigratedDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close() // Ignore error in test
	})

	_, err = db.Exec("CREATE TABLE ideas (id INTEGER PRIMARY KEY, text TEXT NOT NULL)")
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE tasks (id INTEGER PRIMARY KEY, text TEXT NOT NULL)")
	require.NoError(t, err)

	_, err = migrate.New(db, dialect.SQLite{}).Run(context.Background())
	require.NoError(t, err)

	return db
}

func TestInspect_AfterMigration(t *testing.T) {
	db := openMigratedDB(t)

	reports, err := Inspect(context.Background(), db, dialect.SQLite{})
	require.NoError(t, err)
	require.Len(t, reports, 3)

	byTable := map[string]TableReport{}
	for _, r := range reports {
		byTable[r.Table] = r
	}

	require.True(t, byTable["ideas"].Exists)
	ideaCols := map[string]bool{}
	for _, col := range byTable["ideas"].Columns {
		ideaCols[col.Name] = true
	}
	assert.True(t, ideaCols["chat_history"])
	assert.True(t, ideaCols["ai_feedback"])
	assert.True(t, ideaCols["created_by"])

	require.True(t, byTable["tasks"].Exists)
	taskCols := map[string]bool{}
	for _, col := range byTable["tasks"].Columns {
		taskCols[col.Name] = true
	}
	assert.True(t, taskCols["task_owner"])
	assert.True(t, taskCols["due_date"])

	require.True(t, byTable["settings"].Exists)
	require.Len(t, byTable["settings"].Columns, 4)
	assert.Equal(t, "key", byTable["settings"].Columns[0].Name)
	assert.False(t, byTable["settings"].Columns[0].Nullable)
}

func TestInspect_MissingTableReported(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer func() {
		_ = db.Close() // Ignore error in test
	}()

	reports, err := Inspect(context.Background(), db, dialect.SQLite{}, "ideas")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.False(t, reports[0].Exists)
	assert.Empty(t, reports[0].Columns)
}

func TestRender(t *testing.T) {
	db := openMigratedDB(t)

	reports, err := Inspect(context.Background(), db, dialect.SQLite{})
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, Render(&buf, reports))
	out := buf.String()

	assert.Contains(t, out, "table ideas:")
	assert.Contains(t, out, "table tasks:")
	assert.Contains(t, out, "table settings:")
	assert.Contains(t, out, "chat_history")
	assert.Contains(t, out, "task_owner")
	assert.Contains(t, out, "CURRENT_TIMESTAMP")
}

func TestRender_MissingTable(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, Render(&buf, []TableReport{{Table: "ideas", Exists: false}}))
	assert.Contains(t, buf.String(), "table ideas: MISSING")
}
