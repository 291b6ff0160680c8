package settings

import (
	"context"
	"database/sql"
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

func TestSet_ThenGet(t *testing.T) {
	db := openMigratedDB(t)
	store := NewStore(db, dialect.SQLite{})
	ctx := context.Background()

	err := store.Set(ctx, "site_title", "Ideaboard", "admin")
	require.NoError(t, err)

	setting, err := store.Get(ctx, "site_title")
	require.NoError(t, err)
	assert.Equal(t, "site_title", setting.Key)
	assert.Equal(t, "Ideaboard", setting.Value)
	assert.Equal(t, "admin", setting.UpdatedBy)
	assert.False(t, setting.UpdatedAt.IsZero())
}

func TestSet_CollidingKey_UpsertsSingleRow(t *testing.T) {
	db := openMigratedDB(t)
	store := NewStore(db, dialect.SQLite{})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "site_title", "First", "alice"))
	require.NoError(t, store.Set(ctx, "site_title", "Second", "bob"))

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM settings WHERE key = 'site_title'").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	setting, err := store.Get(ctx, "site_title")
	require.NoError(t, err)
	assert.Equal(t, "Second", setting.Value)
	assert.Equal(t, "bob", setting.UpdatedBy)
}

func TestSet_EmptyActor_StoresNull(t *testing.T) {
	db := openMigratedDB(t)
	store := NewStore(db, dialect.SQLite{})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "maintenance_mode", "off", ""))

	var updatedBy sql.NullString
	err := db.QueryRow("SELECT updated_by FROM settings WHERE key = 'maintenance_mode'").Scan(&updatedBy)
	require.NoError(t, err)
	assert.False(t, updatedBy.Valid)
}

func TestSet_KeyValidation(t *testing.T) {
	db := openMigratedDB(t)
	store := NewStore(db, dialect.SQLite{})
	ctx := context.Background()

	err := store.Set(ctx, "", "value", "")
	assert.Error(t, err)

	long := make([]byte, MaxKeyLength+1)
	for i := range long {
		long[i] = 'k'
	}
	err = store.Set(ctx, string(long), "value", "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 100 characters")
}

func TestSettingsTable_RejectsNullKey(t *testing.T) {
	db := openMigratedDB(t)

	_, err := db.Exec("INSERT INTO settings (key, value) VALUES (NULL, 'orphan')")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT NULL")
}

func TestGet_Missing_ReturnsNotFound(t *testing.T) {
	db := openMigratedDB(t)
	store := NewStore(db, dialect.SQLite{})

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_OrderedByKey(t *testing.T) {
	db := openMigratedDB(t)
	store := NewStore(db, dialect.SQLite{})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "zebra", "z", ""))
	require.NoError(t, store.Set(ctx, "alpha", "a", ""))
	require.NoError(t, store.Set(ctx, "middle", "m", ""))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Key)
	assert.Equal(t, "middle", all[1].Key)
	assert.Equal(t, "zebra", all[2].Key)
}

func TestList_Empty(t *testing.T) {
	db := openMigratedDB(t)
	store := NewStore(db, dialect.SQLite{})

	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
