package db

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?cache=shared&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })
	return db
}

func TestOpenInMemory(t *testing.T) {
	db := openMemDB(t)
	assert.NoError(t, db.Ping())
}

func TestOpenEnablesForeignKeysAndWAL(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk, "foreign_keys pragma must be on")

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", strings.ToLower(mode))
}

func TestOpenCascadesDeletes(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	_, err = db.Exec(`INSERT INTO items (name) VALUES ('Ethanol')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO locations (name) VALUES ('Cabinet A')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO inventory_records (item_id, location_id, quantity, quantity_type) VALUES (1, 1, '5', 'L')`)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM items WHERE id = 1`)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM inventory_records`).Scan(&count))
	assert.Equal(t, 0, count, "deleting an item must cascade to its inventory records")
}

func TestMigrationsApply(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, Migrate(db))

	for _, table := range []string{
		"categories", "locations", "items", "inventory_records",
		"adjustments", "users", "sessions",
	} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, Migrate(db))
	assert.NoError(t, Migrate(db))
}

func TestInventoryPairUnique(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, Migrate(db))

	_, err := db.Exec(`INSERT INTO items (name) VALUES ('Ethanol')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO locations (name) VALUES ('Cabinet A')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO inventory_records (item_id, location_id, quantity, quantity_type) VALUES (1, 1, '5', 'L')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO inventory_records (item_id, location_id, quantity, quantity_type) VALUES (1, 1, '3', 'L')`)
	assert.Error(t, err, "second record for the same item+location must violate the unique index")
}
