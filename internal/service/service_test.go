package service

import (
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroomhq/stockroom/internal/db"
	"github.com/stockroomhq/stockroom/internal/store"
)

type testEnv struct {
	catalog   *CatalogService
	items     *ItemService
	inventory *InventoryService
	db        *sql.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	categories := store.NewCategoryStore(d)
	locations := store.NewLocationStore(d)
	items := store.NewItemStore(d)
	inventory := store.NewInventoryStore(d)
	logger := slog.Default()

	return &testEnv{
		catalog:   NewCatalogService(categories, locations, items, inventory, logger),
		items:     NewItemService(items, categories, logger),
		inventory: NewInventoryService(inventory, items, locations, logger),
		db:        d,
	}
}

func ptr(v int64) *int64 { return &v }
