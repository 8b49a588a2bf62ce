package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroomhq/stockroom/internal/domain"
)

func seedItemAndLocation(t *testing.T, d *sql.DB) (*domain.Item, *domain.Location) {
	t.Helper()
	ctx := context.Background()

	item, err := NewItemStore(d).Create(ctx, &domain.Item{Name: "Ethanol"})
	require.NoError(t, err)
	loc, err := NewLocationStore(d).Create(ctx, &domain.Location{Name: "Cabinet A"})
	require.NoError(t, err)
	return item, loc
}

func newRecord(itemID, locationID int64, quantity string, unit domain.QuantityType) *domain.InventoryRecord {
	return &domain.InventoryRecord{
		ItemID:       itemID,
		LocationID:   locationID,
		Quantity:     decimal.RequireFromString(quantity),
		QuantityType: unit,
	}
}

func TestInventoryStoreCreate(t *testing.T) {
	d := openTestDB(t)
	inv := NewInventoryStore(d)
	ctx := context.Background()
	item, loc := seedItemAndLocation(t, d)

	rec, err := inv.Create(ctx, newRecord(item.ID, loc.ID, "50", domain.UnitPieces))
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, domain.UnitPieces, rec.QuantityType)
	assert.Equal(t, int64(1), rec.Version)
	assert.Empty(t, rec.Adjustments)
}

func TestInventoryStoreDuplicatePair(t *testing.T) {
	d := openTestDB(t)
	inv := NewInventoryStore(d)
	ctx := context.Background()
	item, loc := seedItemAndLocation(t, d)

	_, err := inv.Create(ctx, newRecord(item.ID, loc.ID, "5", domain.UnitLitre))
	require.NoError(t, err)

	_, err = inv.Create(ctx, newRecord(item.ID, loc.ID, "3", domain.UnitLitre))
	assert.True(t, errors.Is(err, ErrDuplicatePair))
}

func TestInventoryStoreAdjust(t *testing.T) {
	d := openTestDB(t)
	inv := NewInventoryStore(d)
	ctx := context.Background()
	item, loc := seedItemAndLocation(t, d)

	rec, err := inv.Create(ctx, newRecord(item.ID, loc.ID, "50", domain.UnitPieces))
	require.NoError(t, err)

	got, err := inv.Adjust(ctx, rec.ID, decimal.NewFromInt(-10), "used in experiment", nil)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, int64(2), got.Version)
	require.Len(t, got.Adjustments, 1)
	assert.True(t, got.Adjustments[0].Delta.Equal(decimal.NewFromInt(-10)))
	assert.Equal(t, "used in experiment", got.Adjustments[0].Reason)
}

func TestInventoryStoreAdjustHistoryAppends(t *testing.T) {
	d := openTestDB(t)
	inv := NewInventoryStore(d)
	ctx := context.Background()
	item, loc := seedItemAndLocation(t, d)

	rec, err := inv.Create(ctx, newRecord(item.ID, loc.ID, "10", domain.UnitKilogram))
	require.NoError(t, err)

	_, err = inv.Adjust(ctx, rec.ID, decimal.NewFromInt(5), "restock", nil)
	require.NoError(t, err)
	got, err := inv.Adjust(ctx, rec.ID, decimal.NewFromFloat(-2.5), "", nil)
	require.NoError(t, err)

	assert.True(t, got.Quantity.Equal(decimal.RequireFromString("12.5")))
	require.Len(t, got.Adjustments, 2)
	assert.True(t, got.Adjustments[0].Delta.Equal(decimal.NewFromInt(5)))
	assert.True(t, got.Adjustments[1].Delta.Equal(decimal.RequireFromString("-2.5")))
}

func TestInventoryStoreAdjustRejectsNegativeResult(t *testing.T) {
	d := openTestDB(t)
	inv := NewInventoryStore(d)
	ctx := context.Background()
	item, loc := seedItemAndLocation(t, d)

	rec, err := inv.Create(ctx, newRecord(item.ID, loc.ID, "3", domain.UnitPieces))
	require.NoError(t, err)

	_, err = inv.Adjust(ctx, rec.ID, decimal.NewFromInt(-4), "", nil)
	assert.True(t, errors.Is(err, ErrNegativeQuantity))

	// Quantity and history untouched after the failed adjustment.
	got, err := inv.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(3)))
	assert.Empty(t, got.Adjustments)
}

func TestInventoryStoreAdjustStaleVersion(t *testing.T) {
	d := openTestDB(t)
	inv := NewInventoryStore(d)
	ctx := context.Background()
	item, loc := seedItemAndLocation(t, d)

	rec, err := inv.Create(ctx, newRecord(item.ID, loc.ID, "10", domain.UnitPieces))
	require.NoError(t, err)

	_, err = inv.Adjust(ctx, rec.ID, decimal.NewFromInt(1), "", ptr(rec.Version))
	require.NoError(t, err)

	// Same expected version again: the first adjustment bumped it.
	_, err = inv.Adjust(ctx, rec.ID, decimal.NewFromInt(1), "", ptr(rec.Version))
	assert.True(t, errors.Is(err, ErrStaleVersion))
}

func TestInventoryStoreUpdate(t *testing.T) {
	d := openTestDB(t)
	inv := NewInventoryStore(d)
	ctx := context.Background()
	item, loc := seedItemAndLocation(t, d)

	rec, err := inv.Create(ctx, newRecord(item.ID, loc.ID, "10", domain.UnitPieces))
	require.NoError(t, err)

	got, err := inv.Update(ctx, rec.ID, decimal.NewFromInt(7), domain.UnitBoxes,
		map[string]any{"shelf": "B2"}, ptr(rec.Version))
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, domain.UnitBoxes, got.QuantityType)
	assert.Equal(t, map[string]any{"shelf": "B2"}, got.Attributes)
	assert.Equal(t, int64(2), got.Version)
}

func TestInventoryStoreUpdateStaleVersion(t *testing.T) {
	d := openTestDB(t)
	inv := NewInventoryStore(d)
	ctx := context.Background()
	item, loc := seedItemAndLocation(t, d)

	rec, err := inv.Create(ctx, newRecord(item.ID, loc.ID, "10", domain.UnitPieces))
	require.NoError(t, err)

	stale := rec.Version + 5
	_, err = inv.Update(ctx, rec.ID, decimal.NewFromInt(1), domain.UnitPieces, nil, &stale)
	assert.True(t, errors.Is(err, ErrStaleVersion))
}

func TestInventoryStoreListByItemID(t *testing.T) {
	d := openTestDB(t)
	inv := NewInventoryStore(d)
	locs := NewLocationStore(d)
	ctx := context.Background()
	item, loc := seedItemAndLocation(t, d)

	second, err := locs.Create(ctx, &domain.Location{Name: "Cabinet B"})
	require.NoError(t, err)

	_, err = inv.Create(ctx, newRecord(item.ID, loc.ID, "5", domain.UnitKilogram))
	require.NoError(t, err)
	_, err = inv.Create(ctx, newRecord(item.ID, second.ID, "3", domain.UnitKilogram))
	require.NoError(t, err)

	recs, err := inv.ListByItemID(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestInventoryStoreMoveToLocation(t *testing.T) {
	d := openTestDB(t)
	inv := NewInventoryStore(d)
	locs := NewLocationStore(d)
	ctx := context.Background()
	item, from := seedItemAndLocation(t, d)

	to, err := locs.Create(ctx, &domain.Location{Name: "Cabinet B"})
	require.NoError(t, err)

	rec, err := inv.Create(ctx, newRecord(item.ID, from.ID, "5", domain.UnitLitre))
	require.NoError(t, err)

	require.NoError(t, inv.MoveToLocation(ctx, from.ID, to.ID))

	got, err := inv.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, to.ID, got.LocationID)
}

func TestInventoryStoreMoveMergesSameUnit(t *testing.T) {
	d := openTestDB(t)
	inv := NewInventoryStore(d)
	locs := NewLocationStore(d)
	ctx := context.Background()
	item, from := seedItemAndLocation(t, d)

	to, err := locs.Create(ctx, &domain.Location{Name: "Cabinet B"})
	require.NoError(t, err)

	_, err = inv.Create(ctx, newRecord(item.ID, from.ID, "5", domain.UnitLitre))
	require.NoError(t, err)
	target, err := inv.Create(ctx, newRecord(item.ID, to.ID, "2", domain.UnitLitre))
	require.NoError(t, err)

	require.NoError(t, inv.MoveToLocation(ctx, from.ID, to.ID))

	got, err := inv.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(7)))
	require.Len(t, got.Adjustments, 1)
	assert.True(t, got.Adjustments[0].Delta.Equal(decimal.NewFromInt(5)))

	remaining, err := inv.ListByLocationID(ctx, from.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestInventoryStoreMoveUnitMismatch(t *testing.T) {
	d := openTestDB(t)
	inv := NewInventoryStore(d)
	locs := NewLocationStore(d)
	ctx := context.Background()
	item, from := seedItemAndLocation(t, d)

	to, err := locs.Create(ctx, &domain.Location{Name: "Cabinet B"})
	require.NoError(t, err)

	_, err = inv.Create(ctx, newRecord(item.ID, from.ID, "5", domain.UnitLitre))
	require.NoError(t, err)
	_, err = inv.Create(ctx, newRecord(item.ID, to.ID, "2", domain.UnitKilogram))
	require.NoError(t, err)

	err = inv.MoveToLocation(ctx, from.ID, to.ID)
	assert.True(t, errors.Is(err, ErrUnitMismatch))

	// Nothing moved: the transaction rolled back.
	remaining, err := inv.ListByLocationID(ctx, from.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestInventoryStoreDeleteCascadesHistory(t *testing.T) {
	d := openTestDB(t)
	inv := NewInventoryStore(d)
	ctx := context.Background()
	item, loc := seedItemAndLocation(t, d)

	rec, err := inv.Create(ctx, newRecord(item.ID, loc.ID, "5", domain.UnitPieces))
	require.NoError(t, err)
	_, err = inv.Adjust(ctx, rec.ID, decimal.NewFromInt(1), "", nil)
	require.NoError(t, err)

	require.NoError(t, inv.Delete(ctx, rec.ID))

	var n int64
	require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM adjustments WHERE record_id = ?`, rec.ID).Scan(&n))
	assert.Zero(t, n)
}
