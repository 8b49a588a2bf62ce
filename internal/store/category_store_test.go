package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroomhq/stockroom/internal/domain"
)

func TestCategoryStoreCreate(t *testing.T) {
	d := openTestDB(t)
	cats := NewCategoryStore(d)
	ctx := context.Background()

	cat, err := cats.Create(ctx, &domain.Category{
		Name:        "Chemicals",
		Description: "Lab chemicals",
		Attributes: []domain.AttributeSchema{
			{Label: "Hazard Level", Type: domain.TypeSelect, Options: []string{"Low", "Medium", "High"}},
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, cat.ID)
	assert.Nil(t, cat.ParentID)
	assert.Equal(t, "Chemicals", cat.Name)
	require.Len(t, cat.Attributes, 1)
	assert.Equal(t, []string{"Low", "Medium", "High"}, cat.Attributes[0].Options)
	assert.Zero(t, cat.ItemsCount)
}

func TestCategoryStoreGetByIDMissing(t *testing.T) {
	d := openTestDB(t)
	cats := NewCategoryStore(d)

	cat, err := cats.GetByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, cat)
}

func TestCategoryStoreListFlat(t *testing.T) {
	d := openTestDB(t)
	cats := NewCategoryStore(d)
	ctx := context.Background()

	root, err := cats.Create(ctx, &domain.Category{Name: "Chemicals"})
	require.NoError(t, err)
	_, err = cats.Create(ctx, &domain.Category{Name: "Acids", ParentID: &root.ID})
	require.NoError(t, err)

	list, err := cats.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Nil(t, list[0].ParentID)
	require.NotNil(t, list[1].ParentID)
	assert.Equal(t, root.ID, *list[1].ParentID)
}

func TestCategoryStoreItemsCount(t *testing.T) {
	d := openTestDB(t)
	cats := NewCategoryStore(d)
	items := NewItemStore(d)
	ctx := context.Background()

	cat, err := cats.Create(ctx, &domain.Category{Name: "Chemicals"})
	require.NoError(t, err)
	_, err = items.Create(ctx, &domain.Item{Name: "Ethanol", CategoryID: &cat.ID})
	require.NoError(t, err)
	_, err = items.Create(ctx, &domain.Item{Name: "Acetone", CategoryID: &cat.ID})
	require.NoError(t, err)

	got, err := cats.GetByID(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ItemsCount)
}

func TestCategoryStoreUpdate(t *testing.T) {
	d := openTestDB(t)
	cats := NewCategoryStore(d)
	ctx := context.Background()

	cat, err := cats.Create(ctx, &domain.Category{Name: "Chemicals"})
	require.NoError(t, err)

	cat.Name = "Solvents"
	cat.Attributes = []domain.AttributeSchema{{Label: "Flammable", Type: domain.TypeToggle}}
	require.NoError(t, cats.Update(ctx, cat))

	got, err := cats.GetByID(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Solvents", got.Name)
	require.Len(t, got.Attributes, 1)
	assert.Equal(t, domain.TypeToggle, got.Attributes[0].Type)
}

func TestCategoryStoreUpdateMissing(t *testing.T) {
	d := openTestDB(t)
	cats := NewCategoryStore(d)

	err := cats.Update(context.Background(), &domain.Category{ID: 42, Name: "Ghost"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCategoryStoreDeleteReparentsChildren(t *testing.T) {
	d := openTestDB(t)
	cats := NewCategoryStore(d)
	ctx := context.Background()

	grand, err := cats.Create(ctx, &domain.Category{Name: "Supplies"})
	require.NoError(t, err)
	parent, err := cats.Create(ctx, &domain.Category{Name: "Chemicals", ParentID: &grand.ID})
	require.NoError(t, err)
	child, err := cats.Create(ctx, &domain.Category{Name: "Acids", ParentID: &parent.ID})
	require.NoError(t, err)

	require.NoError(t, cats.Delete(ctx, parent.ID, parent.ParentID))

	got, err := cats.GetByID(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, grand.ID, *got.ParentID)
}

func TestCategoryStoreDeleteMissing(t *testing.T) {
	d := openTestDB(t)
	cats := NewCategoryStore(d)

	err := cats.Delete(context.Background(), 42, nil)
	assert.True(t, errors.Is(err, ErrNotFound))
}
