package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stockroomhq/stockroom/internal/attr"
	"github.com/stockroomhq/stockroom/internal/domain"
	"github.com/stockroomhq/stockroom/internal/hierarchy"
	"github.com/stockroomhq/stockroom/internal/store"
)

// categoryRepository is the subset of store.CategoryStore that CatalogService requires.
type categoryRepository interface {
	Create(ctx context.Context, cat *domain.Category) (*domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Update(ctx context.Context, cat *domain.Category) error
	Delete(ctx context.Context, id int64, newParentID *int64) error
}

// locationRepository is the subset of store.LocationStore that CatalogService requires.
type locationRepository interface {
	Create(ctx context.Context, loc *domain.Location) (*domain.Location, error)
	GetByID(ctx context.Context, id int64) (*domain.Location, error)
	List(ctx context.Context) ([]*domain.Location, error)
	Update(ctx context.Context, loc *domain.Location) error
	Delete(ctx context.Context, id int64, newParentID *int64) error
}

// catalogItemRepository is the subset of store.ItemStore that CatalogService requires.
type catalogItemRepository interface {
	CountByCategory(ctx context.Context, categoryID int64) (int64, error)
	ReassignCategory(ctx context.Context, fromID int64, toID *int64) error
}

// catalogInventoryRepository is the subset of store.InventoryStore that CatalogService requires.
type catalogInventoryRepository interface {
	CountByLocation(ctx context.Context, locationID int64) (int64, error)
	MoveToLocation(ctx context.Context, fromID, toID int64) error
}

// CatalogService owns the category and location hierarchies: creation,
// cycle-free reparenting, tree assembly, and delete-with-reassignment.
type CatalogService struct {
	categories categoryRepository
	locations  locationRepository
	items      catalogItemRepository
	inventory  catalogInventoryRepository
	logger     *slog.Logger
}

func NewCatalogService(
	categories categoryRepository,
	locations locationRepository,
	items catalogItemRepository,
	inventory catalogInventoryRepository,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		categories: categories,
		locations:  locations,
		items:      items,
		inventory:  inventory,
		logger:     logger,
	}
}

func (s *CatalogService) CreateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	if strings.TrimSpace(cat.Name) == "" {
		return nil, fmt.Errorf("category name required: %w", ErrValidation)
	}
	if err := attr.ValidateSchemas(cat.Attributes); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrValidation)
	}
	if cat.ParentID != nil {
		parent, err := s.categories.GetByID(ctx, *cat.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, fmt.Errorf("parent category %d: %w", *cat.ParentID, ErrNotFound)
		}
	}
	return s.categories.Create(ctx, cat)
}

func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	return cat, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

// CategoryTree returns the nested category forest.
func (s *CatalogService) CategoryTree(ctx context.Context) ([]*domain.Category, error) {
	flat, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	return hierarchy.Build(flat,
		func(c *domain.Category) int64 { return c.ID },
		func(c *domain.Category) *int64 { return c.ParentID },
		func(p, c *domain.Category) { p.Children = append(p.Children, c) },
	), nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	if strings.TrimSpace(cat.Name) == "" {
		return nil, fmt.Errorf("category name required: %w", ErrValidation)
	}
	if err := attr.ValidateSchemas(cat.Attributes); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrValidation)
	}

	current, err := s.categories.GetByID(ctx, cat.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("category %d: %w", cat.ID, ErrNotFound)
	}

	if cat.ParentID != nil {
		flat, err := s.categories.List(ctx)
		if err != nil {
			return nil, err
		}
		if err := checkNoCycle(cat.ID, *cat.ParentID, categoryParents(flat)); err != nil {
			return nil, err
		}
	}

	if err := s.categories.Update(ctx, cat); err != nil {
		return nil, mapStoreErr(err)
	}
	return s.categories.GetByID(ctx, cat.ID)
}

// DeleteCategory deletes a category. The category's child categories are
// reparented to its own parent. Items still classified under it must be
// reassigned: when any exist and reassignTo is nil the delete is refused.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64, reassignTo *int64) error {
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cat == nil {
		return fmt.Errorf("category %d: %w", id, ErrNotFound)
	}

	count, err := s.items.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		if reassignTo == nil {
			return fmt.Errorf("category %d has %d items and no reassignment target: %w", id, count, ErrConflict)
		}
		if *reassignTo == id {
			return fmt.Errorf("cannot reassign items to the category being deleted: %w", ErrValidation)
		}
		target, err := s.categories.GetByID(ctx, *reassignTo)
		if err != nil {
			return err
		}
		if target == nil {
			return fmt.Errorf("reassignment category %d: %w", *reassignTo, ErrNotFound)
		}
		if err := s.items.ReassignCategory(ctx, id, reassignTo); err != nil {
			return err
		}
		s.logger.Info("items reassigned", "from_category", id, "to_category", *reassignTo, "count", count)
	}

	return mapStoreErr(s.categories.Delete(ctx, id, cat.ParentID))
}

func (s *CatalogService) CreateLocation(ctx context.Context, loc *domain.Location) (*domain.Location, error) {
	if strings.TrimSpace(loc.Name) == "" {
		return nil, fmt.Errorf("location name required: %w", ErrValidation)
	}
	if loc.ParentID != nil {
		parent, err := s.locations.GetByID(ctx, *loc.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, fmt.Errorf("parent location %d: %w", *loc.ParentID, ErrNotFound)
		}
	}
	loc.Attributes = s.normalizeLocationAttributes(loc.Attributes)
	return s.locations.Create(ctx, loc)
}

// normalizeLocationAttributes canonicalizes a location's free-form annotations
// through the row codec, logging any collapsed duplicate keys.
func (s *CatalogService) normalizeLocationAttributes(attributes map[string]any) map[string]any {
	normalized, dups := attr.NormalizeMap(attributes)
	if len(dups) > 0 {
		s.logger.Warn("collapsed duplicate attribute keys", "keys", dups)
	}
	return normalized
}

func (s *CatalogService) GetLocation(ctx context.Context, id int64) (*domain.Location, error) {
	loc, err := s.locations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("location %d: %w", id, ErrNotFound)
	}
	return loc, nil
}

func (s *CatalogService) ListLocations(ctx context.Context) ([]*domain.Location, error) {
	return s.locations.List(ctx)
}

func (s *CatalogService) LocationTree(ctx context.Context) ([]*domain.Location, error) {
	flat, err := s.locations.List(ctx)
	if err != nil {
		return nil, err
	}
	return hierarchy.Build(flat,
		func(l *domain.Location) int64 { return l.ID },
		func(l *domain.Location) *int64 { return l.ParentID },
		func(p, c *domain.Location) { p.Children = append(p.Children, c) },
	), nil
}

func (s *CatalogService) UpdateLocation(ctx context.Context, loc *domain.Location) (*domain.Location, error) {
	if strings.TrimSpace(loc.Name) == "" {
		return nil, fmt.Errorf("location name required: %w", ErrValidation)
	}

	current, err := s.locations.GetByID(ctx, loc.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("location %d: %w", loc.ID, ErrNotFound)
	}

	if loc.ParentID != nil {
		flat, err := s.locations.List(ctx)
		if err != nil {
			return nil, err
		}
		if err := checkNoCycle(loc.ID, *loc.ParentID, locationParents(flat)); err != nil {
			return nil, err
		}
	}

	loc.Attributes = s.normalizeLocationAttributes(loc.Attributes)
	if err := s.locations.Update(ctx, loc); err != nil {
		return nil, mapStoreErr(err)
	}
	return s.locations.GetByID(ctx, loc.ID)
}

// DeleteLocation deletes a location, reparenting child locations to its
// parent. Inventory records stored there must be moved: without a reassignment
// target the delete is refused while records exist. A move that would merge
// records counted in different units is refused as well.
func (s *CatalogService) DeleteLocation(ctx context.Context, id int64, reassignTo *int64) error {
	loc, err := s.locations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if loc == nil {
		return fmt.Errorf("location %d: %w", id, ErrNotFound)
	}

	count, err := s.inventory.CountByLocation(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		if reassignTo == nil {
			return fmt.Errorf("location %d has %d inventory records and no reassignment target: %w", id, count, ErrConflict)
		}
		if *reassignTo == id {
			return fmt.Errorf("cannot move records to the location being deleted: %w", ErrValidation)
		}
		target, err := s.locations.GetByID(ctx, *reassignTo)
		if err != nil {
			return err
		}
		if target == nil {
			return fmt.Errorf("reassignment location %d: %w", *reassignTo, ErrNotFound)
		}
		if err := s.inventory.MoveToLocation(ctx, id, *reassignTo); err != nil {
			return mapStoreErr(err)
		}
		s.logger.Info("inventory records moved", "from_location", id, "to_location", *reassignTo, "count", count)
	}

	return mapStoreErr(s.locations.Delete(ctx, id, loc.ParentID))
}

func categoryParents(flat []*domain.Category) map[int64]*int64 {
	parents := make(map[int64]*int64, len(flat))
	for _, c := range flat {
		parents[c.ID] = c.ParentID
	}
	return parents
}

func locationParents(flat []*domain.Location) map[int64]*int64 {
	parents := make(map[int64]*int64, len(flat))
	for _, l := range flat {
		parents[l.ID] = l.ParentID
	}
	return parents
}

// checkNoCycle rejects a reparenting of node id under parentID when parentID
// is the node itself or one of its descendants.
func checkNoCycle(id, parentID int64, parents map[int64]*int64) error {
	if parentID == id {
		return fmt.Errorf("node cannot be its own parent: %w", ErrValidation)
	}
	if _, ok := parents[parentID]; !ok {
		return fmt.Errorf("parent %d: %w", parentID, ErrNotFound)
	}
	seen := map[int64]bool{}
	for cursor := &parentID; cursor != nil; cursor = parents[*cursor] {
		if *cursor == id {
			return fmt.Errorf("reparenting would create a cycle: %w", ErrValidation)
		}
		if seen[*cursor] {
			break
		}
		seen[*cursor] = true
	}
	return nil
}

// mapStoreErr translates store sentinels into service sentinels.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%v: %w", err, ErrNotFound)
	case errors.Is(err, store.ErrDuplicatePair), errors.Is(err, store.ErrUnitMismatch):
		return fmt.Errorf("%v: %w", err, ErrConflict)
	case errors.Is(err, store.ErrStaleVersion):
		return fmt.Errorf("%v: %w", err, ErrStaleVersion)
	case errors.Is(err, store.ErrNegativeQuantity):
		return fmt.Errorf("%v: %w", err, ErrValidation)
	default:
		return err
	}
}
