package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/stockroomhq/stockroom/internal/attr"
	"github.com/stockroomhq/stockroom/internal/domain"
	"github.com/stockroomhq/stockroom/internal/hierarchy"
)

// itemRepository is the subset of store.ItemStore that ItemService requires.
type itemRepository interface {
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	Search(ctx context.Context, query string, categoryIDs []int64, offset, limit int) ([]*domain.Item, int64, error)
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, id int64) error
}

// itemCategoryRepository is the subset of store.CategoryStore that ItemService requires.
type itemCategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
}

// ItemService owns item CRUD and the attribute seeding rules: an item's
// attribute set is the category schema merged with the item's own attributes,
// so ad hoc fields survive category changes and re-fetches.
type ItemService struct {
	items      itemRepository
	categories itemCategoryRepository
	logger     *slog.Logger
}

func NewItemService(items itemRepository, categories itemCategoryRepository, logger *slog.Logger) *ItemService {
	return &ItemService{items: items, categories: categories, logger: logger}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SearchPage is one page of a filtered item listing.
type SearchPage struct {
	Items    []*domain.Item `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

func (s *ItemService) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if err := s.prepare(ctx, item); err != nil {
		return nil, err
	}
	created, err := s.items.Create(ctx, item)
	if err != nil {
		return nil, err
	}
	s.logger.Info("item created", "item_id", created.ID, "name", created.Name)
	return created, nil
}

func (s *ItemService) Get(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return item, nil
}

func (s *ItemService) Search(ctx context.Context, query string, categoryID *int64, page, pageSize int) (*SearchPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var categoryIDs []int64
	if categoryID != nil {
		ids, err := s.categorySubtreeIDs(ctx, *categoryID)
		if err != nil {
			return nil, err
		}
		categoryIDs = ids
	}

	items, total, err := s.items.Search(ctx, query, categoryIDs, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Item{}
	}
	return &SearchPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// categorySubtreeIDs resolves a category filter to the ids of the category and
// every descendant, so filtering by "Chemicals" also surfaces items filed
// under "Chemicals > Acids".
func (s *ItemService) categorySubtreeIDs(ctx context.Context, categoryID int64) ([]int64, error) {
	flat, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	roots := hierarchy.Build(flat,
		func(c *domain.Category) int64 { return c.ID },
		func(c *domain.Category) *int64 { return c.ParentID },
		func(p, c *domain.Category) { p.Children = append(p.Children, c) },
	)

	var subtree *domain.Category
	for _, f := range hierarchy.Flatten(roots, func(c *domain.Category) []*domain.Category { return c.Children }) {
		if f.Node.ID == categoryID {
			subtree = f.Node
			break
		}
	}
	if subtree == nil {
		return nil, fmt.Errorf("category %d: %w", categoryID, ErrNotFound)
	}

	idSet := hierarchy.CollectIDs([]*domain.Category{subtree},
		func(c *domain.Category) int64 { return c.ID },
		func(c *domain.Category) []*domain.Category { return c.Children },
	)
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *ItemService) Update(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	current, err := s.items.GetByID(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("item %d: %w", item.ID, ErrNotFound)
	}

	if err := s.prepare(ctx, item); err != nil {
		return nil, err
	}
	if err := s.items.Update(ctx, item); err != nil {
		return nil, mapStoreErr(err)
	}
	return s.items.GetByID(ctx, item.ID)
}

func (s *ItemService) Delete(ctx context.Context, id int64) error {
	return mapStoreErr(s.items.Delete(ctx, id))
}

// prepare validates the item and reconciles its attributes with the category
// schema: the category's definitions come first, the item's own definitions
// win on label collision, values are validated against the reconciled schema.
func (s *ItemService) prepare(ctx context.Context, item *domain.Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("item name required: %w", ErrValidation)
	}

	itemSchemas, values := attr.Dematerialize(item.Attributes)
	if err := attr.ValidateSchemas(itemSchemas); err != nil {
		return fmt.Errorf("%v: %w", err, ErrValidation)
	}

	schemas := itemSchemas
	if item.CategoryID != nil {
		cat, err := s.categories.GetByID(ctx, *item.CategoryID)
		if err != nil {
			return err
		}
		if cat == nil {
			return fmt.Errorf("category %d: %w", *item.CategoryID, ErrNotFound)
		}
		schemas = attr.Merge(cat.Attributes, itemSchemas)
	}

	for _, schema := range schemas {
		if err := attr.ValidateValue(schema, values[schema.Label]); err != nil {
			return fmt.Errorf("%v: %w", err, ErrValidation)
		}
	}

	item.Attributes = attr.Materialize(schemas, values)
	if item.Images == nil {
		item.Images = []string{}
	}
	if item.Files == nil {
		item.Files = []string{}
	}
	return nil
}
