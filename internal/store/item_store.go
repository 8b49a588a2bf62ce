package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stockroomhq/stockroom/internal/domain"
)

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

const itemColumns = `id, name, sku, description, category_id, attributes, images, files, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*domain.Item, error) {
	item := &domain.Item{}
	var attrs, images, files string
	err := row.Scan(&item.ID, &item.Name, &item.SKU, &item.Description, &item.CategoryID,
		&attrs, &images, &files, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Attributes = []domain.ItemAttribute{}
	item.Images = []string{}
	item.Files = []string{}
	if err := unmarshalJSON(attrs, &item.Attributes); err != nil {
		return nil, fmt.Errorf("item %d: %w", item.ID, err)
	}
	if err := unmarshalJSON(images, &item.Images); err != nil {
		return nil, fmt.Errorf("item %d: %w", item.ID, err)
	}
	if err := unmarshalJSON(files, &item.Files); err != nil {
		return nil, fmt.Errorf("item %d: %w", item.ID, err)
	}
	return item, nil
}

func (s *ItemStore) itemJSON(item *domain.Item) (attrs, images, files string, err error) {
	if attrs, err = marshalJSON(item.Attributes); err != nil {
		return
	}
	if images, err = marshalJSON(item.Images); err != nil {
		return
	}
	files, err = marshalJSON(item.Files)
	return
}

func (s *ItemStore) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	attrs, images, files, err := s.itemJSON(item)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO items (name, sku, description, category_id, attributes, images, files)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, item.Name, item.SKU, item.Description, item.CategoryID, attrs, images, files)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *ItemStore) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM items WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// Search returns one page of items matching the query and the total match
// count. An empty query matches everything; categoryID nil means all
// categories. The match is a case-insensitive substring test on name and sku.
// Search filters items by a case-insensitive name/SKU substring and an
// optional category id set. The caller expands a category subtree into
// categoryIDs; nil means no category filter.
func (s *ItemStore) Search(ctx context.Context, query string, categoryIDs []int64, offset, limit int) ([]*domain.Item, int64, error) {
	var where []string
	var args []any
	if q := strings.TrimSpace(query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)")
		args = append(args, pattern, pattern)
	}
	switch {
	case categoryIDs == nil:
		// no category filter
	case len(categoryIDs) == 0:
		where = append(where, "1 = 0")
	default:
		placeholders := make([]string, len(categoryIDs))
		for i, id := range categoryIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		where = append(where, "category_id IN ("+strings.Join(placeholders, ", ")+")")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+` FROM items`+clause+` ORDER BY name ASC, id ASC LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var items []*domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating items: %w", err)
	}

	return items, total, nil
}

func (s *ItemStore) Update(ctx context.Context, item *domain.Item) error {
	attrs, images, files, err := s.itemJSON(item)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET name = ?, sku = ?, description = ?, category_id = ?, attributes = ?,
		    images = ?, files = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, item.Name, item.SKU, item.Description, item.CategoryID, attrs, images, files, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("item %d: %w", item.ID, ErrNotFound)
	}
	return nil
}

func (s *ItemStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *ItemStore) CountByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM items WHERE category_id = ?
	`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

// ReassignCategory moves every item in fromID to toID (nil clears the
// category).
func (s *ItemStore) ReassignCategory(ctx context.Context, fromID int64, toID *int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE items SET category_id = ?, updated_at = CURRENT_TIMESTAMP WHERE category_id = ?
	`, toID, fromID)
	if err != nil {
		return fmt.Errorf("failed to reassign items: %w", err)
	}
	return nil
}
