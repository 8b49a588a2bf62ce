package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/stockroomhq/stockroom/internal/domain"
)

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `
	c.id, c.parent_id, c.name, c.description, c.attributes, c.thumbnail,
	c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM items i WHERE i.category_id = c.id) AS items_count`

func scanCategory(row interface{ Scan(...any) error }) (*domain.Category, error) {
	cat := &domain.Category{}
	var attrs string
	err := row.Scan(&cat.ID, &cat.ParentID, &cat.Name, &cat.Description, &attrs,
		&cat.Thumbnail, &cat.CreatedAt, &cat.UpdatedAt, &cat.ItemsCount)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(attrs, &cat.Attributes); err != nil {
		return nil, fmt.Errorf("category %d: %w", cat.ID, err)
	}
	return cat, nil
}

func (s *CategoryStore) Create(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	attrs, err := marshalJSON(cat.Attributes)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (parent_id, name, description, attributes, thumbnail)
		VALUES (?, ?, ?, ?, ?)
	`, cat.ParentID, cat.Name, cat.Description, attrs, cat.Thumbnail)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *CategoryStore) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	cat, err := scanCategory(s.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM categories c WHERE c.id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return cat, nil
}

// List returns every category as a flat list in insertion order; callers build
// trees with the hierarchy package.
func (s *CategoryStore) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+` FROM categories c ORDER BY c.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var cats []*domain.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cats = append(cats, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return cats, nil
}

func (s *CategoryStore) Update(ctx context.Context, cat *domain.Category) error {
	attrs, err := marshalJSON(cat.Attributes)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET parent_id = ?, name = ?, description = ?, attributes = ?, thumbnail = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, cat.ParentID, cat.Name, cat.Description, attrs, cat.Thumbnail, cat.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("category %d: %w", cat.ID, ErrNotFound)
	}
	return nil
}

// Delete removes the category after reparenting its children to newParentID.
func (s *CategoryStore) Delete(ctx context.Context, id int64, newParentID *int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx, `
		UPDATE categories SET parent_id = ?, updated_at = CURRENT_TIMESTAMP WHERE parent_id = ?
	`, newParentID, id); err != nil {
		return fmt.Errorf("failed to reparent child categories: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("category %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
