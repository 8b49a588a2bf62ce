package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/stockroomhq/stockroom/internal/domain"
)

type LocationStore struct {
	db *sql.DB
}

func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

const locationColumns = `
	l.id, l.parent_id, l.name, l.description, l.address, l.attributes,
	l.created_at, l.updated_at,
	(SELECT COUNT(DISTINCT r.item_id) FROM inventory_records r WHERE r.location_id = l.id) AS items_count`

func scanLocation(row interface{ Scan(...any) error }) (*domain.Location, error) {
	loc := &domain.Location{}
	var attrs string
	err := row.Scan(&loc.ID, &loc.ParentID, &loc.Name, &loc.Description, &loc.Address,
		&attrs, &loc.CreatedAt, &loc.UpdatedAt, &loc.ItemsCount)
	if err != nil {
		return nil, err
	}
	loc.Attributes = map[string]any{}
	if err := unmarshalJSON(attrs, &loc.Attributes); err != nil {
		return nil, fmt.Errorf("location %d: %w", loc.ID, err)
	}
	return loc, nil
}

func (s *LocationStore) Create(ctx context.Context, loc *domain.Location) (*domain.Location, error) {
	attrs, err := marshalJSON(loc.Attributes)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO locations (parent_id, name, description, address, attributes)
		VALUES (?, ?, ?, ?, ?)
	`, loc.ParentID, loc.Name, loc.Description, loc.Address, attrs)
	if err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *LocationStore) GetByID(ctx context.Context, id int64) (*domain.Location, error) {
	loc, err := scanLocation(s.db.QueryRowContext(ctx, `
		SELECT `+locationColumns+` FROM locations l WHERE l.id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return loc, nil
}

func (s *LocationStore) List(ctx context.Context) ([]*domain.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+locationColumns+` FROM locations l ORDER BY l.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var locs []*domain.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locs = append(locs, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locations: %w", err)
	}

	return locs, nil
}

func (s *LocationStore) Update(ctx context.Context, loc *domain.Location) error {
	attrs, err := marshalJSON(loc.Attributes)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE locations
		SET parent_id = ?, name = ?, description = ?, address = ?, attributes = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, loc.ParentID, loc.Name, loc.Description, loc.Address, attrs, loc.ID)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("location %d: %w", loc.ID, ErrNotFound)
	}
	return nil
}

// Delete removes the location after reparenting its children to newParentID.
// Inventory records still attached cascade away, so callers reassign them
// first when they must survive.
func (s *LocationStore) Delete(ctx context.Context, id int64, newParentID *int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx, `
		UPDATE locations SET parent_id = ?, updated_at = CURRENT_TIMESTAMP WHERE parent_id = ?
	`, newParentID, id); err != nil {
		return fmt.Errorf("failed to reparent child locations: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("location %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
