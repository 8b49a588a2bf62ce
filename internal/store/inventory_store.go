package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stockroomhq/stockroom/internal/domain"
)

type InventoryStore struct {
	db *sql.DB
}

func NewInventoryStore(db *sql.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

// isUniquePairViolation reports whether err is the sqlite unique-index
// violation for the item+location pair.
func isUniquePairViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const recordColumns = `id, item_id, location_id, quantity, quantity_type, attributes, version, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (*domain.InventoryRecord, error) {
	rec := &domain.InventoryRecord{}
	var quantity, attrs string
	err := row.Scan(&rec.ID, &rec.ItemID, &rec.LocationID, &quantity, &rec.QuantityType,
		&attrs, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if rec.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return nil, fmt.Errorf("record %d: invalid quantity %q: %w", rec.ID, quantity, err)
	}
	rec.Attributes = map[string]any{}
	if err := unmarshalJSON(attrs, &rec.Attributes); err != nil {
		return nil, fmt.Errorf("record %d: %w", rec.ID, err)
	}
	return rec, nil
}

func (s *InventoryStore) Create(ctx context.Context, rec *domain.InventoryRecord) (*domain.InventoryRecord, error) {
	attrs, err := marshalJSON(rec.Attributes)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_records (item_id, location_id, quantity, quantity_type, attributes)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ItemID, rec.LocationID, rec.Quantity.String(), rec.QuantityType, attrs)
	if err != nil {
		if isUniquePairViolation(err) {
			return nil, fmt.Errorf("item %d at location %d: %w", rec.ItemID, rec.LocationID, ErrDuplicatePair)
		}
		return nil, fmt.Errorf("failed to create inventory record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *InventoryStore) GetByID(ctx context.Context, id int64) (*domain.InventoryRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM inventory_records WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory record: %w", err)
	}

	if rec.Adjustments, err = s.listAdjustments(ctx, id); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *InventoryStore) ListByItemID(ctx context.Context, itemID int64) ([]*domain.InventoryRecord, error) {
	recs, err := s.listWhere(ctx, "item_id", itemID)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if rec.Adjustments, err = s.listAdjustments(ctx, rec.ID); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (s *InventoryStore) ListByLocationID(ctx context.Context, locationID int64) ([]*domain.InventoryRecord, error) {
	return s.listWhere(ctx, "location_id", locationID)
}

func (s *InventoryStore) listWhere(ctx context.Context, column string, id int64) ([]*domain.InventoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM inventory_records WHERE `+column+` = ? ORDER BY id ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory records: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var recs []*domain.InventoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory record: %w", err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory records: %w", err)
	}

	return recs, nil
}

func (s *InventoryStore) CountByLocation(ctx context.Context, locationID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM inventory_records WHERE location_id = ?
	`, locationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count inventory records: %w", err)
	}
	return n, nil
}

func (s *InventoryStore) listAdjustments(ctx context.Context, recordID int64) ([]domain.Adjustment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record_id, delta, reason, created_at FROM adjustments
		WHERE record_id = ? ORDER BY id ASC
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustments: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var adjs []domain.Adjustment
	for rows.Next() {
		var a domain.Adjustment
		var delta string
		if err := rows.Scan(&a.ID, &a.RecordID, &delta, &a.Reason, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		if a.Delta, err = decimal.NewFromString(delta); err != nil {
			return nil, fmt.Errorf("adjustment %d: invalid delta %q: %w", a.ID, delta, err)
		}
		adjs = append(adjs, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating adjustments: %w", err)
	}

	return adjs, nil
}

// lockRecord reads a record's quantity and version inside tx and applies the
// optimistic concurrency check.
func lockRecord(ctx context.Context, tx *sql.Tx, id int64, expectedVersion *int64) (decimal.Decimal, int64, error) {
	var quantity string
	var version int64
	err := tx.QueryRowContext(ctx, `
		SELECT quantity, version FROM inventory_records WHERE id = ?
	`, id).Scan(&quantity, &version)
	if err == sql.ErrNoRows {
		return decimal.Zero, 0, fmt.Errorf("inventory record %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to read inventory record: %w", err)
	}

	if expectedVersion != nil && *expectedVersion != version {
		return decimal.Zero, 0, fmt.Errorf("inventory record %d: expected version %d, have %d: %w",
			id, *expectedVersion, version, ErrStaleVersion)
	}

	q, err := decimal.NewFromString(quantity)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("record %d: invalid quantity %q: %w", id, quantity, err)
	}
	return q, version, nil
}

// Update replaces the record's quantity, unit, and attributes, bumping the
// version. expectedVersion nil skips the staleness check.
func (s *InventoryStore) Update(ctx context.Context, id int64, quantity decimal.Decimal, unit domain.QuantityType, attributes map[string]any, expectedVersion *int64) (*domain.InventoryRecord, error) {
	attrs, err := marshalJSON(attributes)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	if _, _, err := lockRecord(ctx, tx, id, expectedVersion); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE inventory_records
		SET quantity = ?, quantity_type = ?, attributes = ?, version = version + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, quantity.String(), unit, attrs, id); err != nil {
		return nil, fmt.Errorf("failed to update inventory record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Adjust applies a signed delta to the record's quantity and appends the
// change to its history, atomically. The resulting quantity must not be
// negative.
func (s *InventoryStore) Adjust(ctx context.Context, id int64, delta decimal.Decimal, reason string, expectedVersion *int64) (*domain.InventoryRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	quantity, _, err := lockRecord(ctx, tx, id, expectedVersion)
	if err != nil {
		return nil, err
	}

	next := quantity.Add(delta)
	if next.IsNegative() {
		return nil, fmt.Errorf("inventory record %d: %s + %s: %w", id, quantity, delta, ErrNegativeQuantity)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE inventory_records
		SET quantity = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, next.String(), id); err != nil {
		return nil, fmt.Errorf("failed to adjust inventory record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO adjustments (record_id, delta, reason) VALUES (?, ?, ?)
	`, id, delta.String(), reason); err != nil {
		return nil, fmt.Errorf("failed to record adjustment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *InventoryStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM inventory_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("inventory record %d: %w", id, ErrNotFound)
	}
	return nil
}

// MoveToLocation moves every record at fromID to toID in one transaction.
// When the target already holds a record for the same item the quantities are
// summed and the source history is re-pointed at the surviving record; a unit
// mismatch aborts the whole move with ErrUnitMismatch.
func (s *InventoryStore) MoveToLocation(ctx context.Context, fromID, toID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	type pending struct {
		id       int64
		itemID   int64
		quantity decimal.Decimal
		unit     domain.QuantityType
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, item_id, quantity, quantity_type FROM inventory_records WHERE location_id = ? ORDER BY id ASC
	`, fromID)
	if err != nil {
		return fmt.Errorf("failed to list source records: %w", err)
	}

	var moves []pending
	for rows.Next() {
		var p pending
		var quantity string
		if err := rows.Scan(&p.id, &p.itemID, &quantity, &p.unit); err != nil {
			if cerr := rows.Close(); cerr != nil {
				slog.Error("failed to close rows", "error", cerr)
			}
			return fmt.Errorf("failed to scan source record: %w", err)
		}
		if p.quantity, err = decimal.NewFromString(quantity); err != nil {
			if cerr := rows.Close(); cerr != nil {
				slog.Error("failed to close rows", "error", cerr)
			}
			return fmt.Errorf("record %d: invalid quantity %q: %w", p.id, quantity, err)
		}
		moves = append(moves, p)
	}
	if cerr := rows.Close(); cerr != nil {
		return fmt.Errorf("failed to close rows: %w", cerr)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating source records: %w", err)
	}

	for _, p := range moves {
		var targetID int64
		var targetQty string
		var targetUnit domain.QuantityType
		err := tx.QueryRowContext(ctx, `
			SELECT id, quantity, quantity_type FROM inventory_records
			WHERE location_id = ? AND item_id = ?
		`, toID, p.itemID).Scan(&targetID, &targetQty, &targetUnit)

		switch {
		case err == sql.ErrNoRows:
			if _, err := tx.ExecContext(ctx, `
				UPDATE inventory_records
				SET location_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
				WHERE id = ?
			`, toID, p.id); err != nil {
				return fmt.Errorf("failed to move record %d: %w", p.id, err)
			}
		case err != nil:
			return fmt.Errorf("failed to read target record: %w", err)
		default:
			if targetUnit != p.unit {
				return fmt.Errorf("item %d: %q vs %q: %w", p.itemID, p.unit, targetUnit, ErrUnitMismatch)
			}
			tq, err := decimal.NewFromString(targetQty)
			if err != nil {
				return fmt.Errorf("record %d: invalid quantity %q: %w", targetID, targetQty, err)
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE inventory_records
				SET quantity = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
				WHERE id = ?
			`, tq.Add(p.quantity).String(), targetID); err != nil {
				return fmt.Errorf("failed to merge record %d: %w", p.id, err)
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE adjustments SET record_id = ? WHERE record_id = ?
			`, targetID, p.id); err != nil {
				return fmt.Errorf("failed to move adjustment history: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO adjustments (record_id, delta, reason) VALUES (?, ?, ?)
			`, targetID, p.quantity.String(), fmt.Sprintf("merged from location %d", fromID)); err != nil {
				return fmt.Errorf("failed to record merge adjustment: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_records WHERE id = ?`, p.id); err != nil {
				return fmt.Errorf("failed to delete merged record %d: %w", p.id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
