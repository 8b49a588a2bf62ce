package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/stockroomhq/stockroom/internal/attr"
	"github.com/stockroomhq/stockroom/internal/domain"
)

// inventoryRepository is the subset of store.InventoryStore that InventoryService requires.
type inventoryRepository interface {
	Create(ctx context.Context, rec *domain.InventoryRecord) (*domain.InventoryRecord, error)
	GetByID(ctx context.Context, id int64) (*domain.InventoryRecord, error)
	ListByItemID(ctx context.Context, itemID int64) ([]*domain.InventoryRecord, error)
	Update(ctx context.Context, id int64, quantity decimal.Decimal, unit domain.QuantityType, attributes map[string]any, expectedVersion *int64) (*domain.InventoryRecord, error)
	Adjust(ctx context.Context, id int64, delta decimal.Decimal, reason string, expectedVersion *int64) (*domain.InventoryRecord, error)
	Delete(ctx context.Context, id int64) error
}

// inventoryItemRepository is the subset of store.ItemStore that InventoryService requires.
type inventoryItemRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
}

// inventoryLocationRepository is the subset of store.LocationStore that InventoryService requires.
type inventoryLocationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Location, error)
}

// InventoryService owns quantity tracking: one record per item+location,
// absolute updates, signed adjustments with history, and the per-item ledger.
type InventoryService struct {
	inventory inventoryRepository
	items     inventoryItemRepository
	locations inventoryLocationRepository
	logger    *slog.Logger
}

func NewInventoryService(
	inventory inventoryRepository,
	items inventoryItemRepository,
	locations inventoryLocationRepository,
	logger *slog.Logger,
) *InventoryService {
	return &InventoryService{
		inventory: inventory,
		items:     items,
		locations: locations,
		logger:    logger,
	}
}

// Ledger is the derived per-item aggregation of inventory records.
type Ledger struct {
	ItemID  int64                                   `json:"itemId"`
	Records []*domain.InventoryRecord               `json:"records"`
	Totals  map[domain.QuantityType]decimal.Decimal `json:"totals"`
}

// ComputeTotals groups records by unit and sums their quantities. Records with
// zero quantity still contribute.
func ComputeTotals(records []*domain.InventoryRecord) map[domain.QuantityType]decimal.Decimal {
	totals := make(map[domain.QuantityType]decimal.Decimal)
	for _, rec := range records {
		totals[rec.QuantityType] = totals[rec.QuantityType].Add(rec.Quantity)
	}
	return totals
}

// normalizeRecordAttributes canonicalizes the free-form annotations through
// the row codec and rejects the reserved history key. Normalization runs
// first so a padded variant of the reserved key cannot slip past the check.
func (s *InventoryService) normalizeRecordAttributes(attributes map[string]any) (map[string]any, error) {
	normalized, dups := attr.NormalizeMap(attributes)
	if len(dups) > 0 {
		s.logger.Warn("collapsed duplicate attribute keys", "keys", dups)
	}
	if _, ok := normalized[attr.ReservedHistoryKey]; ok {
		return nil, fmt.Errorf("attribute key %q is reserved: %w", attr.ReservedHistoryKey, ErrValidation)
	}
	return normalized, nil
}

func (s *InventoryService) CreateRecord(ctx context.Context, rec *domain.InventoryRecord) (*domain.InventoryRecord, error) {
	if !rec.QuantityType.Valid() {
		return nil, fmt.Errorf("unknown quantity type %q: %w", rec.QuantityType, ErrValidation)
	}
	if rec.Quantity.IsNegative() {
		return nil, fmt.Errorf("quantity must not be negative: %w", ErrValidation)
	}
	attrs, err := s.normalizeRecordAttributes(rec.Attributes)
	if err != nil {
		return nil, err
	}
	rec.Attributes = attrs

	item, err := s.items.GetByID(ctx, rec.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", rec.ItemID, ErrNotFound)
	}
	loc, err := s.locations.GetByID(ctx, rec.LocationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("location %d: %w", rec.LocationID, ErrNotFound)
	}

	created, err := s.inventory.Create(ctx, rec)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	s.logger.Info("inventory record created",
		"record_id", created.ID, "item_id", created.ItemID, "location_id", created.LocationID)
	return created, nil
}

func (s *InventoryService) GetRecord(ctx context.Context, id int64) (*domain.InventoryRecord, error) {
	rec, err := s.inventory.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("inventory record %d: %w", id, ErrNotFound)
	}
	return rec, nil
}

// ItemLedger returns every record for the item together with per-unit totals.
func (s *InventoryService) ItemLedger(ctx context.Context, itemID int64) (*Ledger, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}

	records, err := s.inventory.ListByItemID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*domain.InventoryRecord{}
	}
	return &Ledger{ItemID: itemID, Records: records, Totals: ComputeTotals(records)}, nil
}

// UpdateRecord is the absolute replace, distinct from Adjust. expectedVersion
// nil skips the optimistic concurrency check.
func (s *InventoryService) UpdateRecord(ctx context.Context, id int64, quantity decimal.Decimal, unit domain.QuantityType, attributes map[string]any, expectedVersion *int64) (*domain.InventoryRecord, error) {
	if !unit.Valid() {
		return nil, fmt.Errorf("unknown quantity type %q: %w", unit, ErrValidation)
	}
	if quantity.IsNegative() {
		return nil, fmt.Errorf("quantity must not be negative: %w", ErrValidation)
	}
	attributes, err := s.normalizeRecordAttributes(attributes)
	if err != nil {
		return nil, err
	}

	rec, err := s.inventory.Update(ctx, id, quantity, unit, attributes, expectedVersion)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return rec, nil
}

// Adjust applies a signed delta. A zero delta is rejected before any write.
func (s *InventoryService) Adjust(ctx context.Context, id int64, delta decimal.Decimal, reason string, expectedVersion *int64) (*domain.InventoryRecord, error) {
	if delta.IsZero() {
		return nil, fmt.Errorf("adjustment must not be zero: %w", ErrValidation)
	}

	rec, err := s.inventory.Adjust(ctx, id, delta, reason, expectedVersion)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	s.logger.Info("inventory adjusted",
		"record_id", id, "delta", delta.String(), "quantity", rec.Quantity.String(), "reason", reason)
	return rec, nil
}

func (s *InventoryService) DeleteRecord(ctx context.Context, id int64) error {
	return mapStoreErr(s.inventory.Delete(ctx, id))
}
