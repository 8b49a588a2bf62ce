// Package store persists the inventory domain in sqlite. Stores wrap *sql.DB,
// return wrapped errors, and report missing rows as (nil, nil) from GetByID
// lookups; the sentinel errors below cover the cases callers branch on.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrNotFound is returned when a write targets a row that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStaleVersion is returned when an expected-version check fails.
	ErrStaleVersion = errors.New("stale version")
	// ErrDuplicatePair is returned when an item+location pair already exists.
	ErrDuplicatePair = errors.New("inventory record for this item and location already exists")
	// ErrNegativeQuantity is returned when an adjustment would drop a
	// quantity below zero.
	ErrNegativeQuantity = errors.New("quantity must not become negative")
	// ErrUnitMismatch is returned when a location merge would combine records
	// counted in different units.
	ErrUnitMismatch = errors.New("records have different quantity units")
)

// marshalJSON encodes v for a TEXT column. Domain values are always
// marshalable, so failures are programming errors worth surfacing.
func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal json column: %w", err)
	}
	return string(b), nil
}

func unmarshalJSON[T any](raw string, out *T) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to unmarshal json column: %w", err)
	}
	return nil
}

// rollback is a defer helper that swallows sql.ErrTxDone after a commit.
func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Error("failed to roll back transaction", "error", err)
	}
}
