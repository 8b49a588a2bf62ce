package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AttributeType enumerates the value shapes an attribute definition may declare.
type AttributeType string

const (
	TypeText       AttributeType = "text"
	TypeNumber     AttributeType = "number"
	TypePercentage AttributeType = "percentage"
	TypeCurrency   AttributeType = "currency"
	TypeDate       AttributeType = "date"
	TypeDateTime   AttributeType = "datetime"
	TypeSelect     AttributeType = "select"
	TypeCheckbox   AttributeType = "checkbox"
	TypeRadio      AttributeType = "radio"
	TypeToggle     AttributeType = "toggle"
)

// AttributeTypes lists every valid AttributeType.
var AttributeTypes = []AttributeType{
	TypeText, TypeNumber, TypePercentage, TypeCurrency, TypeDate,
	TypeDateTime, TypeSelect, TypeCheckbox, TypeRadio, TypeToggle,
}

// RequiresOptions reports whether t needs a non-empty options list.
func (t AttributeType) RequiresOptions() bool {
	return t == TypeSelect || t == TypeRadio
}

// Valid reports whether t is one of the declared attribute types.
func (t AttributeType) Valid() bool {
	for _, known := range AttributeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// AttributeSchema is a typed attribute definition. Label is the identity key
// (case-sensitive) within the owning schema set.
type AttributeSchema struct {
	Label   string        `json:"label"`
	Type    AttributeType `json:"type"`
	Options []string      `json:"options,omitempty"`
}

// ItemAttribute is the materialized schema+value record persisted on an item.
type ItemAttribute struct {
	Label   string        `json:"label"`
	Type    AttributeType `json:"type"`
	Options []string      `json:"options,omitempty"`
	Value   any           `json:"value"`
}

type Category struct {
	ID          int64             `json:"id"`
	ParentID    *int64            `json:"parentId"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Attributes  []AttributeSchema `json:"attributes"`
	Thumbnail   string            `json:"thumbnail,omitempty"`
	ItemsCount  int64             `json:"itemsCount"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`

	// Children is derived by hierarchy.Build, never stored.
	Children []*Category `json:"children,omitempty"`
}

type Location struct {
	ID          int64          `json:"id"`
	ParentID    *int64         `json:"parentId"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Address     string         `json:"address,omitempty"`
	Attributes  map[string]any `json:"attributes"`
	ItemsCount  int64          `json:"itemsCount"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`

	Children []*Location `json:"children,omitempty"`
}

type Item struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku,omitempty"`
	Description string          `json:"description,omitempty"`
	CategoryID  *int64          `json:"categoryId"`
	Attributes  []ItemAttribute `json:"otherAttributes"`
	Images      []string        `json:"images"` // index 0 is the primary image
	Files       []string        `json:"files"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// QuantityType enumerates the units an inventory record may be counted in.
type QuantityType string

const (
	UnitKilogram QuantityType = "kg"
	UnitGram     QuantityType = "g"
	UnitLitre    QuantityType = "L"
	UnitMilli    QuantityType = "mL"
	UnitPieces   QuantityType = "pcs"
	UnitBoxes    QuantityType = "boxes"
	UnitUnits    QuantityType = "units"
)

var QuantityTypes = []QuantityType{
	UnitKilogram, UnitGram, UnitLitre, UnitMilli, UnitPieces, UnitBoxes, UnitUnits,
}

func (q QuantityType) Valid() bool {
	for _, known := range QuantityTypes {
		if q == known {
			return true
		}
	}
	return false
}

// InventoryRecord is the quantity of one item at one location. The
// item+location pair is unique. Version increments on every update or
// adjustment and backs the optimistic concurrency check.
type InventoryRecord struct {
	ID           int64           `json:"id"`
	ItemID       int64           `json:"itemId"`
	LocationID   int64           `json:"locationId"`
	Quantity     decimal.Decimal `json:"quantity"`
	QuantityType QuantityType    `json:"quantityType"`
	Attributes   map[string]any  `json:"attributes"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`

	// Adjustments is the append-only history for the record, newest last.
	Adjustments []Adjustment `json:"adjustmentHistory,omitempty"`
}

// Adjustment is one signed quantity change applied to an inventory record.
type Adjustment struct {
	ID        int64           `json:"id"`
	RecordID  int64           `json:"recordId"`
	Delta     decimal.Decimal `json:"delta"`
	Reason    string          `json:"reason,omitempty"`
	CreatedAt time.Time       `json:"timestamp"`
}

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session holds one refresh token. Tokens are rotated on every refresh.
type Session struct {
	ID           int64
	UserID       int64
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}
