// Package attr implements the attribute-schema and attribute-value rules shared
// by categories, items, and inventory records: merge-by-label reconciliation,
// value validation against a declared type, and the materialized form persisted
// on items.
package attr

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/stockroomhq/stockroom/internal/domain"
)

// ReservedHistoryKey is where legacy clients kept adjustment history inside
// record attributes. History lives in its own table here, so the key is
// rejected as a user attribute label.
const ReservedHistoryKey = "__adjustments"

// Merge reconciles two schema lists keyed by label. Existing entries keep
// their position, new labels append at the end. For a label present in both,
// the incoming entry wins for type, but empty incoming options keep the
// previous options so a re-fetch cannot erase user-defined choices.
// Merging a list with itself returns an equal list.
func Merge(existing, incoming []domain.AttributeSchema) []domain.AttributeSchema {
	merged := make([]domain.AttributeSchema, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing))

	for _, s := range existing {
		if i, ok := index[s.Label]; ok {
			merged[i] = s
			continue
		}
		index[s.Label] = len(merged)
		merged = append(merged, s)
	}

	for _, s := range incoming {
		i, ok := index[s.Label]
		if !ok {
			index[s.Label] = len(merged)
			merged = append(merged, s)
			continue
		}
		prev := merged[i]
		prev.Type = s.Type
		if len(s.Options) > 0 {
			prev.Options = s.Options
		}
		merged[i] = prev
	}

	return merged
}

// ValidateSchemas checks that every schema has a label, a known type, unique
// labels, and options where the type demands them.
func ValidateSchemas(schemas []domain.AttributeSchema) error {
	seen := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		if strings.TrimSpace(s.Label) == "" {
			return fmt.Errorf("attribute label must not be empty")
		}
		if s.Label == ReservedHistoryKey {
			return fmt.Errorf("attribute label %q is reserved", s.Label)
		}
		if !s.Type.Valid() {
			return fmt.Errorf("attribute %q: unknown type %q", s.Label, s.Type)
		}
		if s.Type.RequiresOptions() && len(s.Options) == 0 {
			return fmt.Errorf("attribute %q: type %q requires options", s.Label, s.Type)
		}
		if seen[s.Label] {
			return fmt.Errorf("duplicate attribute label %q", s.Label)
		}
		seen[s.Label] = true
	}
	return nil
}

// ValidateValue checks value against the shape schema.Type declares. A nil
// value is always allowed (unset).
func ValidateValue(schema domain.AttributeSchema, value any) error {
	if value == nil {
		return nil
	}
	switch schema.Type {
	case domain.TypeText:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("attribute %q: expected string, got %T", schema.Label, value)
		}
	case domain.TypeNumber, domain.TypePercentage, domain.TypeCurrency:
		switch value.(type) {
		case float64, int, int64, json.Number:
		default:
			return fmt.Errorf("attribute %q: expected number, got %T", schema.Label, value)
		}
	case domain.TypeCheckbox, domain.TypeToggle:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("attribute %q: expected boolean, got %T", schema.Label, value)
		}
	case domain.TypeDate:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("attribute %q: expected date string, got %T", schema.Label, value)
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return fmt.Errorf("attribute %q: invalid date %q", schema.Label, s)
		}
	case domain.TypeDateTime:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("attribute %q: expected datetime string, got %T", schema.Label, value)
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("attribute %q: invalid datetime %q", schema.Label, s)
		}
	case domain.TypeSelect, domain.TypeRadio:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("attribute %q: expected string, got %T", schema.Label, value)
		}
		for _, opt := range schema.Options {
			if s == opt {
				return nil
			}
		}
		return fmt.Errorf("attribute %q: %q is not one of the declared options", schema.Label, s)
	default:
		return fmt.Errorf("attribute %q: unknown type %q", schema.Label, schema.Type)
	}
	return nil
}

// Materialize produces the persisted otherAttributes shape: one record per
// schema, value nil when absent from values.
func Materialize(schemas []domain.AttributeSchema, values map[string]any) []domain.ItemAttribute {
	out := make([]domain.ItemAttribute, 0, len(schemas))
	for _, s := range schemas {
		var v any
		if values != nil {
			v = values[s.Label]
		}
		out = append(out, domain.ItemAttribute{
			Label:   s.Label,
			Type:    s.Type,
			Options: s.Options,
			Value:   v,
		})
	}
	return out
}

// Dematerialize splits a materialized attribute list back into its schema list
// and value mapping. Unset (nil) values are omitted from the mapping, so
// Dematerialize(Materialize(schemas, values)) reproduces schemas and values
// restricted to known labels.
func Dematerialize(attrs []domain.ItemAttribute) ([]domain.AttributeSchema, map[string]any) {
	schemas := make([]domain.AttributeSchema, 0, len(attrs))
	values := make(map[string]any, len(attrs))
	for _, a := range attrs {
		schemas = append(schemas, domain.AttributeSchema{
			Label:   a.Label,
			Type:    a.Type,
			Options: a.Options,
		})
		if a.Value != nil {
			values[a.Label] = a.Value
		}
	}
	return schemas, values
}

// Row is one editable key/value line of a free-form attribute map.
type Row struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ParseRows turns a raw free-form attribute payload into editable rows. It
// accepts a JSON-encoded object or an already-parsed mapping. Anything else,
// including malformed JSON, yields a single empty row rather than an error.
// Rows are ordered by key so the result is stable.
func ParseRows(raw any) []Row {
	var m map[string]any
	switch v := raw.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return []Row{{}}
		}
	case map[string]any:
		m = v
	case map[string]string:
		m = make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
	default:
		return []Row{{}}
	}
	if len(m) == 0 {
		return []Row{{}}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, Row{Key: k, Value: fmt.Sprint(m[k])})
	}
	return rows
}

// SerializeRows collapses rows into a mapping. Keys are trimmed, values are
// not. Rows with an empty trimmed key are dropped. Duplicate keys compare
// case-insensitively after trimming: the last row's value wins, the first
// row's casing is kept.
func SerializeRows(rows []Row) map[string]string {
	out := make(map[string]string)
	casing := make(map[string]string) // lower key -> first-seen casing
	for _, r := range rows {
		key := strings.TrimSpace(r.Key)
		if key == "" {
			continue
		}
		lower := strings.ToLower(key)
		if first, ok := casing[lower]; ok {
			key = first
		} else {
			casing[lower] = key
		}
		out[key] = r.Value
	}
	return out
}

// NormalizeMap canonicalizes a free-form attribute mapping by rounding it
// through the row codec: keys are trimmed, blank keys are dropped, and keys
// that collide case-insensitively collapse to one entry (last value, first-
// seen casing, with rows ordered by key). Values come back as strings, the
// form the row editor works in. The second return lists the collapsed keys
// so callers can log the collision.
func NormalizeMap(raw map[string]any) (map[string]any, []string) {
	rows := ParseRows(raw)
	dups := DuplicateKeys(rows)
	flat := SerializeRows(rows)
	out := make(map[string]any, len(flat))
	for k, v := range flat {
		out[k] = v
	}
	return out, dups
}

// DuplicateKeys returns the keys that collide case-insensitively after
// trimming, in first-seen casing. The collision is advisory only;
// SerializeRows still accepts the rows.
func DuplicateKeys(rows []Row) []string {
	count := make(map[string]int)
	casing := make(map[string]string)
	var order []string
	for _, r := range rows {
		key := strings.TrimSpace(r.Key)
		if key == "" {
			continue
		}
		lower := strings.ToLower(key)
		if _, ok := casing[lower]; !ok {
			casing[lower] = key
			order = append(order, lower)
		}
		count[lower]++
	}
	var dups []string
	for _, lower := range order {
		if count[lower] > 1 {
			dups = append(dups, casing[lower])
		}
	}
	return dups
}
