// Package store defines the tabular store the reconciled snapshot is
// written to: named tables of rows with an opaque string ID and a flat
// field map.
package store

import (
	"context"
	"sort"
)

// Fields is a flat field map. Values are strings, numbers, booleans or nil.
type Fields map[string]any

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// String returns the field as a string, or "" when absent or not a string.
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Keys returns the field names, sorted.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Record is one stored row.
type Record struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

// Store is the tabular store contract.
type Store interface {
	// List returns every row of table.
	List(ctx context.Context, table string) ([]Record, error)

	// Create inserts a row and returns it with its assigned ID.
	Create(ctx context.Context, table string, fields Fields) (Record, error)

	// Update replaces the given fields of row id; other fields are kept.
	Update(ctx context.Context, table, id string, fields Fields) (Record, error)

	// Delete removes row id.
	Delete(ctx context.Context, table, id string) error
}
