package differ

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/staymap/pkg/store"
)

// KeyFunc returns the natural key of a row. Keys are compared after
// trimming and case-folding.
type KeyFunc func(store.Fields) string

// FieldKey returns a KeyFunc that reads one string field.
func FieldKey(field string) KeyFunc {
	return func(f store.Fields) string {
		return stringify(f[field])
	}
}

// Differ plans table changes.
type Differ interface {
	// Records compares existing rows with the new records.
	Records(existing []store.Record, updated []store.Fields, key KeyFunc) *Changeset
}

type differ struct {
	ignored   map[string]bool
	allFields bool
}

// Option configures a Differ.
type Option func(*differ)

// WithIgnoredFields excludes fields from change detection, e.g. a
// last-synced timestamp that changes every run.
func WithIgnoredFields(fields ...string) Option {
	return func(d *differ) {
		for _, f := range fields {
			d.ignored[f] = true
		}
	}
}

// WithAllFields also treats fields present only on the existing row as
// changes. By default only fields the new record sets are compared, so
// columns maintained by hand in the store are left alone.
func WithAllFields() Option {
	return func(d *differ) {
		d.allFields = true
	}
}

// New creates a Differ.
func New(opts ...Option) Differ {
	d := &differ{ignored: map[string]bool{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Records implements Differ.
func (d *differ) Records(existing []store.Record, updated []store.Fields, key KeyFunc) *Changeset {
	cs := &Changeset{}

	index := make(map[string]store.Record, len(existing))
	for _, rec := range existing {
		k := normalizeKey(key(rec.Fields))
		if _, dup := index[k]; dup || k == "" {
			// duplicates and keyless rows are stale
			cs.Removed = append(cs.Removed, Removal{Key: k, Record: rec})
			continue
		}
		index[k] = rec
	}

	visited := make(map[string]bool, len(updated))
	for _, fields := range updated {
		k := normalizeKey(key(fields))
		if k == "" {
			cs.Invalid = append(cs.Invalid, fields)
			continue
		}
		if visited[k] {
			// a second new record with the same key would fight the first
			cs.Invalid = append(cs.Invalid, fields)
			continue
		}
		visited[k] = true

		rec, ok := index[k]
		if !ok {
			cs.Added = append(cs.Added, Addition{Key: k, Fields: fields})
			continue
		}
		if changes := d.fields(rec.Fields, fields); len(changes) > 0 {
			cs.Updated = append(cs.Updated, Update{Key: k, Existing: rec, New: fields, Changes: changes})
		} else {
			cs.Unchanged = append(cs.Unchanged, k)
		}
	}

	for k, rec := range index {
		if !visited[k] {
			cs.Removed = append(cs.Removed, Removal{Key: k, Record: rec})
		}
	}

	cs.finalize()
	return cs
}

func (d *differ) fields(existing, updated store.Fields) []FieldChange {
	var changes []FieldChange
	for _, name := range updated.Keys() {
		if d.ignored[name] {
			continue
		}
		if !Equal(existing[name], updated[name]) {
			changes = append(changes, FieldChange{Field: name, OldValue: existing[name], NewValue: updated[name]})
		}
	}
	if d.allFields {
		for _, name := range existing.Keys() {
			if _, ok := updated[name]; ok || d.ignored[name] {
				continue
			}
			if Normalize(existing[name]) != nil {
				changes = append(changes, FieldChange{Field: name, OldValue: existing[name]})
			}
		}
	}
	return changes
}

// Equal compares two field values after normalization.
func Equal(a, b any) bool {
	return reflect.DeepEqual(Normalize(a), Normalize(b))
}

// Normalize maps a field value onto a canonical form so values that went
// through different encoders compare equal: every number becomes float64
// (3, int64(3), 3.0 and json.Number("3") are the same), times become UTC
// RFC 3339 strings, empty strings become nil, and slices become []any.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if x == "" {
			return nil
		}
		return x
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return roundFloat(f)
		}
		return x.String()
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return x.UTC().Format(time.RFC3339)
	case bool:
		return x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return roundFloat(rv.Float())
	case reflect.String:
		return Normalize(rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	}
	return v
}

// roundFloat drops float noise below 1e-9 so 0.1+0.2 equals 0.3.
func roundFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return math.Round(f*1e9) / 1e9
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.Join(strings.Fields(k), " "))
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	}
	if n, ok := Normalize(v).(float64); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}
