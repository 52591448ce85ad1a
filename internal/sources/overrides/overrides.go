// Package overrides reads manually entered cleaning overrides from the
// overrides table of the tabular store.
package overrides

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
	"github.com/agentstation/staymap/pkg/overrides"
	"github.com/agentstation/staymap/pkg/sources"
	"github.com/agentstation/staymap/pkg/store"
	"github.com/agentstation/staymap/pkg/units"
)

// Column names of the overrides table.
const (
	FieldUnitID       = "unit_id"
	FieldUnitName     = "unit_name"
	FieldManualStatus = "manual_status"
	FieldReason       = "reason"
	FieldCreatedAt    = "created_at"
	FieldUpdatedAt    = "updated_at"
)

// Reader lists overrides from a store table.
type Reader struct {
	store store.Store
	table string
}

var _ sources.OverrideReader = (*Reader)(nil)

// New creates a reader over table.
func New(st store.Store, table string) *Reader {
	return &Reader{store: st, table: table}
}

// Overrides returns every row that names a unit. Rows with an unknown
// status are kept with an empty status, so they never block.
func (r *Reader) Overrides(ctx context.Context) ([]overrides.Override, error) {
	ctx = logging.WithSource(ctx, sources.Overrides.String())
	logger := logging.FromContext(ctx)

	rows, err := r.store.List(ctx, r.table)
	if err != nil {
		return nil, errors.NewFetchError(sources.Overrides.String(), r.table, err)
	}

	out := make([]overrides.Override, 0, len(rows))
	for _, row := range rows {
		o := FromRecord(row)
		if o.UnitID == "" && o.UnitName == "" {
			logger.Debug().Str("record_id", row.ID).Msg("Override row names no unit")
			continue
		}
		if raw := row.Fields.String(FieldManualStatus); raw != "" && o.ManualStatus == "" {
			logger.Warn().Str("record_id", row.ID).Str("manual_status", raw).Msg("Unknown override status")
		}
		out = append(out, o)
	}
	return out, nil
}

// FromRecord maps one store row onto an Override.
func FromRecord(rec store.Record) overrides.Override {
	f := rec.Fields
	o := overrides.Override{
		RecordID:  rec.ID,
		UnitID:    units.ID(strings.TrimSpace(stringField(f[FieldUnitID]))),
		UnitName:  strings.TrimSpace(f.String(FieldUnitName)),
		Reason:    f.String(FieldReason),
		CreatedAt: timeField(f[FieldCreatedAt]),
		UpdatedAt: timeField(f[FieldUpdatedAt]),
	}
	if st, err := units.ParseStatus(f.String(FieldManualStatus)); err == nil {
		o.ManualStatus = st
	}
	return o
}

// ToFields maps an Override onto a store row.
func ToFields(o overrides.Override) store.Fields {
	f := store.Fields{
		FieldUnitID:       o.UnitID.String(),
		FieldUnitName:     o.UnitName,
		FieldManualStatus: o.ManualStatus.String(),
		FieldReason:       o.Reason,
	}
	if !o.CreatedAt.IsZero() {
		f[FieldCreatedAt] = o.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !o.UpdatedAt.IsZero() {
		f[FieldUpdatedAt] = o.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return f
}

// stringField accepts IDs stored as text or as numbers.
func stringField(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int, int32, int64:
		return fmt.Sprint(x)
	}
	return ""
}

func timeField(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x.UTC()
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
			if t, err := time.Parse(layout, strings.TrimSpace(x)); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}
