// Package overrides models manually entered cleaning overrides. An override
// stays in force until someone clears it; it never expires on its own.
package overrides

import (
	"sort"
	"strings"
	"time"

	"github.com/agentstation/staymap/pkg/units"
)

// Override is a manual status for one unit.
type Override struct {
	RecordID     string       `json:"record_id,omitempty"`
	UnitID       units.ID     `json:"unit_id"`
	UnitName     string       `json:"unit_name,omitempty"`
	ManualStatus units.Status `json:"manual_status"`
	Reason       string       `json:"reason,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Blocks reports whether the override forces the unit to Blocked.
func (o *Override) Blocks() bool {
	return o != nil && o.ManualStatus == units.StatusBlocked
}

// effective is the timestamp used to order overrides for the same unit.
func (o Override) effective() time.Time {
	if o.UpdatedAt.After(o.CreatedAt) {
		return o.UpdatedAt
	}
	return o.CreatedAt
}

// before orders overrides by effective time, then by record ID.
func (o Override) before(other Override) bool {
	ti, tj := o.effective(), other.effective()
	if !ti.Equal(tj) {
		return ti.Before(tj)
	}
	return o.RecordID < other.RecordID
}

// Index keys overrides by unit.
type Index struct {
	byID   map[units.ID]Override
	byName map[string]Override
}

// Latest returns an Index holding, for each unit, the most recently updated
// override. Ties keep the override with the greater record ID so the
// result does not depend on input order.
func Latest(list []Override) *Index {
	sorted := append([]Override(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].before(sorted[j])
	})

	idx := &Index{byID: map[units.ID]Override{}, byName: map[string]Override{}}
	for _, o := range sorted {
		if o.UnitID != "" {
			idx.byID[o.UnitID] = o
		}
		if name := nameKey(o.UnitName); name != "" {
			idx.byName[name] = o
		}
	}
	return idx
}

// For returns the effective override for u, or nil. An override keyed by
// unit ID and one keyed by unit name compete on recency like any other pair.
func (idx *Index) For(u units.Unit) *Override {
	if idx == nil {
		return nil
	}
	byID, okID := idx.byID[u.ID]
	byName, okName := idx.byName[nameKey(u.Name)]
	switch {
	case okID && okName:
		if byID.before(byName) {
			return &byName
		}
		return &byID
	case okID:
		return &byID
	case okName:
		return &byName
	}
	return nil
}

func nameKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
