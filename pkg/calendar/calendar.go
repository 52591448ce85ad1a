// Package calendar models the per-unit availability day reported by the
// calendar feed.
package calendar

import (
	"time"

	"github.com/agentstation/staymap/pkg/units"
)

// Day is the calendar feed's view of one unit on one date.
type Day struct {
	UnitID            units.ID  `json:"unit_id"`
	Date              time.Time `json:"date"`
	ExplicitlyBlocked bool      `json:"explicitly_blocked"`
	BlockedUnitCount  int       `json:"blocked_unit_count"`
	ReservationRefs   []string  `json:"reservation_refs,omitempty"`
	IsAvailable       bool      `json:"is_available"`
}

// IsBlocked reports an owner or maintenance block: either the explicit flag
// or a positive blocked-unit count.
func (d *Day) IsBlocked() bool {
	return d != nil && (d.ExplicitlyBlocked || d.BlockedUnitCount > 0)
}

// ReportsUnavailable reports that the calendar considers the unit taken.
func (d *Day) ReportsUnavailable() bool {
	return d != nil && !d.IsAvailable
}

// References reports whether the calendar links the given reservation.
func (d *Day) References(stayID string) bool {
	if d == nil {
		return false
	}
	for _, ref := range d.ReservationRefs {
		if ref == stayID {
			return true
		}
	}
	return false
}
