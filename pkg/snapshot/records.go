package snapshot

import (
	"github.com/agentstation/staymap/pkg/aggregate"
	"github.com/agentstation/staymap/pkg/differ"
	"github.com/agentstation/staymap/pkg/store"
)

// Field names written to the store.
const (
	FieldName          = "name"
	FieldUnitID        = "unit_id"
	FieldCategory      = "category"
	FieldRegion        = "region"
	FieldStatus        = "status"
	FieldReason        = "reason"
	FieldGuest         = "guest"
	FieldArrival       = "arrival"
	FieldDeparture     = "departure"
	FieldCheckingOut   = "checking_out"
	FieldDegraded      = "degraded"
	FieldAvailable     = "available"
	FieldReserved      = "reserved"
	FieldBlocked       = "blocked"
	FieldTotal         = "total"
	FieldOccupancyRate = "occupancy_rate"
	FieldAsOf          = "as_of"
)

// PortfolioLabel keys the all-categories row of the categories table.
const PortfolioLabel = "Portfolio"

// UnitKey matches unit rows by display name.
var UnitKey = differ.FieldKey(FieldName)

// CategoryKey matches category rows by category label.
var CategoryKey = differ.FieldKey(FieldCategory)

// UnitRecords maps every unit row onto a store row.
func (s *Snapshot) UnitRecords() []store.Fields {
	out := make([]store.Fields, 0, len(s.Units))
	for _, u := range s.Units {
		out = append(out, store.Fields{
			FieldName:        u.Name,
			FieldUnitID:      u.ID.String(),
			FieldCategory:    u.Category.Label(),
			FieldRegion:      u.Region,
			FieldStatus:      u.Status.String(),
			FieldReason:      u.Reason,
			FieldGuest:       u.GuestName,
			FieldArrival:     u.Arrival,
			FieldDeparture:   u.Departure,
			FieldCheckingOut: u.CheckingOut,
			FieldDegraded:    u.Degraded,
			FieldAsOf:        s.Date,
		})
	}
	return out
}

// CategoryRecords returns one row per non-empty category followed by the
// portfolio row.
func (s *Snapshot) CategoryRecords() []store.Fields {
	out := make([]store.Fields, 0, len(s.Categories)+1)
	for _, c := range s.Categories {
		out = append(out, s.categoryFields(c.Category.Label(), c))
	}
	return append(out, s.categoryFields(PortfolioLabel, s.Portfolio()))
}

// Portfolio returns the portfolio totals as a category snapshot.
func (s *Snapshot) Portfolio() aggregate.CategorySnapshot {
	return aggregate.CategorySnapshot{
		Available:     s.Available,
		Reserved:      s.Reserved,
		Blocked:       s.Blocked,
		Total:         s.Total,
		OccupancyRate: s.OccupancyRate,
	}
}

func (s *Snapshot) categoryFields(label string, c aggregate.CategorySnapshot) store.Fields {
	return store.Fields{
		FieldCategory:      label,
		FieldAvailable:     c.Available,
		FieldReserved:      c.Reserved,
		FieldBlocked:       c.Blocked,
		FieldTotal:         c.Total,
		FieldOccupancyRate: c.OccupancyRate,
		FieldAsOf:          s.Date,
	}
}
