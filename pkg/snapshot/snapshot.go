// Package snapshot turns a reconciliation result into the snapshot the
// rest of the system reads: per-unit rows, category rollups and portfolio
// totals for one day.
package snapshot

import (
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/staymap/pkg/aggregate"
	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/reconciler"
	"github.com/agentstation/staymap/pkg/sources"
	"github.com/agentstation/staymap/pkg/units"
)

// Snapshot is the reconciled state of the portfolio for one day.
type Snapshot struct {
	ID            string                       `json:"id" yaml:"id"`
	Date          string                       `json:"date" yaml:"date"`
	TakenAt       time.Time                    `json:"taken_at" yaml:"taken_at"`
	Total         int                          `json:"total" yaml:"total"`
	Available     int                          `json:"available" yaml:"available"`
	Reserved      int                          `json:"reserved" yaml:"reserved"`
	Blocked       int                          `json:"blocked" yaml:"blocked"`
	OccupancyRate int                          `json:"occupancy_rate" yaml:"occupancy_rate"`
	Categories    []aggregate.CategorySnapshot `json:"categories" yaml:"categories"`
	Units         []UnitRow                    `json:"units" yaml:"units"`
	Degraded      int                          `json:"degraded" yaml:"degraded"`
	DegradedUnits []units.ID                   `json:"degraded_units,omitempty" yaml:"degraded_units,omitempty"`
	Anomalies     []reconciler.Anomaly         `json:"anomalies,omitempty" yaml:"anomalies,omitempty"`

	// DegradedSources are the feeds that answered only in part.
	DegradedSources []sources.ID `json:"degraded_sources,omitempty" yaml:"degraded_sources,omitempty"`
}

// UnitRow is the flattened view of one unit's resolution.
type UnitRow struct {
	ID          units.ID       `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Category    units.Category `json:"category" yaml:"category"`
	Region      string         `json:"region,omitempty" yaml:"region,omitempty"`
	Status      units.Status   `json:"status" yaml:"status"`
	Reason      string         `json:"reason" yaml:"reason"`
	StayID      string         `json:"stay_id,omitempty" yaml:"stay_id,omitempty"`
	GuestName   string         `json:"guest_name,omitempty" yaml:"guest_name,omitempty"`
	Arrival     string         `json:"arrival,omitempty" yaml:"arrival,omitempty"`
	Departure   string         `json:"departure,omitempty" yaml:"departure,omitempty"`
	CheckingOut bool           `json:"checking_out" yaml:"checking_out"`
	Degraded    bool           `json:"degraded" yaml:"degraded"`
}

// Build assembles a snapshot from a cycle result. takenAt is the wall
// clock time of the cycle; the snapshot date comes from the result.
func Build(result *reconciler.Result, takenAt time.Time) *Snapshot {
	summary := aggregate.Aggregate(result.Statuses(), result.Categories())

	s := &Snapshot{
		ID:            uuid.NewString(),
		Date:          result.Today.Format(constants.DateFormat),
		TakenAt:       takenAt.UTC(),
		Total:         summary.Portfolio.Total,
		Available:     summary.Portfolio.Available,
		Reserved:      summary.Portfolio.Reserved,
		Blocked:       summary.Portfolio.Blocked,
		OccupancyRate: summary.Portfolio.OccupancyRate,
		Categories:    summary.Breakdown(),
		Units:         make([]UnitRow, 0, len(result.Units)),
		Degraded:      len(result.Degraded),
		DegradedUnits: result.Degraded,
		Anomalies:     result.Anomalies,

		DegradedSources: result.DegradedSources,
	}
	for _, u := range result.Units {
		s.Units = append(s.Units, newUnitRow(u))
	}
	return s
}

func newUnitRow(u reconciler.UnitResult) UnitRow {
	row := UnitRow{
		ID:       u.Unit.ID,
		Name:     u.Unit.Name,
		Category: u.Unit.Category,
		Region:   u.Unit.Region,
		Status:   u.Status,
		Reason:   string(u.Signal),
		Degraded: u.Degraded,
	}
	if u.Stay != nil {
		row.StayID = u.Stay.ID
		row.GuestName = u.Stay.GuestName
		row.Arrival = u.Stay.Arrival.Format(constants.DateFormat)
		row.Departure = u.Stay.Departure.Format(constants.DateFormat)
	}
	row.CheckingOut = u.CheckingOut != nil
	return row
}

// Unit returns the row for id.
func (s *Snapshot) Unit(id units.ID) (UnitRow, bool) {
	for _, u := range s.Units {
		if u.ID == id {
			return u, true
		}
	}
	return UnitRow{}, false
}

// IsDegraded reports whether any unit fell back to the degraded default or
// any feed answered only in part.
func (s *Snapshot) IsDegraded() bool {
	return s.Degraded > 0 || len(s.DegradedSources) > 0
}
