package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/staymap/pkg/authority"
	"github.com/agentstation/staymap/pkg/overrides"
	"github.com/agentstation/staymap/pkg/sources"
	"github.com/agentstation/staymap/pkg/stays"
	"github.com/agentstation/staymap/pkg/units"
)

// Resolution is the decided state of one unit for one day.
type Resolution struct {
	Status      units.Status        `json:"status"`
	Signal      authority.Signal    `json:"signal"`
	Source      sources.ID          `json:"source"`
	Stay        *stays.Stay         `json:"stay,omitempty"`
	CheckingOut *stays.Stay         `json:"checking_out,omitempty"`
	Override    *overrides.Override `json:"override,omitempty"`
	Degraded    bool                `json:"degraded"`
	Anomalies   []Anomaly           `json:"anomalies,omitempty"`
}

// UnitResult pairs a classified unit with its resolution.
type UnitResult struct {
	Unit units.Unit `json:"unit"`
	Resolution
}

// Result represents the outcome of one reconciliation cycle.
type Result struct {
	Today     time.Time    `json:"today"`
	Units     []UnitResult `json:"units"`
	Anomalies []Anomaly    `json:"anomalies,omitempty"`
	Degraded  []units.ID   `json:"degraded,omitempty"`

	// DegradedSources are the feeds that answered only in part.
	DegradedSources []sources.ID `json:"degraded_sources,omitempty"`

	// Errors are the partial fetch failures behind degraded units and sources.
	Errors []error `json:"-"`

	Metadata ResultMetadata `json:"metadata"`
}

// ResultMetadata contains metadata about the cycle.
type ResultMetadata struct {
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	Duration  time.Duration    `json:"duration"`
	Stats     ResultStatistics `json:"stats"`
}

// ResultStatistics contains counters about the cycle.
type ResultStatistics struct {
	UnitsProcessed  int `json:"units_processed"`
	StaysConsidered int `json:"stays_considered"`
	TestBookings    int `json:"test_bookings"`
	OrphanStays     int `json:"orphan_stays"`
	Overlaps        int `json:"overlaps"`
	UnknownCategory int `json:"unknown_category"`
	DegradedUnits   int `json:"degraded_units"`
	OverridesActive int `json:"overrides_active"`
}

// NewResult creates a new result with defaults.
func NewResult(start, today time.Time) *Result {
	return &Result{
		Today:     today,
		Units:     []UnitResult{},
		Anomalies: []Anomaly{},
		Metadata:  ResultMetadata{StartTime: start},
	}
}

// Finalize stamps end time and duration.
func (r *Result) Finalize(end time.Time) {
	r.Metadata.EndTime = end
	r.Metadata.Duration = end.Sub(r.Metadata.StartTime)
	r.Metadata.Stats.UnitsProcessed = len(r.Units)
	r.Metadata.Stats.DegradedUnits = len(r.Degraded)
}

// Statuses returns the status of every unit keyed by ID.
func (r *Result) Statuses() map[units.ID]units.Status {
	out := make(map[units.ID]units.Status, len(r.Units))
	for _, u := range r.Units {
		out[u.Unit.ID] = u.Status
	}
	return out
}

// Categories returns the category of every unit keyed by ID.
func (r *Result) Categories() map[units.ID]units.Category {
	out := make(map[units.ID]units.Category, len(r.Units))
	for _, u := range r.Units {
		out[u.Unit.ID] = u.Unit.Category
	}
	return out
}

// Summary returns a one-line human-readable summary.
func (r *Result) Summary() string {
	counts := map[units.Status]int{}
	for _, u := range r.Units {
		counts[u.Status]++
	}
	summary := fmt.Sprintf("%d units: %d available, %d reserved, %d blocked (%d degraded, %d anomalies)",
		len(r.Units), counts[units.StatusAvailable], counts[units.StatusReserved], counts[units.StatusBlocked],
		len(r.Degraded), len(r.Anomalies))
	if len(r.DegradedSources) > 0 {
		summary += fmt.Sprintf(", partial sources: %v", r.DegradedSources)
	}
	return summary
}
