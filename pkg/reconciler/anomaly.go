package reconciler

import (
	"github.com/agentstation/staymap/pkg/sources"
	"github.com/agentstation/staymap/pkg/units"
)

// AnomalyKind classifies a data inconsistency found during a cycle.
type AnomalyKind string

// Anomaly kinds. None of them fail a cycle.
const (
	// AnomalyOverlappingStays: more than one countable stay is active for
	// the unit today; the earliest arrival was chosen.
	AnomalyOverlappingStays AnomalyKind = "overlapping_stays"

	// AnomalyUnknownCategory: no classification step produced a category.
	AnomalyUnknownCategory AnomalyKind = "unknown_category"

	// AnomalyMissingCalendar: the calendar returned no entry for the unit.
	AnomalyMissingCalendar AnomalyKind = "missing_calendar"

	// AnomalyCalendarOnly: the calendar reports the unit taken but no
	// reservation explains it.
	AnomalyCalendarOnly AnomalyKind = "calendar_without_reservation"

	// AnomalyDegraded: a lookup for the unit failed and it fell back to
	// the degraded default.
	AnomalyDegraded AnomalyKind = "degraded"

	// AnomalyDuplicateUnit: the catalog listed the same unit ID twice; the
	// first entry was kept.
	AnomalyDuplicateUnit AnomalyKind = "duplicate_unit"

	// AnomalyPartialSource: a feed answered only in part (a failed query
	// or a listing cut at its page cap). It names the source, not a unit.
	AnomalyPartialSource AnomalyKind = "partial_source"
)

// Anomaly is one flagged inconsistency.
type Anomaly struct {
	Kind     AnomalyKind `json:"kind" yaml:"kind"`
	UnitID   units.ID    `json:"unit_id,omitempty" yaml:"unit_id,omitempty"`
	UnitName string      `json:"unit_name,omitempty" yaml:"unit_name,omitempty"`
	Source   sources.ID  `json:"source,omitempty" yaml:"source,omitempty"`
	StayIDs  []string    `json:"stay_ids,omitempty" yaml:"stay_ids,omitempty"`
	Detail   string      `json:"detail,omitempty" yaml:"detail,omitempty"`
}
