// Package sources defines the upstream feeds a reconciliation cycle reads
// and the interfaces their clients implement.
//
// Every feed is read fresh per cycle and returned as a plain value; clients
// keep no "last fetched" state between calls.
//
// A listing that is only partly available comes back with what was read
// and an error for which errors.IsPartial is true. Callers keep the list
// and report the gap; any other error means the list is unusable.
package sources

import (
	"context"
	"time"

	"github.com/agentstation/staymap/pkg/calendar"
	"github.com/agentstation/staymap/pkg/overrides"
	"github.com/agentstation/staymap/pkg/stays"
	"github.com/agentstation/staymap/pkg/units"
)

// ID identifies an upstream feed.
type ID string

// Feed identifiers.
const (
	Catalog      ID = "catalog"
	Reservations ID = "reservations"
	Calendar     ID = "calendar"
	Overrides    ID = "overrides"
	Defaults     ID = "defaults"
)

// String returns the string representation of a source ID.
func (id ID) String() string {
	return string(id)
}

// UnitCatalog lists the unit inventory.
type UnitCatalog interface {
	FetchAllUnits(ctx context.Context, filter units.RegionFilter) ([]units.Unit, error)
}

// ReservationFetcher lists reservations overlapping a date window,
// deduplicated by reservation ID.
type ReservationFetcher interface {
	FetchReservations(ctx context.Context, window stays.Window) ([]stays.Stay, error)
}

// CalendarReader reads one unit's calendar day.
type CalendarReader interface {
	CalendarDay(ctx context.Context, unitID units.ID, date time.Time) (*calendar.Day, error)
}

// OverrideReader lists every stored cleaning override.
type OverrideReader interface {
	Overrides(ctx context.Context) ([]overrides.Override, error)
}
