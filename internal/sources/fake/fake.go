// Package fake provides in-memory feeds for tests of code that wires a
// staymap client together.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/agentstation/staymap"
	"github.com/agentstation/staymap/internal/sources/overrides"
	"github.com/agentstation/staymap/internal/utils/ptr"
	"github.com/agentstation/staymap/pkg/calendar"
	"github.com/agentstation/staymap/pkg/sources"
	"github.com/agentstation/staymap/pkg/stays"
	"github.com/agentstation/staymap/pkg/store"
	"github.com/agentstation/staymap/pkg/units"
)

// Now is the fixed clock of the Portfolio fixture.
var Now = time.Date(2024, 1, 12, 9, 41, 0, 0, time.UTC)

// Clock returns Now.
func Clock() time.Time { return Now }

var (
	_ sources.UnitCatalog        = (*Catalog)(nil)
	_ sources.ReservationFetcher = (*Reservations)(nil)
	_ sources.CalendarReader     = (*Calendar)(nil)
)

// Catalog serves a fixed unit list.
type Catalog struct {
	Units []units.Unit
	Err   error
}

// FetchAllUnits implements sources.UnitCatalog.
func (c *Catalog) FetchAllUnits(_ context.Context, filter units.RegionFilter) ([]units.Unit, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return filter.Filter(c.Units), nil
}

// Reservations serves a fixed stay list.
type Reservations struct {
	Stays []stays.Stay
	Err   error
}

// FetchReservations implements sources.ReservationFetcher.
func (r *Reservations) FetchReservations(_ context.Context, _ stays.Window) ([]stays.Stay, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Stays, nil
}

// Calendar serves configured days; other units read as available.
type Calendar struct {
	mu   sync.Mutex
	Days map[units.ID]*calendar.Day
}

// CalendarDay implements sources.CalendarReader.
func (c *Calendar) CalendarDay(_ context.Context, unitID units.ID, date time.Time) (*calendar.Day, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.Days[unitID]; ok {
		return d, nil
	}
	return &calendar.Day{UnitID: unitID, Date: date, IsAvailable: true}, nil
}

// Feeds bundles the three upstream fakes.
type Feeds struct {
	Catalog      *Catalog
	Reservations *Reservations
	Calendar     *Calendar
}

// Portfolio returns three Lisbon units on 2024-01-12: a studio with a guest
// in house, a one-bedroom with a guest checking out, and a three-bedroom
// blocked on the calendar.
func Portfolio() *Feeds {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	return &Feeds{
		Catalog: &Catalog{Units: []units.Unit{
			{ID: "1", Name: "Alfama Loft", Bedrooms: ptr.To(0), City: "Lisbon", Country: "PT", Region: "Lisbon, PT"},
			{ID: "2", Name: "Baixa Flat", Bedrooms: ptr.To(1), City: "Lisbon", Country: "PT", Region: "Lisbon, PT"},
			{ID: "3", Name: "Chiado House", Bedrooms: ptr.To(3), City: "Lisbon", Country: "PT", Region: "Lisbon, PT"},
		}},
		Reservations: &Reservations{Stays: []stays.Stay{
			{ID: "s1", UnitID: "1", GuestName: "Ana Costa", Arrival: day(10), Departure: day(14), Lifecycle: stays.LifecycleNew, TotalPrice: 400, Currency: "EUR"},
			{ID: "s2", UnitID: "2", GuestName: "Bruno Lima", Arrival: day(5), Departure: day(12), Lifecycle: stays.LifecycleNew, TotalPrice: 700, Currency: "EUR"},
		}},
		Calendar: &Calendar{Days: map[units.ID]*calendar.Day{
			"3": {UnitID: "3", Date: day(12), ExplicitlyBlocked: true},
		}},
	}
}

// Client builds a staymap client over the feeds with the clock fixed at
// Now. Overrides are read from overridesTable in st.
func (f *Feeds) Client(st store.Store, overridesTable string, opts ...staymap.Option) (staymap.Client, error) {
	base := []staymap.Option{
		staymap.WithCatalog(f.Catalog),
		staymap.WithReservations(f.Reservations),
		staymap.WithCalendar(f.Calendar),
		staymap.WithStore(st),
		staymap.WithOverrides(overrides.New(st, overridesTable)),
		staymap.WithClock(Clock),
	}
	return staymap.New(append(base, opts...)...)
}
