package staymap

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/staymap/internal/utils/ptr"
	"github.com/agentstation/staymap/pkg/calendar"
	pkgerrors "github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/overrides"
	"github.com/agentstation/staymap/pkg/reconciler"
	"github.com/agentstation/staymap/pkg/snapshot"
	"github.com/agentstation/staymap/pkg/sources"
	"github.com/agentstation/staymap/pkg/stays"
	"github.com/agentstation/staymap/pkg/units"
)

var testNow = time.Date(2024, 1, 12, 9, 41, 0, 0, time.UTC)

func date(day int) time.Time {
	return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
}

type fakeCatalog struct {
	units []units.Unit
	err   error
}

func (f *fakeCatalog) FetchAllUnits(ctx context.Context, filter units.RegionFilter) ([]units.Unit, error) {
	if f.err != nil && !pkgerrors.IsPartial(f.err) {
		return nil, f.err
	}
	return filter.Filter(f.units), f.err
}

type fakeReservations struct {
	stays  []stays.Stay
	err    error
	window stays.Window
}

func (f *fakeReservations) FetchReservations(ctx context.Context, window stays.Window) ([]stays.Stay, error) {
	f.window = window
	if f.err != nil && !pkgerrors.IsPartial(f.err) {
		return nil, f.err
	}
	return f.stays, f.err
}

type fakeCalendar struct {
	mu      sync.Mutex
	days    map[units.ID]*calendar.Day
	failFor map[units.ID]error
	calls   int
}

func (f *fakeCalendar) CalendarDay(ctx context.Context, unitID units.ID, date time.Time) (*calendar.Day, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.failFor[unitID]; err != nil {
		return nil, err
	}
	if d, ok := f.days[unitID]; ok {
		return d, nil
	}
	return &calendar.Day{UnitID: unitID, Date: date, IsAvailable: true}, nil
}

type fakeOverrides struct {
	list []overrides.Override
	err  error
}

func (f *fakeOverrides) Overrides(ctx context.Context) ([]overrides.Override, error) {
	return f.list, f.err
}

// fixture is a three-unit portfolio on 2024-01-12: one unit reserved, one
// with a guest checking out, one blocked by a cleaning override.
type fixture struct {
	catalog      *fakeCatalog
	reservations *fakeReservations
	calendar     *fakeCalendar
	overrides    *fakeOverrides
}

func newFixture() *fixture {
	return &fixture{
		catalog: &fakeCatalog{units: []units.Unit{
			{ID: "1", Name: "Alfama Loft", Bedrooms: ptr.To(0), City: "Lisbon", Country: "PT", Region: "Lisbon, PT"},
			{ID: "2", Name: "Baixa Flat", Bedrooms: ptr.To(1), City: "Lisbon", Country: "PT", Region: "Lisbon, PT"},
			{ID: "3", Name: "Chiado House", Bedrooms: ptr.To(3), City: "Lisbon", Country: "PT", Region: "Lisbon, PT"},
		}},
		reservations: &fakeReservations{stays: []stays.Stay{
			{ID: "s1", UnitID: "1", GuestName: "Ana Costa", Arrival: date(10), Departure: date(14), Lifecycle: stays.LifecycleNew, TotalPrice: 400, Currency: "EUR"},
			{ID: "s2", UnitID: "2", GuestName: "Bruno Lima", Arrival: date(5), Departure: date(12), Lifecycle: stays.LifecycleNew, TotalPrice: 700, Currency: "EUR"},
		}},
		calendar: &fakeCalendar{},
		overrides: &fakeOverrides{list: []overrides.Override{
			{RecordID: "rec1", UnitID: "3", ManualStatus: units.StatusBlocked, Reason: "deep clean", UpdatedAt: date(11)},
		}},
	}
}

func (f *fixture) options(extra ...Option) []Option {
	opts := []Option{
		WithCatalog(f.catalog),
		WithReservations(f.reservations),
		WithCalendar(f.calendar),
		WithOverrides(f.overrides),
		WithClock(func() time.Time { return testNow }),
	}
	return append(opts, extra...)
}

func (f *fixture) client(t *testing.T, extra ...Option) Client {
	t.Helper()
	c, err := New(f.options(extra...)...)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresSources(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name      string
		opts      []Option
		component string
	}{
		{"no catalog", []Option{WithReservations(f.reservations), WithCalendar(f.calendar)}, "catalog"},
		{"no reservations", []Option{WithCatalog(f.catalog), WithCalendar(f.calendar)}, "reservations"},
		{"no calendar", []Option{WithCatalog(f.catalog), WithReservations(f.reservations)}, "calendar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			var cfgErr *pkgerrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.component, cfgErr.Component)
			assert.True(t, pkgerrors.IsAuthConfig(err))
		})
	}
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	f := newFixture()

	_, err := New(f.options(WithCalendarConcurrency(0))...)
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = New(f.options(WithWindow(-time.Hour, 0))...)
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = New(f.options(WithClock(nil))...)
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestSnapshot(t *testing.T) {
	f := newFixture()
	c := f.client(t)

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2024-01-12", snap.Date)
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 1, snap.Available)
	assert.Equal(t, 1, snap.Reserved)
	assert.Equal(t, 1, snap.Blocked)
	assert.Equal(t, 33, snap.OccupancyRate)
	assert.Zero(t, snap.Degraded)
	assert.Empty(t, snap.Anomalies)

	loft, ok := snap.Unit("1")
	require.True(t, ok)
	assert.Equal(t, units.StatusReserved, loft.Status)
	assert.Equal(t, units.CategoryStudio, loft.Category)
	assert.Equal(t, "s1", loft.StayID)

	flat, _ := snap.Unit("2")
	assert.Equal(t, units.StatusAvailable, flat.Status)
	assert.True(t, flat.CheckingOut)

	house, _ := snap.Unit("3")
	assert.Equal(t, units.StatusBlocked, house.Status)
	assert.Equal(t, units.CategoryThreeBR, house.Category)

	last, ok := c.LastSnapshot()
	require.True(t, ok)
	assert.Equal(t, snap.ID, last.ID)

	// window is centred on the clock's civil date
	assert.Equal(t, stays.NewWindow(testNow, 60*24*time.Hour, 30*24*time.Hour), f.reservations.window)
}

func TestSnapshot_RegionFilter(t *testing.T) {
	f := newFixture()
	f.catalog.units[2].Country = "ES"
	c := f.client(t, WithRegion(units.RegionFilter{Countries: []string{"PT"}}))

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 2, f.calendar.calls)
}

func TestSnapshot_PremiumUnits(t *testing.T) {
	f := newFixture()
	f.catalog.units[1].Bedrooms = ptr.To(2)
	c := f.client(t, WithPremiumUnits("2"))

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)

	var got []units.Category
	for _, cat := range cats {
		got = append(got, cat.Category)
	}
	assert.Equal(t, []units.Category{units.CategoryStudio, units.CategoryTwoBRPremium, units.CategoryThreeBR}, got)
}

func TestSnapshot_ReservationFeedDown(t *testing.T) {
	f := newFixture()
	f.reservations.err = pkgerrors.NewAPIError("reservations", 503, "maintenance")
	c := f.client(t)

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Degraded)
	assert.True(t, snap.IsDegraded())
	assert.Equal(t, 2, snap.Available)
	assert.Equal(t, 1, snap.Blocked, "override still blocks a degraded unit")
	assert.Zero(t, snap.Reserved)
}

func TestSnapshot_ReservationAuthFailureFailsCycle(t *testing.T) {
	f := newFixture()
	f.reservations.err = pkgerrors.NewAPIError("reservations", 401, "bad key")
	c := f.client(t)

	_, err := c.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsAuthConfig(err))

	_, ok := c.LastSnapshot()
	assert.False(t, ok)
}

func TestSnapshot_CalendarFailureDegradesOneUnit(t *testing.T) {
	f := newFixture()
	f.calendar.failFor = map[units.ID]error{"1": errors.New("connection reset")}
	c := f.client(t)

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Degraded)
	assert.Equal(t, []units.ID{"1"}, snap.DegradedUnits)
	loft, _ := snap.Unit("1")
	assert.Equal(t, units.StatusAvailable, loft.Status)
	assert.True(t, loft.Degraded)
}

func TestSnapshot_CatalogFailure(t *testing.T) {
	f := newFixture()
	f.catalog.err = errors.New("catalog down")
	c := f.client(t)

	_, err := c.Snapshot(context.Background())
	var fetchErr *pkgerrors.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "catalog", fetchErr.Source)
}

func TestSnapshot_OverridesFailure(t *testing.T) {
	f := newFixture()
	f.overrides.err = errors.New("store unavailable")
	c := f.client(t)

	_, err := c.Snapshot(context.Background())
	var fetchErr *pkgerrors.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "overrides", fetchErr.Source)
}

func TestSnapshot_WithoutOverrides(t *testing.T) {
	f := newFixture()
	c, err := New(
		WithCatalog(f.catalog),
		WithReservations(f.reservations),
		WithCalendar(f.calendar),
		WithClock(func() time.Time { return testNow }),
	)
	require.NoError(t, err)

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, snap.Blocked)
	assert.Equal(t, 2, snap.Available)
}

func TestSnapshot_CanceledContext(t *testing.T) {
	f := newFixture()
	c := f.client(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.catalog.err = ctx.Err()

	_, err := c.Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHooks(t *testing.T) {
	f := newFixture()
	f.calendar.days = map[units.ID]*calendar.Day{
		"2": {UnitID: "2", IsAvailable: false, ReservationRefs: []string{"x9"}},
	}
	c := f.client(t)

	var (
		anomalies []reconciler.Anomaly
		completed []*snapshot.Snapshot
	)
	c.OnAnomaly(func(a reconciler.Anomaly) { anomalies = append(anomalies, a) })
	c.OnCycleComplete(func(s *snapshot.Snapshot) { completed = append(completed, s) })

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, completed, 1)
	assert.Same(t, snap, completed[0])
	require.Len(t, anomalies, 1)
	assert.Equal(t, reconciler.AnomalyCalendarOnly, anomalies[0].Kind)
	assert.Equal(t, units.ID("2"), anomalies[0].UnitID)
}

func TestSnapshot_PartialReservations(t *testing.T) {
	f := newFixture()
	f.reservations.stays = f.reservations.stays[1:] // s1 came from a failed query
	f.reservations.err = pkgerrors.Join(
		&pkgerrors.PartialFetchError{Source: "reservations", Query: "arrival", Err: errors.New("500")},
		&pkgerrors.PartialFetchError{Source: "reservations", Query: "departure", Err: errors.New("500")},
	)
	c := f.client(t)

	var hooked []reconciler.Anomaly
	c.OnAnomaly(func(a reconciler.Anomaly) { hooked = append(hooked, a) })

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)

	assert.True(t, snap.IsDegraded())
	assert.Equal(t, []sources.ID{sources.Reservations}, snap.DegradedSources)
	assert.Equal(t, 2, snap.Degraded, "units resolved by default may hide a missed stay")
	assert.ElementsMatch(t, []units.ID{"1", "2"}, snap.DegradedUnits)
	house, _ := snap.Unit("3")
	assert.Equal(t, units.StatusBlocked, house.Status)
	assert.False(t, house.Degraded)

	var partial int
	for _, a := range hooked {
		if a.Kind == reconciler.AnomalyPartialSource {
			partial++
			assert.Equal(t, sources.Reservations, a.Source)
		}
	}
	assert.Equal(t, 2, partial)
}

func TestSnapshot_TruncatedCatalog(t *testing.T) {
	f := newFixture()
	f.catalog.err = &pkgerrors.PartialFetchError{Source: "catalog", Query: "units", Err: pkgerrors.ErrTruncated}
	c := f.client(t)

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Total, "the units that were read are reconciled")
	assert.Equal(t, []sources.ID{sources.Catalog}, snap.DegradedSources)
	assert.Zero(t, snap.Degraded)
	assert.True(t, snap.IsDegraded())
}

func TestHooks_MayRegisterHooks(t *testing.T) {
	f := newFixture()
	f.calendar.days = map[units.ID]*calendar.Day{
		"2": {UnitID: "2", IsAvailable: false, ReservationRefs: []string{"x9"}},
	}
	c := f.client(t)
	c.OnAnomaly(func(reconciler.Anomaly) { c.OnAnomaly(func(reconciler.Anomaly) {}) })
	c.OnCycleComplete(func(*snapshot.Snapshot) { c.OnCycleComplete(func(*snapshot.Snapshot) {}) })

	done := make(chan error, 1)
	go func() {
		_, err := c.Snapshot(context.Background())
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("a hook registering a hook blocked the cycle")
	}
}

func TestCycles_AreIndependent(t *testing.T) {
	f := newFixture()
	c := f.client(t)

	first, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Reserved)

	// the booking disappears from the feed; nothing from the first cycle lingers
	f.reservations.stays = nil
	second, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Reserved)
	assert.NotEqual(t, first.ID, second.ID)
}
