package staymap

import (
	"time"

	"github.com/agentstation/staymap/pkg/authority"
	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/sources"
	"github.com/agentstation/staymap/pkg/stays"
	"github.com/agentstation/staymap/pkg/store"
	"github.com/agentstation/staymap/pkg/units"
)

// Option is a function that configures a Client.
type Option func(*options) error

// Tables names the store tables the client writes and reads.
type Tables struct {
	Units      string
	Categories string
	Reports    string
}

// options holds the client configuration.
type options struct {
	catalog      sources.UnitCatalog
	reservations sources.ReservationFetcher
	calendar     sources.CalendarReader
	overrides    sources.OverrideReader
	store        store.Store

	region    units.RegionFilter
	premium   []units.ID
	detector  stays.Detector
	authority authority.Authority
	now       func() time.Time

	calendarConcurrency int
	calendarTimeout     time.Duration
	lookback            time.Duration
	lookahead           time.Duration
	cycleTimeout        time.Duration

	tables Tables

	autoSyncEnabled  bool
	autoSyncInterval time.Duration
	autoSyncFunc     AutoSyncFunc
}

// defaults returns options with default values.
func defaults() *options {
	return &options{
		now:                 time.Now,
		calendarConcurrency: constants.DefaultCalendarConcurrency,
		calendarTimeout:     constants.CalendarDayTimeout,
		lookback:            constants.DefaultLookback,
		lookahead:           constants.DefaultLookahead,
		cycleTimeout:        constants.CycleTimeout,
		tables: Tables{
			Units:      constants.DefaultUnitsTable,
			Categories: constants.DefaultCategoriesTable,
			Reports:    constants.DefaultReportsTable,
		},
		autoSyncInterval: constants.DefaultAutoSyncInterval,
	}
}

// apply applies the given options and validates the result.
func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// validate rejects a client that could not run a cycle.
func (o *options) validate() error {
	switch {
	case o.catalog == nil:
		return errors.NewConfigError("catalog", "a unit catalog is required", nil)
	case o.reservations == nil:
		return errors.NewConfigError("reservations", "a reservation fetcher is required", nil)
	case o.calendar == nil:
		return errors.NewConfigError("calendar", "a calendar reader is required", nil)
	}
	return nil
}

// WithCatalog sets the unit catalog.
func WithCatalog(c sources.UnitCatalog) Option {
	return func(o *options) error {
		o.catalog = c
		return nil
	}
}

// WithReservations sets the reservation fetcher.
func WithReservations(r sources.ReservationFetcher) Option {
	return func(o *options) error {
		o.reservations = r
		return nil
	}
}

// WithCalendar sets the calendar reader.
func WithCalendar(r sources.CalendarReader) Option {
	return func(o *options) error {
		o.calendar = r
		return nil
	}
}

// WithOverrides sets the cleaning override reader. Without one no unit is
// ever blocked by an override.
func WithOverrides(r sources.OverrideReader) Option {
	return func(o *options) error {
		o.overrides = r
		return nil
	}
}

// WithStore sets the tabular store that Sync and PostHourlyReport write to.
func WithStore(s store.Store) Option {
	return func(o *options) error {
		o.store = s
		return nil
	}
}

// WithRegion restricts every cycle to the units matching the filter.
func WithRegion(f units.RegionFilter) Option {
	return func(o *options) error {
		o.region = f
		return nil
	}
}

// WithPremiumUnits marks two-bedroom units as premium.
func WithPremiumUnits(ids ...units.ID) Option {
	return func(o *options) error {
		o.premium = append(o.premium, ids...)
		return nil
	}
}

// WithTestDetector replaces the default test booking heuristic.
func WithTestDetector(d stays.Detector) Option {
	return func(o *options) error {
		if d == nil {
			return errors.NewValidationError("detector", nil, "cannot be nil")
		}
		o.detector = d
		return nil
	}
}

// WithAuthority replaces the default status precedence table.
func WithAuthority(a authority.Authority) Option {
	return func(o *options) error {
		if a == nil {
			return errors.NewValidationError("authority", nil, "cannot be nil")
		}
		o.authority = a
		return nil
	}
}

// WithClock sets the clock that decides "today". Used by tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.NewValidationError("clock", nil, "cannot be nil")
		}
		o.now = now
		return nil
	}
}

// WithCalendarConcurrency sets the size of the calendar worker pool.
func WithCalendarConcurrency(n int) Option {
	return func(o *options) error {
		if n <= 0 || n > constants.MaxCalendarConcurrency {
			return errors.NewValidationError("calendar_concurrency", n, "must be between 1 and 64")
		}
		o.calendarConcurrency = n
		return nil
	}
}

// WithCalendarTimeout bounds each per-unit calendar lookup.
func WithCalendarTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.calendarTimeout = d
		return nil
	}
}

// WithWindow sets how far before and after today reservations are fetched.
func WithWindow(lookback, lookahead time.Duration) Option {
	return func(o *options) error {
		if lookback < 0 || lookahead < 0 {
			return errors.NewValidationError("window", nil, "lookback and lookahead cannot be negative")
		}
		o.lookback = lookback
		o.lookahead = lookahead
		return nil
	}
}

// WithCycleTimeout bounds one reconciliation cycle. Zero disables the bound.
func WithCycleTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.cycleTimeout = d
		return nil
	}
}

// WithTables overrides the store table names. Empty names keep the default.
func WithTables(t Tables) Option {
	return func(o *options) error {
		if t.Units != "" {
			o.tables.Units = t.Units
		}
		if t.Categories != "" {
			o.tables.Categories = t.Categories
		}
		if t.Reports != "" {
			o.tables.Reports = t.Reports
		}
		return nil
	}
}

// WithAutoSync configures whether automatic syncs start with the client.
func WithAutoSync(enabled bool) Option {
	return func(o *options) error {
		o.autoSyncEnabled = enabled
		return nil
	}
}

// WithAutoSyncInterval configures how often automatic syncs run.
func WithAutoSyncInterval(interval time.Duration) Option {
	return func(o *options) error {
		o.autoSyncInterval = interval
		return nil
	}
}

// WithAutoSyncFunc replaces the work done on every auto sync tick.
func WithAutoSyncFunc(fn AutoSyncFunc) Option {
	return func(o *options) error {
		o.autoSyncFunc = fn
		return nil
	}
}
