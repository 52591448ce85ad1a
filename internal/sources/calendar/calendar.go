// Package calendar is the client for the per-unit calendar endpoint and the
// bounded worker pool that reads one day for many units.
package calendar

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/staymap/internal/transport"
	"github.com/agentstation/staymap/pkg/calendar"
	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
	"github.com/agentstation/staymap/pkg/sources"
	"github.com/agentstation/staymap/pkg/units"
)

type wireDay struct {
	ExplicitlyBlocked bool     `json:"explicitlyBlocked"`
	BlockedUnitCount  int      `json:"blockedUnitCount"`
	ReservationRefs   []string `json:"reservationRefs"`
	IsAvailable       *bool    `json:"isAvailable"`
}

// Client reads calendar days.
type Client struct {
	http *transport.Client
}

var _ sources.CalendarReader = (*Client)(nil)

// New creates a calendar client over an HTTP transport.
func New(http *transport.Client) *Client {
	return &Client{http: http}
}

// CalendarDay returns the unit's calendar entry for date. A unit the
// calendar does not know returns (nil, nil). An omitted isAvailable flag
// reads as available.
func (c *Client) CalendarDay(ctx context.Context, unitID units.ID, date time.Time) (*calendar.Day, error) {
	query := url.Values{}
	query.Set("date", date.Format(constants.DateFormat))

	var w wireDay
	if err := c.http.Get(ctx, "/units/"+url.PathEscape(unitID.String())+"/calendar", query, &w); err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	day := &calendar.Day{
		UnitID:            unitID,
		Date:              date,
		ExplicitlyBlocked: w.ExplicitlyBlocked,
		BlockedUnitCount:  w.BlockedUnitCount,
		ReservationRefs:   w.ReservationRefs,
		IsAvailable:       w.IsAvailable == nil || *w.IsAvailable,
	}
	return day, nil
}

// Days is the outcome of reading one date for many units. A unit appears
// in at most one of the two maps; a unit in neither has no calendar entry.
type Days struct {
	Days   map[units.ID]*calendar.Day
	Errors map[units.ID]error
}

// FetchOptions bounds a multi-unit read.
type FetchOptions struct {
	// Concurrency is the worker pool size.
	Concurrency int
	// Timeout bounds each unit's lookup, retries included.
	Timeout time.Duration
}

func (o *FetchOptions) defaults() {
	if o.Concurrency <= 0 {
		o.Concurrency = constants.DefaultCalendarConcurrency
	}
	o.Concurrency = min(o.Concurrency, constants.MaxCalendarConcurrency)
	if o.Timeout <= 0 {
		o.Timeout = constants.CalendarDayTimeout
	}
}

// FetchDays reads date for every unit on a bounded pool. A failed unit is
// recorded as a *errors.PartialFetchError and never cancels the others.
func FetchDays(ctx context.Context, reader sources.CalendarReader, ids []units.ID, date time.Time, opts FetchOptions) Days {
	opts.defaults()
	ctx = logging.WithSource(ctx, sources.Calendar.String())
	logger := logging.FromContext(ctx)

	out := Days{
		Days:   make(map[units.ID]*calendar.Day, len(ids)),
		Errors: map[units.ID]error{},
	}
	var mu sync.Mutex

	// plain Group: one unit's error must not cancel its siblings
	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			unitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
			defer cancel()

			day, err := reader.CalendarDay(unitCtx, id, date)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() == nil && unitCtx.Err() == context.DeadlineExceeded {
					err = &errors.TimeoutError{Operation: "calendar " + id.String(), Duration: opts.Timeout.String()}
				}
				out.Errors[id] = &errors.PartialFetchError{Source: sources.Calendar.String(), UnitID: id.String(), Err: err}
				return nil
			}
			if day != nil {
				out.Days[id] = day
			}
			return nil
		})
	}
	_ = g.Wait()

	for id, err := range out.Errors {
		logger.Warn().Err(err).Str("unit_id", id.String()).Msg("Calendar lookup failed")
	}
	logger.Debug().Int("units", len(ids)).Int("days", len(out.Days)).Int("failed", len(out.Errors)).Msg("Calendar fetched")
	return out
}
