package staymap

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/staymap/internal/sources/calendar"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
	"github.com/agentstation/staymap/pkg/overrides"
	"github.com/agentstation/staymap/pkg/reconciler"
	"github.com/agentstation/staymap/pkg/snapshot"
	"github.com/agentstation/staymap/pkg/sources"
	"github.com/agentstation/staymap/pkg/stays"
	"github.com/agentstation/staymap/pkg/units"
)

// cycle fetches every feed, reconciles and builds the snapshot.
//
// The catalog and overrides must be read for the cycle to succeed. A failed
// reservation feed degrades every unit instead, and a failed calendar lookup
// degrades only its unit. A feed that answers in part is kept and reported
// on the snapshot.
func (c *client) cycle(ctx context.Context) (*snapshot.Snapshot, *reconciler.Result, error) {
	if c.options.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.options.cycleTimeout)
		defer cancel()
	}
	ctx = logging.WithCycle(ctx, uuid.NewString())
	logger := logging.FromContext(ctx)

	now := c.options.now()
	today := stays.Day(now)
	window := stays.NewWindow(today, c.options.lookback, c.options.lookahead)

	var (
		unitList        []units.Unit
		stayList        []stays.Stay
		overrideList    []overrides.Override
		reservationsErr error
		catalogGap      error
		reservationsGap error
	)

	// Step 1: read catalog, reservations and overrides concurrently
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := c.options.catalog.FetchAllUnits(gctx, c.options.region)
		if err != nil && !errors.IsPartial(err) {
			return asFetch(sources.Catalog, "units", err)
		}
		unitList, catalogGap = list, err
		return nil
	})
	g.Go(func() error {
		list, err := c.options.reservations.FetchReservations(gctx, window)
		if errors.IsPartial(err) {
			stayList, reservationsGap = list, err
			return nil
		}
		if err != nil {
			if errors.IsAuthConfig(err) || gctx.Err() != nil {
				return asFetch(sources.Reservations, "reservations", err)
			}
			reservationsErr = asFetch(sources.Reservations, "reservations", err)
			logging.FromContext(gctx).Warn().Err(err).Msg("Reservation feed unavailable, degrading all units")
			return nil
		}
		stayList = list
		return nil
	})
	if c.options.overrides != nil {
		g.Go(func() error {
			list, err := c.options.overrides.Overrides(gctx)
			if err != nil {
				return asFetch(sources.Overrides, "overrides", err)
			}
			overrideList = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		err = c.cycleErr(ctx, err)
		logger.Error().Err(err).Msg("Cycle failed")
		return nil, nil, err
	}

	// Step 2: read today's calendar for every unit
	days := calendar.FetchDays(ctx, c.options.calendar, unitIDs(unitList), today, calendar.FetchOptions{
		Concurrency: c.options.calendarConcurrency,
		Timeout:     c.options.calendarTimeout,
	})
	if ctx.Err() != nil {
		err := c.cycleErr(ctx, ctx.Err())
		logger.Error().Err(err).Msg("Cycle failed")
		return nil, nil, err
	}

	// Step 3: reconcile and roll up
	result := c.reconciler.Reconcile(ctx, reconciler.CycleInput{
		Today:           today,
		Units:           unitList,
		Stays:           stayList,
		Calendar:        days.Days,
		CalendarErrors:  days.Errors,
		Overrides:       overrides.Latest(overrideList),
		ReservationsErr: reservationsErr,
		Partial:         errors.Partials(errors.Join(catalogGap, reservationsGap)),
	})
	snap := snapshot.Build(result, now)

	c.setLast(snap)
	c.hooks.triggerCycle(snap)

	logger.Info().
		Str("snapshot_id", snap.ID).
		Int("units", snap.Total).
		Int("reserved", snap.Reserved).
		Int("blocked", snap.Blocked).
		Int("occupancy_rate", snap.OccupancyRate).
		Int("degraded", snap.Degraded).
		Strs("partial_sources", sourceNames(snap.DegradedSources)).
		Msg("Cycle complete")

	return snap, result, nil
}

// cycleErr turns a deadline on the cycle context into a TimeoutError.
func (c *client) cycleErr(ctx context.Context, err error) error {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &errors.TimeoutError{Operation: "cycle", Duration: c.options.cycleTimeout.String()}
	}
	return err
}

// asFetch wraps a whole-source failure unless the source already did.
func asFetch(source sources.ID, op string, err error) error {
	var fe *errors.FetchError
	if stderrors.As(err, &fe) {
		return err
	}
	return errors.NewFetchError(source.String(), op, err)
}

func sourceNames(ids []sources.ID) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return names
}

// unitIDs returns the distinct unit IDs in catalog order.
func unitIDs(list []units.Unit) []units.ID {
	seen := make(map[units.ID]bool, len(list))
	ids := make([]units.ID, 0, len(list))
	for _, u := range list {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		ids = append(ids, u.ID)
	}
	return ids
}
