// Package reconciler decides one occupancy status per unit per day from the
// catalog, the reservation feed, the calendar feed and manual overrides.
//
// A cycle is a pure function of its input: everything the reconciler needs
// arrives in a CycleInput, and nothing is remembered between cycles.
package reconciler

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/agentstation/staymap/pkg/authority"
	"github.com/agentstation/staymap/pkg/calendar"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
	"github.com/agentstation/staymap/pkg/overrides"
	"github.com/agentstation/staymap/pkg/sources"
	"github.com/agentstation/staymap/pkg/stays"
	"github.com/agentstation/staymap/pkg/units"
)

// Reconciler resolves unit statuses.
type Reconciler interface {
	// Resolve decides the status of a single unit.
	Resolve(in Input) Resolution

	// Reconcile resolves every unit of a cycle. It never fails: broken
	// inputs degrade individual units and are reported on the Result.
	Reconcile(ctx context.Context, in CycleInput) *Result
}

// Input is everything known about one unit for one day.
type Input struct {
	Unit     units.Unit
	Stays    []stays.Stay
	Calendar *calendar.Day
	Override *overrides.Override
	Today    time.Time

	// LookupErr is set when a lookup for this unit failed. The unit is
	// then Available unless its override blocks it.
	LookupErr error
}

// CycleInput is the fetched state of one cycle.
type CycleInput struct {
	Today     time.Time
	Units     []units.Unit
	Stays     []stays.Stay
	Calendar  map[units.ID]*calendar.Day
	Overrides *overrides.Index

	// CalendarErrors holds per-unit calendar failures.
	CalendarErrors map[units.ID]error

	// ReservationsErr is set when the reservation feed failed entirely;
	// every unit is then degraded.
	ReservationsErr error

	// Partial lists the feeds that answered only in part. Each becomes a
	// partial_source anomaly. An incomplete reservation feed also degrades
	// every unit that resolved to the default, since a missed stay could
	// have made it reserved.
	Partial []*errors.PartialFetchError
}

type reconciler struct {
	options *options
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{options: o}, nil
}

// Resolve implements Reconciler.
func (r *reconciler) Resolve(in Input) Resolution {
	today := stays.Day(in.Today)
	res := Resolution{Override: in.Override}
	var fired []authority.Signal

	if in.Override.Blocks() {
		fired = append(fired, authority.SignalOverrideBlocked)
	}

	if in.LookupErr != nil {
		res.Degraded = true
		res.Anomalies = append(res.Anomalies, Anomaly{
			Kind:     AnomalyDegraded,
			UnitID:   in.Unit.ID,
			UnitName: in.Unit.Name,
			Detail:   in.LookupErr.Error(),
		})
		r.decide(&res, fired)
		return res
	}

	if in.Calendar.IsBlocked() {
		fired = append(fired, authority.SignalCalendarBlocked)
	}

	active := r.options.filter.ActiveToday(in.Stays, today)
	if len(active) > 0 {
		sortByArrival(active)
		chosen := active[0]
		res.Stay = &chosen
		fired = append(fired, authority.SignalActiveStay)
		if len(active) > 1 {
			ids := make([]string, len(active))
			for i, s := range active {
				ids[i] = s.ID
			}
			res.Anomalies = append(res.Anomalies, Anomaly{
				Kind:     AnomalyOverlappingStays,
				UnitID:   in.Unit.ID,
				UnitName: in.Unit.Name,
				StayIDs:  ids,
				Detail:   "selected earliest arrival " + chosen.ID,
			})
		}
	}

	if out := r.options.filter.CheckingOutToday(in.Stays, today); len(out) > 0 {
		sortByArrival(out)
		res.CheckingOut = &out[0]
	}

	if in.Calendar == nil {
		res.Anomalies = append(res.Anomalies, Anomaly{
			Kind:     AnomalyMissingCalendar,
			UnitID:   in.Unit.ID,
			UnitName: in.Unit.Name,
		})
	} else if in.Calendar.ReportsUnavailable() {
		fired = append(fired, authority.SignalCalendarUnavailable)
	}

	r.decide(&res, fired)

	if res.Signal == authority.SignalCalendarUnavailable {
		res.Anomalies = append(res.Anomalies, Anomaly{
			Kind:     AnomalyCalendarOnly,
			UnitID:   in.Unit.ID,
			UnitName: in.Unit.Name,
			StayIDs:  in.Calendar.ReservationRefs,
		})
	}
	return res
}

func (r *reconciler) decide(res *Resolution, fired []authority.Signal) {
	rule := r.options.authority.Decide(fired...)
	res.Status = rule.Status
	res.Signal = rule.Signal
	res.Source = rule.Source
	if !res.Status.IsValid() {
		// a custom table without a valid default still yields a status
		res.Status = units.StatusAvailable
	}
}

// Reconcile implements Reconciler.
func (r *reconciler) Reconcile(ctx context.Context, in CycleInput) *Result {
	logger := logging.FromContext(ctx)
	today := stays.Day(in.Today)
	result := NewResult(r.options.now(), today)

	for _, p := range in.Partial {
		source := sources.ID(p.Source)
		if !slices.Contains(result.DegradedSources, source) {
			result.DegradedSources = append(result.DegradedSources, source)
		}
		result.Anomalies = append(result.Anomalies, Anomaly{Kind: AnomalyPartialSource, Source: source, Detail: p.Error()})
		result.Errors = append(result.Errors, p)
		logger.Warn().Err(p).Str("anomaly", string(AnomalyPartialSource)).Msg("Source answered in part")
	}
	staysIncomplete := slices.Contains(result.DegradedSources, sources.Reservations)

	byUnit := make(map[units.ID][]stays.Stay)
	known := make(map[units.ID]bool, len(in.Units))
	for _, u := range in.Units {
		known[u.ID] = true
	}
	marked := r.options.filter.Mark(append([]stays.Stay(nil), in.Stays...))
	for _, s := range marked {
		result.Metadata.Stats.StaysConsidered++
		if s.LikelyTest {
			result.Metadata.Stats.TestBookings++
		}
		if !known[s.UnitID] {
			result.Metadata.Stats.OrphanStays++
			continue
		}
		byUnit[s.UnitID] = append(byUnit[s.UnitID], s)
	}

	seen := make(map[units.ID]bool, len(in.Units))
	for _, u := range in.Units {
		if seen[u.ID] {
			result.Anomalies = append(result.Anomalies, Anomaly{Kind: AnomalyDuplicateUnit, UnitID: u.ID, UnitName: u.Name})
			continue
		}
		seen[u.ID] = true

		u.Category = r.options.classifier.Classify(u)

		input := Input{
			Unit:     u,
			Stays:    byUnit[u.ID],
			Calendar: in.Calendar[u.ID],
			Override: in.Overrides.For(u),
			Today:    today,
		}
		if err := in.CalendarErrors[u.ID]; err != nil {
			input.LookupErr = err
			result.Errors = append(result.Errors, err)
		} else if in.ReservationsErr != nil {
			input.LookupErr = in.ReservationsErr
		}

		res := r.Resolve(input)
		if staysIncomplete && !res.Degraded && res.Signal == authority.SignalDefault {
			res.Degraded = true
			res.Anomalies = append(res.Anomalies, Anomaly{
				Kind:     AnomalyDegraded,
				UnitID:   u.ID,
				UnitName: u.Name,
				Source:   sources.Reservations,
				Detail:   "reservation feed incomplete",
			})
		}
		if u.Category == units.CategoryUnknown {
			res.Anomalies = append(res.Anomalies, Anomaly{Kind: AnomalyUnknownCategory, UnitID: u.ID, UnitName: u.Name})
			result.Metadata.Stats.UnknownCategory++
		}
		if res.Degraded {
			result.Degraded = append(result.Degraded, u.ID)
		}
		if res.Override != nil {
			result.Metadata.Stats.OverridesActive++
		}
		for _, a := range res.Anomalies {
			if a.Kind == AnomalyOverlappingStays {
				result.Metadata.Stats.Overlaps++
			}
			logger.Warn().
				Str("unit_id", a.UnitID.String()).
				Str("unit", a.UnitName).
				Str("anomaly", string(a.Kind)).
				Strs("stays", a.StayIDs).
				Str("detail", a.Detail).
				Msg("Data inconsistency")
		}
		result.Anomalies = append(result.Anomalies, res.Anomalies...)
		result.Units = append(result.Units, UnitResult{Unit: u, Resolution: res})
	}
	if in.ReservationsErr != nil {
		result.Errors = append(result.Errors, in.ReservationsErr)
	}

	result.Finalize(r.options.now())
	logger.Info().
		Int("units", len(result.Units)).
		Int("degraded", len(result.Degraded)).
		Int("anomalies", len(result.Anomalies)).
		Dur("duration", result.Metadata.Duration).
		Msg("Reconciliation complete")
	return result
}

// sortByArrival orders stays by arrival, then by ID, so the earliest
// arrival is first and ties are stable across runs.
func sortByArrival(list []stays.Stay) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Arrival.Equal(list[j].Arrival) {
			return list[i].Arrival.Before(list[j].Arrival)
		}
		return list[i].ID < list[j].ID
	})
}
