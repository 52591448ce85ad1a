// Package staymap provides the main entry point for the staymap occupancy
// reconciliation system. A Client runs reconciliation cycles over the
// configured feeds, exposes the resulting snapshot, and syncs it to a
// tabular store.
//
// Example usage:
//
//	c, err := staymap.New(
//	    staymap.WithCatalog(catalogClient),
//	    staymap.WithReservations(reservationsClient),
//	    staymap.WithCalendar(calendarClient),
//	    staymap.WithOverrides(overridesReader),
//	    staymap.WithStore(tableStore),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.AutoSyncOff()
//
//	c.OnAnomaly(func(a reconciler.Anomaly) {
//	    log.Printf("%s: %s", a.Kind, a.UnitName)
//	})
//
//	snap, err := c.Snapshot(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d%% occupied\n", snap.OccupancyRate)
//
//	result, err := c.Sync(ctx, staymap.WithDryRun(true))
package staymap

import (
	"context"
	"sync"
	"time"

	"github.com/agentstation/staymap/pkg/aggregate"
	"github.com/agentstation/staymap/pkg/classifier"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/reconciler"
	"github.com/agentstation/staymap/pkg/snapshot"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Reader provides the reconciled view of the portfolio.
type Reader interface {
	// Snapshot runs a fresh cycle and returns its snapshot
	Snapshot(ctx context.Context) (*snapshot.Snapshot, error)

	// Categories runs a fresh cycle and returns the category breakdown
	Categories(ctx context.Context) ([]aggregate.CategorySnapshot, error)

	// LastSnapshot returns the snapshot of the most recent cycle, if any.
	// Cycles never read it.
	LastSnapshot() (*snapshot.Snapshot, bool)
}

// Client reconciles the portfolio and keeps the store in step.
type Client interface {

	// Reader runs cycles and exposes snapshots
	Reader

	// Syncer writes snapshots to the tabular store
	Syncer

	// Reporter posts the hourly report
	Reporter

	// AutoSyncer provides access to automatic sync controls
	AutoSyncer

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {

	// options are the configured options for the client
	options *options

	// reconciler decides unit statuses; it keeps no state between cycles
	reconciler reconciler.Reconciler

	// last snapshot, served to readers that accept a cached view
	mu   sync.RWMutex
	last *snapshot.Snapshot

	// auto sync state
	syncTicker *time.Ticker       // ticker that triggers auto syncs
	stopCh     chan struct{}      // stop channel to stop auto syncs
	syncCancel context.CancelFunc // cancel function for the sync goroutine
	hooks      *hooks             // event hooks for cycles and syncs
}

// New creates a new Client instance with the given options.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	recOpts := []reconciler.Option{
		reconciler.WithClassifier(classifier.New(classifier.WithPremiumUnits(o.premium...))),
		reconciler.WithClock(o.now),
	}
	if o.detector != nil {
		recOpts = append(recOpts, reconciler.WithTestDetector(o.detector))
	}
	if o.authority != nil {
		recOpts = append(recOpts, reconciler.WithAuthority(o.authority))
	}
	rec, err := reconciler.New(recOpts...)
	if err != nil {
		return nil, errors.WrapResource("create", "reconciler", "", err)
	}

	c := &client{
		options:    o,
		reconciler: rec,
		stopCh:     make(chan struct{}),
		hooks:      newHooks(),
	}

	// start auto syncs if enabled
	if o.autoSyncEnabled {
		if err := c.AutoSyncOn(); err != nil {
			return nil, errors.WrapResource("start", "auto-sync", "", err)
		}
	}

	return c, nil
}

// Snapshot implements Reader.
func (c *client) Snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	snap, _, err := c.cycle(ctx)
	return snap, err
}

// Categories implements Reader.
func (c *client) Categories(ctx context.Context) ([]aggregate.CategorySnapshot, error) {
	snap, _, err := c.cycle(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Categories, nil
}

// LastSnapshot implements Reader.
func (c *client) LastSnapshot() (*snapshot.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.last != nil
}

// OnCycleComplete implements Hooks.
func (c *client) OnCycleComplete(fn CycleCompleteHook) { c.hooks.OnCycleComplete(fn) }

// OnAnomaly implements Hooks.
func (c *client) OnAnomaly(fn AnomalyHook) { c.hooks.OnAnomaly(fn) }

// OnSynced implements Hooks.
func (c *client) OnSynced(fn SyncedHook) { c.hooks.OnSynced(fn) }

func (c *client) setLast(snap *snapshot.Snapshot) {
	c.mu.Lock()
	c.last = snap
	c.mu.Unlock()
}
