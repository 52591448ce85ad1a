package staymap

import (
	"context"
	"time"

	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
	"github.com/agentstation/staymap/pkg/snapshot"
	"github.com/agentstation/staymap/pkg/tablesync"
)

// Compile-time interface check to ensure proper implementation.
var _ Syncer = (*client)(nil)

// Syncer writes reconciled snapshots to the tabular store.
type Syncer interface {
	// Sync runs a cycle and upserts its unit and category rows. Running it
	// twice with unchanged feeds writes nothing the second time.
	Sync(ctx context.Context, opts ...SyncOption) (*SyncResult, error)
}

// SyncOptions controls a sync.
type SyncOptions struct {
	DryRun    bool
	KeepStale bool
	Timeout   time.Duration
}

// SyncOption configures a sync.
type SyncOption func(*SyncOptions)

// NewSyncOptions returns sync options with defaults applied.
func NewSyncOptions(opts ...SyncOption) *SyncOptions {
	o := &SyncOptions{Timeout: constants.SyncTimeout}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithDryRun computes the plan without writing.
func WithDryRun(dryRun bool) SyncOption {
	return func(o *SyncOptions) {
		o.DryRun = dryRun
	}
}

// WithKeepStale leaves rows for units no longer in the catalog in place.
func WithKeepStale(keep bool) SyncOption {
	return func(o *SyncOptions) {
		o.KeepStale = keep
	}
}

// WithSyncTimeout bounds the cycle plus the store writes. Zero disables it.
func WithSyncTimeout(d time.Duration) SyncOption {
	return func(o *SyncOptions) {
		o.Timeout = d
	}
}

// SyncResult is the outcome of one sync.
type SyncResult struct {
	Snapshot   *snapshot.Snapshot `json:"snapshot" yaml:"snapshot"`
	Units      *tablesync.Result  `json:"units" yaml:"units"`
	Categories *tablesync.Result  `json:"categories" yaml:"categories"`
	DryRun     bool               `json:"dry_run" yaml:"dry_run"`
	Duration   time.Duration      `json:"duration" yaml:"duration"`
}

// HasErrors reports whether any row failed to sync.
func (r *SyncResult) HasErrors() bool {
	for _, t := range []*tablesync.Result{r.Units, r.Categories} {
		if t != nil && t.HasErrors() {
			return true
		}
	}
	return false
}

// Writes returns the number of rows created, updated or deleted.
func (r *SyncResult) Writes() int {
	n := 0
	for _, t := range []*tablesync.Result{r.Units, r.Categories} {
		if t != nil {
			n += t.Created + t.Updated + t.Deleted
		}
	}
	return n
}

// Sync implements Syncer.
func (c *client) Sync(ctx context.Context, opts ...SyncOption) (*SyncResult, error) {
	// Step 1: Parse options
	options := NewSyncOptions(opts...)
	if c.options.store == nil {
		return nil, errors.NewConfigError("store", "a store is required to sync", nil)
	}

	// Step 2: Setup context with timeout
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}
	start := time.Now()

	// Step 3: Run a cycle
	snap, _, err := c.cycle(ctx)
	if err != nil {
		return nil, err
	}

	// Step 4: Upsert both tables
	tsOpts := []tablesync.Option{
		tablesync.WithDryRun(options.DryRun),
		tablesync.WithDeleteStale(!options.KeepStale),
	}
	unitsResult, err := tablesync.Sync(ctx, c.options.store, c.options.tables.Units, snap.UnitRecords(), snapshot.UnitKey, tsOpts...)
	if err != nil {
		return nil, err
	}
	categoriesResult, err := tablesync.Sync(ctx, c.options.store, c.options.tables.Categories, snap.CategoryRecords(), snapshot.CategoryKey, tsOpts...)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{
		Snapshot:   snap,
		Units:      unitsResult,
		Categories: categoriesResult,
		DryRun:     options.DryRun,
		Duration:   time.Since(start),
	}

	// Step 5: Log and notify
	logging.FromContext(ctx).Info().
		Bool("dry_run", options.DryRun).
		Int("writes", result.Writes()).
		Int("errors", unitsResult.Errors+categoriesResult.Errors).
		Dur("duration", result.Duration).
		Msg("Sync complete")

	if !options.DryRun {
		c.hooks.triggerSynced(result)
	}
	return result, nil
}
