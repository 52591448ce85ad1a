// Package tablesync upserts a set of records into a table of the tabular
// store by natural key, and deletes the rows no record claims.
//
// A sync never aborts on a single failed row: the failure is counted and
// the batch continues. Re-running with unchanged input writes nothing.
package tablesync

import (
	"context"
	"time"

	"github.com/agentstation/staymap/pkg/differ"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
	"github.com/agentstation/staymap/pkg/store"
)

// Result reports what one table sync did.
type Result struct {
	Table     string        `json:"table" yaml:"table"`
	Created   int           `json:"created" yaml:"created"`
	Updated   int           `json:"updated" yaml:"updated"`
	Unchanged int           `json:"unchanged" yaml:"unchanged"`
	Deleted   int           `json:"deleted" yaml:"deleted"`
	Errors    int           `json:"errors" yaml:"errors"`
	DryRun    bool          `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	// RowErrors holds one *errors.SyncRowError per failed row.
	RowErrors []error `json:"-" yaml:"-"`

	// Changeset is the plan the sync executed (or would execute on a dry run).
	Changeset *differ.Changeset `json:"-" yaml:"-"`
}

// HasErrors reports whether any row failed.
func (r *Result) HasErrors() bool {
	return r.Errors > 0
}

type options struct {
	differ      differ.Differ
	dryRun      bool
	deleteStale bool
}

// Option configures a sync.
type Option func(*options)

// WithDryRun plans the sync without writing. Counts report what would
// have happened.
func WithDryRun(dryRun bool) Option {
	return func(o *options) {
		o.dryRun = dryRun
	}
}

// WithDiffer sets the differ used to plan changes.
func WithDiffer(d differ.Differ) Option {
	return func(o *options) {
		if d != nil {
			o.differ = d
		}
	}
}

// WithDeleteStale controls whether unclaimed rows are deleted. Defaults to true.
func WithDeleteStale(enabled bool) Option {
	return func(o *options) {
		o.deleteStale = enabled
	}
}

// Sync makes table hold exactly records, matched by key. It returns an
// error only when the existing rows cannot be listed; row failures are
// reported on the Result.
func Sync(ctx context.Context, st store.Store, table string, records []store.Fields, key differ.KeyFunc, opts ...Option) (*Result, error) {
	o := &options{differ: differ.New(), deleteStale: true}
	for _, opt := range opts {
		opt(o)
	}

	ctx = logging.WithTable(ctx, table)
	logger := logging.FromContext(ctx)
	start := time.Now()

	existing, err := st.List(ctx, table)
	if err != nil {
		return nil, errors.WrapResource("list", table, "", err)
	}

	cs := o.differ.Records(existing, records, key)
	result := &Result{
		Table:     table,
		Unchanged: cs.Summary.Unchanged,
		DryRun:    o.dryRun,
		Changeset: cs,
	}

	for range cs.Invalid {
		result.fail(&errors.SyncRowError{Table: table, Op: "create", Err: errors.ErrInvalidInput})
	}

	if o.dryRun {
		result.Created = cs.Summary.Added
		result.Updated = cs.Summary.Updated
		if o.deleteStale {
			result.Deleted = cs.Summary.Removed
		}
		result.Duration = time.Since(start)
		logger.Info().Str("plan", cs.String()).Msg("Dry run")
		return result, nil
	}

	for _, add := range cs.Added {
		if err := ctx.Err(); err != nil {
			result.fail(&errors.SyncRowError{Table: table, Op: "create", Key: add.Key, Err: err})
			continue
		}
		if _, err := st.Create(ctx, table, add.Fields); err != nil {
			result.fail(&errors.SyncRowError{Table: table, Op: "create", Key: add.Key, Err: err})
			continue
		}
		result.Created++
	}

	for _, up := range cs.Updated {
		if err := ctx.Err(); err != nil {
			result.fail(&errors.SyncRowError{Table: table, Op: "update", Key: up.Key, RecordID: up.Existing.ID, Err: err})
			continue
		}
		if _, err := st.Update(ctx, table, up.Existing.ID, up.New); err != nil {
			result.fail(&errors.SyncRowError{Table: table, Op: "update", Key: up.Key, RecordID: up.Existing.ID, Err: err})
			continue
		}
		result.Updated++
	}

	if o.deleteStale {
		for _, rm := range cs.Removed {
			if err := ctx.Err(); err != nil {
				result.fail(&errors.SyncRowError{Table: table, Op: "delete", Key: rm.Key, RecordID: rm.Record.ID, Err: err})
				continue
			}
			if err := st.Delete(ctx, table, rm.Record.ID); err != nil {
				result.fail(&errors.SyncRowError{Table: table, Op: "delete", Key: rm.Key, RecordID: rm.Record.ID, Err: err})
				continue
			}
			result.Deleted++
		}
	}

	result.Duration = time.Since(start)
	for _, err := range result.RowErrors {
		logger.Warn().Err(err).Msg("Row sync failed")
	}
	logger.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("unchanged", result.Unchanged).
		Int("deleted", result.Deleted).
		Int("errors", result.Errors).
		Dur("duration", result.Duration).
		Msg("Table synced")
	return result, nil
}

func (r *Result) fail(err error) {
	r.Errors++
	r.RowErrors = append(r.RowErrors, err)
}
