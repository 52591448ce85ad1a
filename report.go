package staymap

import (
	"context"
	"math"
	"time"

	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/reconciler"
	"github.com/agentstation/staymap/pkg/snapshot"
	"github.com/agentstation/staymap/pkg/store"
	"github.com/agentstation/staymap/pkg/tablesync"
	"github.com/agentstation/staymap/pkg/units"
)

// Compile-time interface check to ensure proper implementation.
var _ Reporter = (*client)(nil)

// MixedCurrency is reported when the active stays are priced in more than
// one currency. Amounts are never converted.
const MixedCurrency = "MIXED"

// Report fields.
const (
	FieldUnits          = "units"
	FieldNightlyRevenue = "nightly_revenue"
	FieldCurrency       = "currency"
	FieldSnapshotID     = "snapshot_id"
)

// Reporter posts the hourly occupancy report.
type Reporter interface {
	// PostHourlyReport runs a cycle and posts one report row for the
	// current UTC hour. A second call within the same hour writes nothing.
	PostHourlyReport(ctx context.Context) (*ReportResult, error)
}

// ReportResult is the outcome of one report post.
type ReportResult struct {
	Bucket         string             `json:"bucket" yaml:"bucket"`
	Posted         bool               `json:"posted" yaml:"posted"`
	NightlyRevenue float64            `json:"nightly_revenue" yaml:"nightly_revenue"`
	Currency       string             `json:"currency,omitempty" yaml:"currency,omitempty"`
	Fields         store.Fields       `json:"fields" yaml:"fields"`
	Snapshot       *snapshot.Snapshot `json:"-" yaml:"-"`
}

// PostHourlyReport implements Reporter.
func (c *client) PostHourlyReport(ctx context.Context) (*ReportResult, error) {
	if c.options.store == nil {
		return nil, errors.NewConfigError("store", "a store is required to post reports", nil)
	}

	snap, result, err := c.cycle(ctx)
	if err != nil {
		return nil, err
	}

	revenue, currency := nightlyRevenue(result)
	fields := store.Fields{
		FieldUnits:                  snap.Total,
		snapshot.FieldAvailable:     snap.Available,
		snapshot.FieldReserved:      snap.Reserved,
		snapshot.FieldBlocked:       snap.Blocked,
		snapshot.FieldOccupancyRate: snap.OccupancyRate,
		snapshot.FieldDegraded:      snap.Degraded,
		FieldNightlyRevenue:         revenue,
		FieldCurrency:               currency,
		FieldSnapshotID:             snap.ID,
		snapshot.FieldAsOf:          snap.TakenAt.Format(time.RFC3339),
	}

	bucket := tablesync.HourBucket(snap.TakenAt)
	posted, err := tablesync.PostOnce(ctx, c.options.store, c.options.tables.Reports, bucket, fields)
	if err != nil {
		return nil, err
	}

	return &ReportResult{
		Bucket:         bucket,
		Posted:         posted,
		NightlyRevenue: revenue,
		Currency:       currency,
		Fields:         fields,
		Snapshot:       snap,
	}, nil
}

// nightlyRevenue sums the nightly rate of every stay that makes a unit
// reserved today, in the stays' own currency.
func nightlyRevenue(result *reconciler.Result) (float64, string) {
	var (
		total    float64
		currency string
	)
	for _, u := range result.Units {
		if u.Status != units.StatusReserved || u.Stay == nil {
			continue
		}
		total += u.Stay.NightlyRate()
		switch {
		case u.Stay.Currency == "":
		case currency == "":
			currency = u.Stay.Currency
		case currency != u.Stay.Currency:
			currency = MixedCurrency
		}
	}
	return math.Round(total*100) / 100, currency
}
