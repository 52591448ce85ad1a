package staymap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/staymap/internal/store/memory"
	pkgerrors "github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/reconciler"
	"github.com/agentstation/staymap/pkg/snapshot"
	"github.com/agentstation/staymap/pkg/stays"
	"github.com/agentstation/staymap/pkg/tablesync"
	"github.com/agentstation/staymap/pkg/units"
)

func TestPostHourlyReport_OncePerHour(t *testing.T) {
	f := newFixture()
	st := memory.New()
	now := testNow
	c := f.client(t, WithStore(st), WithClock(func() time.Time { return now }))

	first, err := c.PostHourlyReport(context.Background())
	require.NoError(t, err)
	assert.True(t, first.Posted)
	assert.Equal(t, "2024-01-12T09", first.Bucket)
	assert.InDelta(t, 100.0, first.NightlyRevenue, 1e-9)
	assert.Equal(t, "EUR", first.Currency)

	now = testNow.Add(15 * time.Minute)
	second, err := c.PostHourlyReport(context.Background())
	require.NoError(t, err)
	assert.False(t, second.Posted)

	rows, err := st.List(context.Background(), "reports")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-01-12T09", rows[0].Fields.String(tablesync.BucketField))
	assert.Equal(t, 3, rows[0].Fields[FieldUnits])
	assert.Equal(t, 1, rows[0].Fields[snapshot.FieldReserved])
	assert.Equal(t, 33, rows[0].Fields[snapshot.FieldOccupancyRate])

	now = testNow.Add(time.Hour)
	third, err := c.PostHourlyReport(context.Background())
	require.NoError(t, err)
	assert.True(t, third.Posted)
	assert.Equal(t, "2024-01-12T10", third.Bucket)
}

func TestPostHourlyReport_RequiresStore(t *testing.T) {
	c := newFixture().client(t)

	_, err := c.PostHourlyReport(context.Background())
	assert.True(t, pkgerrors.IsAuthConfig(err))
}

func TestNightlyRevenue(t *testing.T) {
	reserved := func(price float64, currency string, nights int) reconciler.UnitResult {
		s := stays.Stay{TotalPrice: price, Currency: currency, Arrival: date(10), Departure: date(10 + nights)}
		return reconciler.UnitResult{Resolution: reconciler.Resolution{Status: units.StatusReserved, Stay: &s}}
	}

	tests := []struct {
		name     string
		units    []reconciler.UnitResult
		revenue  float64
		currency string
	}{
		{name: "empty", units: nil},
		{
			name:     "single currency",
			units:    []reconciler.UnitResult{reserved(300, "EUR", 3), reserved(100, "EUR", 3)},
			revenue:  133.33,
			currency: "EUR",
		},
		{
			name:     "mixed currencies are summed unconverted",
			units:    []reconciler.UnitResult{reserved(200, "EUR", 2), reserved(50, "GBP", 1)},
			revenue:  150,
			currency: MixedCurrency,
		},
		{
			name:     "unpriced stays count nothing",
			units:    []reconciler.UnitResult{reserved(0, "", 2), reserved(90, "USD", 3)},
			revenue:  30,
			currency: "USD",
		},
		{
			name: "blocked units are ignored",
			units: []reconciler.UnitResult{{
				Resolution: reconciler.Resolution{Status: units.StatusBlocked, Stay: &stays.Stay{TotalPrice: 500, Currency: "EUR", Arrival: date(10), Departure: date(11)}},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			revenue, currency := nightlyRevenue(&reconciler.Result{Units: tt.units})
			assert.InDelta(t, tt.revenue, revenue, 1e-9)
			assert.Equal(t, tt.currency, currency)
		})
	}
}
