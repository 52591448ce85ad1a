package calendar_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/staymap/internal/sources/calendar"
	"github.com/agentstation/staymap/internal/transport"
	pkgcalendar "github.com/agentstation/staymap/pkg/calendar"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/units"
)

var today = time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)

func newClient(t *testing.T, url string) *calendar.Client {
	t.Helper()
	tc, err := transport.New(transport.Config{
		Source:     "calendar",
		BaseURL:    url,
		Auth:       &transport.NoAuth{},
		RetryCount: -1,
		RateLimit:  1000,
		Burst:      100,
	})
	require.NoError(t, err)
	return calendar.New(tc)
}

func TestCalendarDay(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/units/1/calendar", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-01-12", r.URL.Query().Get("date"))
		fmt.Fprint(w, `{"explicitlyBlocked":false,"blockedUnitCount":0,"reservationRefs":["r9"],"isAvailable":false}`)
	})
	mux.HandleFunc("/units/2/calendar", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"blockedUnitCount":1}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := newClient(t, srv.URL)

	day, err := c.CalendarDay(context.Background(), "1", today)
	require.NoError(t, err)
	assert.True(t, day.ReportsUnavailable())
	assert.True(t, day.References("r9"))
	assert.False(t, day.IsBlocked())
	assert.Equal(t, units.ID("1"), day.UnitID)

	day, err = c.CalendarDay(context.Background(), "2", today)
	require.NoError(t, err)
	assert.True(t, day.IsBlocked())
	assert.True(t, day.IsAvailable, "omitted availability reads as available")

	day, err = c.CalendarDay(context.Background(), "404", today)
	require.NoError(t, err)
	assert.Nil(t, day)
}

type fakeReader struct {
	inFlight, peak atomic.Int32
	fail           map[units.ID]bool
	slow           map[units.ID]bool
}

func (f *fakeReader) CalendarDay(ctx context.Context, id units.ID, date time.Time) (*pkgcalendar.Day, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	if f.slow[id] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.fail[id] {
		return nil, errors.NewAPIError("calendar", 503, "down")
	}
	if id == "none" {
		return nil, nil
	}
	return &pkgcalendar.Day{UnitID: id, Date: date, IsAvailable: true}, nil
}

func TestFetchDays_IsolatesFailures(t *testing.T) {
	reader := &fakeReader{
		fail: map[units.ID]bool{"3": true},
		slow: map[units.ID]bool{"4": true},
	}
	ids := []units.ID{"1", "2", "3", "4", "5", "6", "none"}

	got := calendar.FetchDays(context.Background(), reader, ids, today, calendar.FetchOptions{
		Concurrency: 2,
		Timeout:     50 * time.Millisecond,
	})

	assert.Len(t, got.Days, 4)
	assert.NotContains(t, got.Days, units.ID("none"))
	require.Len(t, got.Errors, 2)

	var partial *errors.PartialFetchError
	require.ErrorAs(t, got.Errors["3"], &partial)
	assert.Equal(t, "3", partial.UnitID)
	assert.True(t, errors.IsTransient(got.Errors["3"]))
	assert.True(t, errors.IsTimeout(got.Errors["4"]))

	assert.LessOrEqual(t, reader.peak.Load(), int32(2), "pool size bounds concurrency")
}
