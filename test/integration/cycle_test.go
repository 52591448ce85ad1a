package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agentstation/staymap"
	"github.com/agentstation/staymap/internal/sources/calendar"
	"github.com/agentstation/staymap/internal/sources/catalog"
	"github.com/agentstation/staymap/internal/sources/overrides"
	"github.com/agentstation/staymap/internal/sources/reservations"
	"github.com/agentstation/staymap/internal/store/memory"
	"github.com/agentstation/staymap/internal/transport"
	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/units"
)

var now = time.Date(2024, 1, 12, 9, 41, 0, 0, time.UTC)

func clock() time.Time { return now }

// feeds serves the catalog, reservations and calendar endpoints of a three
// unit portfolio from one server.
func feeds(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /units", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer catalog-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		page := []map[string]any{
			{"id": 1, "name": "Alfama Loft", "bedroomCount": 0, "city": "lisbon", "country": "pt"},
			{"id": 2, "name": "Baixa Flat", "bedroomCount": 1, "city": "lisbon", "country": "pt"},
			{"id": 3, "name": "Chiado House", "bedroomCount": 3, "city": "lisbon", "country": "pt"},
		}
		if r.URL.Query().Get("offset") != "0" {
			page = nil
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"units": page})
	})

	mux.HandleFunc("GET /reservations", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "reservations-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		rows := []map[string]any{
			{
				"id": "s1", "unitId": 1, "arrival": "2024-01-10", "departure": "2024-01-14",
				"status": "new", "guestName": "Ana Costa", "totalPrice": 400, "currency": "EUR",
			},
			{
				"id": "s2", "unitId": 2, "arrival": "2024-01-05", "departure": "2024-01-12",
				"status": "new", "guestName": "Bruno Lima", "totalPrice": 700, "currency": "EUR",
			},
		}
		if r.URL.Query().Get("offset") != "0" {
			rows = nil
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"reservations": rows})
	})

	mux.HandleFunc("GET /units/{id}/calendar", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "1":
			fmt.Fprint(w, `{"isAvailable":false,"reservationRefs":["s1"]}`)
		case "2":
			fmt.Fprint(w, `{"isAvailable":true}`)
		case "3":
			fmt.Fprint(w, `{"explicitlyBlocked":true,"isAvailable":false}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTransport(t *testing.T, source, url, key string, auth transport.Authenticator) *transport.Client {
	t.Helper()
	c, err := transport.New(transport.Config{
		Source:     source,
		BaseURL:    url,
		APIKey:     key,
		Auth:       auth,
		RetryCount: -1,
		RateLimit:  1000,
		Burst:      100,
	})
	if err != nil {
		t.Fatalf("transport.New(%s) failed: %v", source, err)
	}
	return c
}

func newClient(t *testing.T, st *memory.Store) staymap.Client {
	t.Helper()
	srv := feeds(t)

	client, err := staymap.New(
		staymap.WithCatalog(catalog.New(newTransport(t, "catalog", srv.URL, "catalog-key", &transport.BearerAuth{}))),
		staymap.WithReservations(reservations.New(
			newTransport(t, "reservations", srv.URL, "reservations-key", &transport.QueryAuth{Param: "key"}),
		)),
		staymap.WithCalendar(calendar.New(newTransport(t, "calendar", srv.URL, "", &transport.NoAuth{}))),
		staymap.WithStore(st),
		staymap.WithOverrides(overrides.New(st, constants.DefaultOverridesTable)),
		staymap.WithClock(clock),
	)
	if err != nil {
		t.Fatalf("staymap.New() failed: %v", err)
	}
	return client
}

func TestCycleOverHTTPFeeds(t *testing.T) {
	client := newClient(t, memory.New())

	snap, err := client.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}

	if snap.Date != "2024-01-12" {
		t.Errorf("Date = %s, want 2024-01-12", snap.Date)
	}
	if snap.Total != 3 || snap.Reserved != 1 || snap.Available != 1 || snap.Blocked != 1 {
		t.Errorf("counts = %d total, %d reserved, %d available, %d blocked", snap.Total, snap.Reserved, snap.Available, snap.Blocked)
	}
	if snap.OccupancyRate != 33 {
		t.Errorf("OccupancyRate = %d, want 33", snap.OccupancyRate)
	}
	if snap.Degraded != 0 {
		t.Errorf("Degraded = %d, want 0", snap.Degraded)
	}

	want := map[units.ID]units.Status{
		"1": units.StatusReserved,
		"2": units.StatusAvailable,
		"3": units.StatusBlocked,
	}
	for _, u := range snap.Units {
		if u.Status != want[u.ID] {
			t.Errorf("unit %s: status = %s, want %s", u.ID, u.Status, want[u.ID])
		}
	}
}

func TestSyncAndReportOverHTTPFeeds(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	client := newClient(t, st)

	result, err := client.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}
	if result.Writes() != 7 {
		t.Errorf("first sync wrote %d rows, want 7", result.Writes())
	}

	again, err := client.Sync(ctx)
	if err != nil {
		t.Fatalf("second Sync() failed: %v", err)
	}
	if again.Writes() != 0 {
		t.Errorf("second sync wrote %d rows, want 0", again.Writes())
	}

	report, err := client.PostHourlyReport(ctx)
	if err != nil {
		t.Fatalf("PostHourlyReport() failed: %v", err)
	}
	if !report.Posted || report.Bucket != "2024-01-12T09" {
		t.Errorf("report = posted %v, bucket %s", report.Posted, report.Bucket)
	}

	rows, err := st.List(ctx, constants.DefaultReportsTable)
	if err != nil {
		t.Fatalf("List(reports) failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("reports table has %d rows, want 1", len(rows))
	}
}
