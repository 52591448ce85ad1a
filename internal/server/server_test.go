package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/staymap"
	"github.com/agentstation/staymap/pkg/aggregate"
	pkgerrors "github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/snapshot"
	"github.com/agentstation/staymap/pkg/tablesync"
	"github.com/agentstation/staymap/pkg/units"
)

// mockClient runs fake cycles that count themselves.
type mockClient struct {
	mu       sync.Mutex
	cycles   int
	err      error
	syncOpts *staymap.SyncOptions
	last     *snapshot.Snapshot
	onCycle  []staymap.CycleCompleteHook
	onSynced []staymap.SyncedHook
}

func newMockClient() *mockClient {
	return &mockClient{}
}

func (m *mockClient) cycle() (*snapshot.Snapshot, error) {
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return nil, m.err
	}
	m.cycles++
	snap := &snapshot.Snapshot{
		ID:            "snap-" + string(rune('0'+m.cycles)),
		Date:          "2024-01-12",
		TakenAt:       time.Date(2024, 1, 12, 9, m.cycles, 0, 0, time.UTC),
		Total:         3,
		Available:     1,
		Reserved:      1,
		Blocked:       1,
		OccupancyRate: 33,
		Categories: []aggregate.CategorySnapshot{
			{Category: units.CategoryStudio, Reserved: 1, Total: 1, OccupancyRate: 100},
			{Category: units.CategoryOneBR, Available: 1, Total: 1},
			{Category: units.CategoryThreeBR, Blocked: 1, Total: 1},
		},
		Units: []snapshot.UnitRow{
			{ID: "1", Name: "Alfama Loft", Category: units.CategoryStudio, Status: units.StatusReserved, StayID: "s1"},
			{ID: "2", Name: "Baixa Flat", Category: units.CategoryOneBR, Status: units.StatusAvailable},
			{ID: "3", Name: "Chiado House", Category: units.CategoryThreeBR, Status: units.StatusBlocked},
		},
	}
	m.last = snap
	hooks := append([]staymap.CycleCompleteHook(nil), m.onCycle...)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(snap)
	}
	return snap, nil
}

func (m *mockClient) cycleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cycles
}

func (m *mockClient) Snapshot(context.Context) (*snapshot.Snapshot, error) {
	return m.cycle()
}

func (m *mockClient) Categories(context.Context) ([]aggregate.CategorySnapshot, error) {
	snap, err := m.cycle()
	if err != nil {
		return nil, err
	}
	return snap.Categories, nil
}

func (m *mockClient) LastSnapshot() (*snapshot.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.last != nil
}

func (m *mockClient) Sync(_ context.Context, opts ...staymap.SyncOption) (*staymap.SyncResult, error) {
	o := staymap.NewSyncOptions(opts...)
	m.mu.Lock()
	m.syncOpts = o
	m.mu.Unlock()

	snap, err := m.cycle()
	if err != nil {
		return nil, err
	}
	result := &staymap.SyncResult{
		Snapshot:   snap,
		Units:      &tablesync.Result{Table: "units", Created: 3},
		Categories: &tablesync.Result{Table: "categories", Created: 4},
		DryRun:     o.DryRun,
	}
	m.mu.Lock()
	hooks := append([]staymap.SyncedHook(nil), m.onSynced...)
	m.mu.Unlock()
	if !o.DryRun {
		for _, fn := range hooks {
			fn(result)
		}
	}
	return result, nil
}

func (m *mockClient) OnCycleComplete(fn staymap.CycleCompleteHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCycle = append(m.onCycle, fn)
}

func (m *mockClient) OnAnomaly(staymap.AnomalyHook) {}

func (m *mockClient) OnSynced(fn staymap.SyncedHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSynced = append(m.onSynced, fn)
}

func newTestServer(t *testing.T, client *mockClient, mutate ...func(*Config)) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RateLimit = 0
	for _, fn := range mutate {
		fn(&cfg)
	}
	logger := zerolog.Nop()
	srv, err := New(client, cfg, &logger)
	if err != nil {
		t.Fatalf("server.New() failed: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func do(t *testing.T, srv *Server, method, target string, header ...string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: invalid JSON body: %v", method, target, err)
		}
	}
	return w.Code, env
}

// TestNew_Validation tests constructor checks.
func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, DefaultConfig(), nil); !pkgerrors.IsAuthConfig(err) {
		t.Errorf("expected config error for nil client, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"auth without key", func(c *Config) { c.AuthEnabled = true }},
		{"port out of range", func(c *Config) { c.Port = 70000 }},
		{"relative prefix", func(c *Config) { c.PathPrefix = "api" }},
		{"negative rate limit", func(c *Config) { c.RateLimit = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := New(newMockClient(), cfg, nil); !pkgerrors.IsAuthConfig(err) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
}

// TestConfig_Normalize tests defaulting of zero values.
func TestConfig_Normalize(t *testing.T) {
	cfg, err := Config{PathPrefix: "/v2/"}.normalize()
	if err != nil {
		t.Fatalf("normalize() failed: %v", err)
	}
	if cfg.PathPrefix != "/v2" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.PathPrefix)
	}
	if cfg.CacheTTL != DefaultConfig().CacheTTL {
		t.Errorf("expected default cache TTL, got %v", cfg.CacheTTL)
	}
	if cfg.AuthHeader != "X-API-Key" {
		t.Errorf("expected default auth header, got %q", cfg.AuthHeader)
	}
	if got := (Config{Host: "::1", Port: 9090}).Addr(); got != "[::1]:9090" {
		t.Errorf("expected [::1]:9090, got %s", got)
	}
}

// TestHealthAndReady tests liveness and readiness.
func TestHealthAndReady(t *testing.T) {
	client := newMockClient()
	srv := newTestServer(t, client)

	for _, path := range []string{"/health", "/api/v1/health"} {
		if code, _ := do(t, srv, "GET", path); code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, code)
		}
	}

	code, env := do(t, srv, "GET", "/api/v1/ready")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before any cycle, got %d", code)
	}
	if env.Error == nil || env.Error.Code != "SERVICE_UNAVAILABLE" {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %+v", env.Error)
	}

	if err := srv.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() failed: %v", err)
	}
	if code, _ := do(t, srv, "GET", "/api/v1/ready"); code != http.StatusOK {
		t.Errorf("expected 200 after a cycle, got %d", code)
	}
}

// TestSnapshot_ServedFromCache tests that reads reuse the last cycle.
func TestSnapshot_ServedFromCache(t *testing.T) {
	client := newMockClient()
	srv := newTestServer(t, client)

	code, env := do(t, srv, "GET", "/api/v1/snapshot")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var snap snapshot.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Total != 3 || snap.OccupancyRate != 33 {
		t.Errorf("unexpected snapshot totals: %+v", snap)
	}

	do(t, srv, "GET", "/api/v1/categories")
	do(t, srv, "GET", "/api/v1/units")
	if n := client.cycleCount(); n != 1 {
		t.Errorf("expected 1 cycle, got %d", n)
	}

	if code, _ := do(t, srv, "GET", "/api/v1/snapshot?fresh=true"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if n := client.cycleCount(); n != 2 {
		t.Errorf("expected fresh=true to run a cycle, got %d cycles", n)
	}

	if code, _ := do(t, srv, "GET", "/api/v1/snapshot?fresh=maybe"); code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid fresh, got %d", code)
	}
}

// TestCategories tests the category breakdown.
func TestCategories(t *testing.T) {
	srv := newTestServer(t, newMockClient())

	code, env := do(t, srv, "GET", "/api/v1/categories")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var view struct {
		Categories []aggregate.CategorySnapshot `json:"categories"`
		Portfolio  aggregate.CategorySnapshot   `json:"portfolio"`
	}
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(view.Categories) != 3 {
		t.Errorf("expected 3 categories, got %d", len(view.Categories))
	}
	if view.Portfolio.Total != 3 || view.Portfolio.Reserved != 1 {
		t.Errorf("unexpected portfolio: %+v", view.Portfolio)
	}
}

// TestUnits tests unit listing, filtering and lookup.
func TestUnits(t *testing.T) {
	srv := newTestServer(t, newMockClient())

	tests := []struct {
		name   string
		target string
		status int
		count  int
	}{
		{name: "all", target: "/api/v1/units", status: http.StatusOK, count: 3},
		{name: "by status", target: "/api/v1/units?status=reserved", status: http.StatusOK, count: 1},
		{name: "by category label", target: "/api/v1/units?category=3BR", status: http.StatusOK, count: 1},
		{name: "no match", target: "/api/v1/units?status=available&category=studio", status: http.StatusOK, count: 0},
		{name: "bad status", target: "/api/v1/units?status=occupied", status: http.StatusBadRequest},
		{name: "bad category", target: "/api/v1/units?category=penthouse", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, srv, "GET", tt.target)
			if code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, code)
			}
			if code != http.StatusOK {
				return
			}
			var body struct {
				Count int `json:"count"`
			}
			if err := json.Unmarshal(env.Data, &body); err != nil {
				t.Fatalf("decode units: %v", err)
			}
			if body.Count != tt.count {
				t.Errorf("expected %d units, got %d", tt.count, body.Count)
			}
		})
	}

	code, env := do(t, srv, "GET", "/api/v1/units/1")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var row snapshot.UnitRow
	if err := json.Unmarshal(env.Data, &row); err != nil {
		t.Fatalf("decode unit: %v", err)
	}
	if row.Name != "Alfama Loft" || row.Status != units.StatusReserved {
		t.Errorf("unexpected unit: %+v", row)
	}

	code, env = do(t, srv, "GET", "/api/v1/units/99")
	if code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %+v", env.Error)
	}
}

// TestSync tests the sync endpoint and its query options.
func TestSync(t *testing.T) {
	client := newMockClient()
	srv := newTestServer(t, client)

	code, env := do(t, srv, "POST", "/api/v1/sync?dry_run=true&keep_stale=1")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !client.syncOpts.DryRun || !client.syncOpts.KeepStale {
		t.Errorf("expected dry run and keep stale, got %+v", client.syncOpts)
	}
	var result staymap.SyncResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode sync result: %v", err)
	}
	if !result.DryRun || result.Units.Created != 3 {
		t.Errorf("unexpected sync result: %+v", result)
	}

	if code, _ := do(t, srv, "POST", "/api/v1/sync?dry_run=maybe"); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
	if code, _ := do(t, srv, "GET", "/api/v1/sync"); code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", code)
	}
}

// TestErrorMapping tests how cycle failures reach the caller.
func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{
			name:   "upstream down",
			err:    pkgerrors.NewFetchError("catalog", "list units", errors.New("connection refused")),
			status: http.StatusBadGateway,
		},
		{
			name:   "rejected credentials",
			err:    pkgerrors.NewFetchError("reservations", "list", pkgerrors.NewAuthenticationError("reservations", "bearer", "401", nil)),
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "store missing",
			err:    pkgerrors.NewConfigError("store", "a store is required to sync", nil),
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "cycle timeout",
			err:    &pkgerrors.TimeoutError{Operation: "cycle"},
			status: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMockClient()
			client.err = tt.err
			srv := newTestServer(t, client)

			if code, _ := do(t, srv, "GET", "/api/v1/snapshot"); code != tt.status {
				t.Errorf("snapshot: expected %d, got %d", tt.status, code)
			}
			if code, _ := do(t, srv, "POST", "/api/v1/sync"); code != tt.status {
				t.Errorf("sync: expected %d, got %d", tt.status, code)
			}
		})
	}
}

// TestAuth tests API key protection with public health paths.
func TestAuth(t *testing.T) {
	srv := newTestServer(t, newMockClient(), func(c *Config) {
		c.AuthEnabled = true
		c.APIKey = "secret-key"
	})

	if code, _ := do(t, srv, "GET", "/api/v1/health"); code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", code)
	}
	if code, _ := do(t, srv, "GET", "/api/v1/snapshot"); code != http.StatusUnauthorized {
		t.Errorf("no key: expected 401, got %d", code)
	}
	if code, _ := do(t, srv, "GET", "/api/v1/snapshot", "X-API-Key", "wrong"); code != http.StatusUnauthorized {
		t.Errorf("wrong key: expected 401, got %d", code)
	}
	if code, _ := do(t, srv, "GET", "/api/v1/snapshot", "X-API-Key", "secret-key"); code != http.StatusOK {
		t.Errorf("valid key: expected 200, got %d", code)
	}
	if code, _ := do(t, srv, "GET", "/api/v1/snapshot", "Authorization", "Bearer secret-key"); code != http.StatusOK {
		t.Errorf("bearer key: expected 200, got %d", code)
	}
}

// TestRateLimit tests that the limiter is wired into the chain.
func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, newMockClient(), func(c *Config) { c.RateLimit = 2 })

	var last int
	for i := 0; i < 3; i++ {
		last, _ = do(t, srv, "GET", "/api/v1/health")
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", last)
	}
}

// TestCacheFollowsCycles tests that cycles run elsewhere refresh the cache.
func TestCacheFollowsCycles(t *testing.T) {
	client := newMockClient()
	srv := newTestServer(t, client)

	if _, err := client.Snapshot(context.Background()); err != nil {
		t.Fatal(err)
	}
	latest, ok := srv.Cache().Latest()
	if !ok {
		t.Fatal("expected hook to populate the cache")
	}
	if latest.ID != "snap-1" {
		t.Errorf("expected snap-1, got %s", latest.ID)
	}
}

// TestOpenAPI tests that the embedded document is served without a key.
func TestOpenAPI(t *testing.T) {
	srv := newTestServer(t, newMockClient(), func(c *Config) {
		c.AuthEnabled = true
		c.APIKey = "secret-key"
	})

	tests := []struct {
		path        string
		contentType string
	}{
		{"/api/v1/openapi.json", "application/json"},
		{"/api/v1/openapi.yaml", "application/x-yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			if got := w.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if got := w.Header().Get("Cache-Control"); got != "public, max-age=3600" {
				t.Errorf("Cache-Control = %q", got)
			}
			if w.Body.Len() == 0 {
				t.Error("expected a non-empty document")
			}
		})
	}

	req := httptest.NewRequest("GET", "/api/v1/openapi.json", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	var doc map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("openapi.json is not JSON: %v", err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Errorf("openapi version = %v", doc["openapi"])
	}
}

// TestSnapshot_Headers tests the snapshot ID and cache outcome headers.
func TestSnapshot_Headers(t *testing.T) {
	srv := newTestServer(t, newMockClient())

	get := func(target string) http.Header {
		req := httptest.NewRequest("GET", target, nil)
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", target, w.Code)
		}
		return w.Header()
	}

	steps := []struct {
		target string
		id     string
		cache  string
	}{
		{"/api/v1/snapshot", "snap-1", "MISS"},
		{"/api/v1/units", "snap-1", "HIT"},
		{"/api/v1/snapshot?fresh=true", "snap-2", "MISS"},
		{"/api/v1/categories", "snap-2", "HIT"},
	}
	for _, step := range steps {
		h := get(step.target)
		if got := h.Get("X-Snapshot-ID"); got != step.id {
			t.Errorf("%s: X-Snapshot-ID = %q, want %q", step.target, got, step.id)
		}
		if got := h.Get("X-Cache"); got != step.cache {
			t.Errorf("%s: X-Cache = %q, want %q", step.target, got, step.cache)
		}
	}
}

// TestCORS_ExposesSnapshotHeaders tests that browsers can read the snapshot headers.
func TestCORS_ExposesSnapshotHeaders(t *testing.T) {
	srv := newTestServer(t, newMockClient(), func(c *Config) {
		c.CORSEnabled = true
		c.CORSOrigins = []string{"https://ops.example"}
	})

	req := httptest.NewRequest("GET", "/api/v1/snapshot", nil)
	req.Header.Set("Origin", "https://ops.example")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://ops.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	exposed := w.Header().Get("Access-Control-Expose-Headers")
	for _, h := range []string{"X-Snapshot-ID", "X-Cache", "X-Request-ID"} {
		if !strings.Contains(exposed, h) {
			t.Errorf("expected %s in exposed headers %q", h, exposed)
		}
	}

	req = httptest.NewRequest("OPTIONS", "/api/v1/sync", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("disallowed preflight: expected 403, got %d", w.Code)
	}
}
