package app

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/staymap/cmd/application"
	"github.com/agentstation/staymap/internal/sources/fake"
	"github.com/agentstation/staymap/internal/store/memory"
	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/snapshot"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	isolate(t)

	st := memory.New()
	client, err := fake.Portfolio().Client(st, constants.DefaultOverridesTable)
	require.NoError(t, err)

	a, err := New("v1.0.0", "abc123", "2024-01-12", "test",
		WithLogger(nopLogger()),
		WithClient(client, st),
	)
	require.NoError(t, err)
	return a
}

func execute(t *testing.T, a *App, args ...string) (string, error) {
	t.Helper()
	root := a.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestApp_Accessors(t *testing.T) {
	a := newTestApp(t)

	assert.Equal(t, application.BuildInfo{Version: "v1.0.0", Commit: "abc123", Date: "2024-01-12", BuiltBy: "test"}, a.Build())
	assert.Equal(t, constants.DefaultUnitsTable, a.Tables().Units)
	assert.Equal(t, constants.DefaultOverridesTable, a.OverridesTable())
	assert.Equal(t, constants.DefaultAutoSyncInterval, a.AutoSyncInterval())
}

func TestApp_ClientIsSingleton(t *testing.T) {
	a := newTestApp(t)

	first, err := a.Client()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := a.Client()
			assert.NoError(t, err)
			assert.Same(t, first, c)
		}()
	}
	wg.Wait()
}

func TestApp_ClientRequiresFeeds(t *testing.T) {
	isolate(t)
	a, err := New("dev", "", "", "", WithLogger(nopLogger()))
	require.NoError(t, err)

	_, err = a.Client()
	require.Error(t, err)
	assert.True(t, errors.IsAuthConfig(err))
	assert.Contains(t, err.Error(), "CATALOG_URL")
}

func TestApp_ShutdownReleasesResources(t *testing.T) {
	a := newTestApp(t)
	_, err := a.Client()
	require.NoError(t, err)

	require.NoError(t, a.Shutdown(context.Background()))
	require.NoError(t, a.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestExecute_Snapshot(t *testing.T) {
	a := newTestApp(t)

	out, err := execute(t, a, "snapshot", "-o", "json")
	require.NoError(t, err)

	var snap snapshot.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "2024-01-12", snap.Date)
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 33, snap.OccupancyRate)
}

func TestExecute_InvalidFormat(t *testing.T) {
	a := newTestApp(t)

	_, err := execute(t, a, "snapshot", "-o", "xml")
	require.Error(t, err)

	var verr *errors.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestExecute_VersionWithoutConfig(t *testing.T) {
	isolate(t)
	a, err := New("v2.0.0", "def456", "", "", WithLogger(nopLogger()))
	require.NoError(t, err)

	out, err := execute(t, a, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "staymap version v2.0.0")
}

func TestExecute_ConfigFlagMissingFile(t *testing.T) {
	a := newTestApp(t)

	_, err := execute(t, a, "version", "--config", "/nonexistent/staymap.yaml")
	require.Error(t, err)
}

func TestExecute_RegistersCommands(t *testing.T) {
	a := newTestApp(t)
	root := a.createRootCommand()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"snapshot", "categories", "sync", "report", "export", "overrides", "serve", "worker", "auth", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestConfig_BuildMemoryStore(t *testing.T) {
	cfg := validConfig()
	cfg.HTTPTimeout = constants.DefaultHTTPTimeout
	cfg.RateLimit = constants.DefaultRateLimit
	cfg.CatalogAuth, cfg.ReservationsAuth, cfg.CalendarAuth = "bearer", "header:X-Api-Key", "none"
	cfg.CatalogAPIKey, cfg.ReservationsAPIKey = "catalog-key", "reservations-key"
	cfg.UnitsTable = constants.DefaultUnitsTable
	cfg.CategoryTable = constants.DefaultCategoriesTable
	cfg.ReportsTable = constants.DefaultReportsTable
	cfg.OverridesTable = constants.DefaultOverridesTable
	cfg.AutoSyncInterval = constants.DefaultAutoSyncInterval
	cfg.Lookback, cfg.Lookahead = constants.DefaultLookback, constants.DefaultLookahead
	cfg.PremiumUnits = []string{"42"}

	res, err := cfg.build(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.close() })

	assert.NotNil(t, res.client)
	assert.IsType(t, &memory.Store{}, res.store)
	assert.Empty(t, res.closers)
}

func TestConfig_BuildRejectsUnknownAuth(t *testing.T) {
	cfg := validConfig()
	cfg.CatalogAuth = "kerberos"

	_, err := cfg.build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsAuthConfig(err))
}

func TestConfig_BuildRequiresAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.CatalogAuth = "bearer"

	_, err := cfg.build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAPIKeyRequired)
}
