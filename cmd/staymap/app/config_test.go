package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
)

// isolate keeps the test away from a developer's ~/.staymap.yaml and env.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"CATALOG_URL", "RESERVATIONS_URL", "CALENDAR_URL",
		"STORE_BACKEND", "STORE_URL", "DATABASE_URL", "REDIS_URL",
		"REGION_COUNTRIES", "REGION_CITIES", "PREMIUM_UNITS",
		"CALENDAR_CONCURRENCY", "LOG_LEVEL", "OUTPUT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func validConfig() *Config {
	return &Config{
		CatalogURL:          "https://catalog.example",
		ReservationsURL:     "https://reservations.example",
		CalendarURL:         "https://calendar.example",
		StoreBackend:        StoreMemory,
		CalendarConcurrency: constants.DefaultCalendarConcurrency,
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfigFile("")
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, constants.DefaultUnitsTable, cfg.UnitsTable)
	assert.Equal(t, constants.DefaultCategoriesTable, cfg.CategoryTable)
	assert.Equal(t, constants.DefaultReportsTable, cfg.ReportsTable)
	assert.Equal(t, constants.DefaultOverridesTable, cfg.OverridesTable)
	assert.Equal(t, constants.DefaultCalendarConcurrency, cfg.CalendarConcurrency)
	assert.Equal(t, constants.DefaultAutoSyncInterval, cfg.AutoSyncInterval)
	assert.Equal(t, constants.CatalogCacheTTL, cfg.CatalogCacheTTL)
	assert.Equal(t, "bearer", cfg.CatalogAuth)
	assert.Empty(t, cfg.RegionCountries)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadConfig_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("CATALOG_URL", "https://catalog.example")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("REGION_COUNTRIES", "PT, ES ,")
	t.Setenv("CALENDAR_CONCURRENCY", "16")
	t.Setenv("AUTO_SYNC_INTERVAL", "5m")

	cfg, err := LoadConfigFile("")
	require.NoError(t, err)

	assert.Equal(t, "https://catalog.example", cfg.CatalogURL)
	assert.Equal(t, StorePostgres, cfg.StoreBackend)
	assert.Equal(t, []string{"PT", "ES"}, cfg.RegionCountries)
	assert.Equal(t, 16, cfg.CalendarConcurrency)
	assert.Equal(t, 5*time.Minute, cfg.AutoSyncInterval)
}

func TestLoadConfig_File(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "staymap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
catalog_url: https://catalog.example
reservations_url: https://reservations.example
calendar_url: https://calendar.example
region_cities:
  - Lisbon
  - Porto
premium_units: "Graça Terrace"
units_table: Occupancy
`), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, []string{"Lisbon", "Porto"}, cfg.RegionCities)
	assert.Equal(t, []string{"Graça Terrace"}, cfg.PremiumUnits)
	assert.Equal(t, "Occupancy", cfg.UnitsTable)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvBeatsFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "staymap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog_url: https://file.example\n"), 0o600))
	t.Setenv("CATALOG_URL", "https://env.example")

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example", cfg.CatalogURL)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsAuthConfig(err))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing catalog", mutate: func(c *Config) { c.CatalogURL = " " }, wantErr: "CATALOG_URL"},
		{name: "missing reservations", mutate: func(c *Config) { c.ReservationsURL = "" }, wantErr: "RESERVATIONS_URL"},
		{name: "missing calendar", mutate: func(c *Config) { c.CalendarURL = "" }, wantErr: "CALENDAR_URL"},
		{name: "tableapi without url", mutate: func(c *Config) { c.StoreBackend = StoreTableAPI }, wantErr: "STORE_URL"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.StoreBackend = StorePostgres }, wantErr: "DATABASE_URL"},
		{name: "unknown backend", mutate: func(c *Config) { c.StoreBackend = "sheets" }, wantErr: "STORE_BACKEND"},
		{name: "zero concurrency", mutate: func(c *Config) { c.CalendarConcurrency = 0 }, wantErr: "CALENDAR_CONCURRENCY"},
		{name: "too much concurrency", mutate: func(c *Config) { c.CalendarConcurrency = constants.MaxCalendarConcurrency + 1 }, wantErr: "CALENDAR_CONCURRENCY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var cerr *errors.ConfigError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}

func TestConfig_UpdateFromFlags(t *testing.T) {
	cfg := &Config{Format: "yaml", LogLevel: "warn"}

	cfg.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "yaml", cfg.Format, "empty flag keeps the configured format")
	assert.Equal(t, "warn", cfg.LogLevel)

	cfg.UpdateFromFlags(false, false, false, "json", "debug")
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestConfig_Targets(t *testing.T) {
	cfg := validConfig()
	cfg.StoreBackend = StorePostgres
	cfg.DatabaseURL = "postgres://localhost/staymap"

	var names []string
	for _, target := range cfg.Targets() {
		names = append(names, target.Name)
	}
	assert.Equal(t, []string{"catalog", "reservations", "calendar", "database", "redis"}, names)

	cfg.StoreBackend = StoreMemory
	targets := cfg.Targets()
	require.Len(t, targets, 4)
	assert.Equal(t, "redis", targets[3].Name)
	assert.False(t, targets[3].Required)
}
