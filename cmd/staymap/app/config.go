package app

import (
	stderrors "errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/staymap/internal/auth"
	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreTableAPI = "tableapi"
	StorePostgres = "postgres"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Feeds
	CatalogURL         string
	CatalogAPIKey      string
	CatalogAuth        string
	ReservationsURL    string
	ReservationsAPIKey string
	ReservationsAuth   string
	CalendarURL        string
	CalendarAPIKey     string
	CalendarAuth       string
	HTTPTimeout        time.Duration
	RateLimit          float64

	// Store
	StoreBackend   string
	StoreURL       string
	StoreAPIKey    string
	StoreAuth      string
	DatabaseURL    string
	UnitsTable     string
	CategoryTable  string
	ReportsTable   string
	OverridesTable string

	// Redis backs the catalog fallback cache and the task queue.
	RedisURL        string
	CatalogCacheTTL time.Duration

	// Reconciliation
	RegionCountries     []string
	RegionCities        []string
	RegionTokens        []string
	PremiumUnits        []string
	TestTokens          []string
	CalendarConcurrency int
	Lookback            time.Duration
	Lookahead           time.Duration
	AutoSyncInterval    time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.staymap.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigFile(os.Getenv("STAYMAP_CONFIG"))
}

// LoadConfigFile loads configuration like LoadConfig, reading path instead
// of searching for ~/.staymap.yaml when path is set.
func LoadConfigFile(path string) (*Config, error) {
	return loadConfig(viper.New(), path)
}

func loadConfig(v *viper.Viper, path string) (*Config, error) {
	// .env files load before viper binds the environment
	loadEnvFiles()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".staymap")
	}

	if err := v.ReadInConfig(); err != nil {
		// only a missing searched-for file is ignored
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "failed to read config file", err)
		}
	}

	return &Config{
		ConfigFile: v.ConfigFileUsed(),
		Format:     v.GetString("output"),

		CatalogURL:         v.GetString("catalog_url"),
		CatalogAPIKey:      v.GetString("catalog_api_key"),
		CatalogAuth:        v.GetString("catalog_auth"),
		ReservationsURL:    v.GetString("reservations_url"),
		ReservationsAPIKey: v.GetString("reservations_api_key"),
		ReservationsAuth:   v.GetString("reservations_auth"),
		CalendarURL:        v.GetString("calendar_url"),
		CalendarAPIKey:     v.GetString("calendar_api_key"),
		CalendarAuth:       v.GetString("calendar_auth"),
		HTTPTimeout:        v.GetDuration("http_timeout"),
		RateLimit:          v.GetFloat64("rate_limit"),

		StoreBackend:   strings.ToLower(v.GetString("store_backend")),
		StoreURL:       v.GetString("store_url"),
		StoreAPIKey:    v.GetString("store_api_key"),
		StoreAuth:      v.GetString("store_auth"),
		DatabaseURL:    v.GetString("database_url"),
		UnitsTable:     v.GetString("units_table"),
		CategoryTable:  v.GetString("categories_table"),
		ReportsTable:   v.GetString("reports_table"),
		OverridesTable: v.GetString("overrides_table"),

		RedisURL:        v.GetString("redis_url"),
		CatalogCacheTTL: v.GetDuration("catalog_cache_ttl"),

		RegionCountries:     list(v, "region_countries"),
		RegionCities:        list(v, "region_cities"),
		RegionTokens:        list(v, "region_tokens"),
		PremiumUnits:        list(v, "premium_units"),
		TestTokens:          list(v, "test_tokens"),
		CalendarConcurrency: v.GetInt("calendar_concurrency"),
		Lookback:            v.GetDuration("lookback"),
		Lookahead:           v.GetDuration("lookahead"),
		AutoSyncInterval:    v.GetDuration("auto_sync_interval"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog_auth", "bearer")
	v.SetDefault("reservations_auth", "bearer")
	v.SetDefault("calendar_auth", "bearer")
	v.SetDefault("store_auth", "bearer")
	v.SetDefault("http_timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("rate_limit", constants.DefaultRateLimit)
	v.SetDefault("store_backend", StoreMemory)
	v.SetDefault("units_table", constants.DefaultUnitsTable)
	v.SetDefault("categories_table", constants.DefaultCategoriesTable)
	v.SetDefault("reports_table", constants.DefaultReportsTable)
	v.SetDefault("overrides_table", constants.DefaultOverridesTable)
	v.SetDefault("catalog_cache_ttl", constants.CatalogCacheTTL)
	v.SetDefault("calendar_concurrency", constants.DefaultCalendarConcurrency)
	v.SetDefault("lookback", constants.DefaultLookback)
	v.SetDefault("lookahead", constants.DefaultLookahead)
	v.SetDefault("auto_sync_interval", constants.DefaultAutoSyncInterval)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// Validate rejects configurations that could not run a cycle. It is called
// when the client is first built, not at startup.
func (c *Config) Validate() error {
	required := []struct{ name, value string }{
		{"CATALOG_URL", c.CatalogURL},
		{"RESERVATIONS_URL", c.ReservationsURL},
		{"CALENDAR_URL", c.CalendarURL},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errors.NewConfigError("config", r.name+" is required", nil)
		}
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreTableAPI:
		if c.StoreURL == "" {
			return errors.NewConfigError("config", "STORE_URL is required for the tableapi store", nil)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.NewConfigError("config", "DATABASE_URL is required for the postgres store", nil)
		}
	default:
		return errors.NewConfigError("config", "unknown STORE_BACKEND "+c.StoreBackend+": must be memory, tableapi or postgres", nil)
	}

	if c.CalendarConcurrency < 1 || c.CalendarConcurrency > constants.MaxCalendarConcurrency {
		return errors.NewConfigError("config", "CALENDAR_CONCURRENCY out of range", nil)
	}
	return nil
}

// Targets lists the endpoints this configuration talks to. The store
// target depends on the backend; Redis is always optional.
func (c *Config) Targets() []auth.Target {
	targets := []auth.Target{
		{Name: "catalog", Env: "CATALOG", URL: c.CatalogURL, Auth: c.CatalogAuth, APIKey: c.CatalogAPIKey, Required: true},
		{Name: "reservations", Env: "RESERVATIONS", URL: c.ReservationsURL, Auth: c.ReservationsAuth, APIKey: c.ReservationsAPIKey, Required: true},
		{Name: "calendar", Env: "CALENDAR", URL: c.CalendarURL, Auth: c.CalendarAuth, APIKey: c.CalendarAPIKey, Required: true},
	}

	switch c.StoreBackend {
	case StoreTableAPI:
		targets = append(targets, auth.Target{
			Name: "store", Env: "STORE", URL: c.StoreURL, Auth: c.StoreAuth, APIKey: c.StoreAPIKey, Required: true,
		})
	case StorePostgres:
		// Credentials live in the DSN.
		targets = append(targets, auth.Target{
			Name: "database", Env: "DATABASE", URL: c.DatabaseURL, Auth: "none", Required: true,
			Schemes: []string{"postgres", "postgresql"},
		})
	}

	return append(targets, auth.Target{
		Name: "redis", Env: "REDIS", URL: c.RedisURL, Auth: "none",
		Schemes: []string{"redis", "rediss"},
	})
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded first so its values win; godotenv never overrides
// variables that are already set.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// list reads a comma-separated setting, or a YAML list from the config file.
func list(v *viper.Viper, key string) []string {
	var raw []string
	switch val := v.Get(key).(type) {
	case string:
		raw = strings.Split(val, ",")
	case []any, []string:
		raw = v.GetStringSlice(key)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
