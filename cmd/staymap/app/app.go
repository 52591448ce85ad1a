// Package app wires the staymap CLI: it loads configuration, owns the
// logger, and builds the client and its store connections on first use.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/staymap"
	"github.com/agentstation/staymap/cmd/application"
	"github.com/agentstation/staymap/internal/auth"
	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/store"
)

var _ application.Application = (*App)(nil)

// App is the CLI's Application. The client is built lazily so that commands
// without feed settings still run.
type App struct {
	build  application.BuildInfo
	config *Config
	logger *zerolog.Logger

	mu        sync.Mutex
	resources *resources
}

// Option customizes an App after configuration is loaded.
type Option func(*App) error

// New loads configuration from the environment and any config file, then
// applies opts.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}

	logger := NewLogger(config)
	a := &App{
		build:  application.BuildInfo{Version: version, Commit: commit, Date: date, BuiltBy: builtBy},
		config: config,
		logger: &logger,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// WithConfig replaces the loaded configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger replaces the configured logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient installs a prebuilt client and store, skipping the build.
func WithClient(client staymap.Client, st store.Store) Option {
	return func(a *App) error {
		a.resources = &resources{client: client, store: st}
		return nil
	}
}

func (a *App) Build() application.BuildInfo { return a.build }
func (a *App) Config() *Config              { return a.config }
func (a *App) Logger() *zerolog.Logger      { return a.logger }
func (a *App) OutputFormat() string         { return a.config.Format }
func (a *App) OverridesTable() string       { return a.config.OverridesTable }
func (a *App) RedisURL() string             { return a.config.RedisURL }

func (a *App) AutoSyncInterval() time.Duration { return a.config.AutoSyncInterval }

// Credentials lists the configured endpoints without building anything.
func (a *App) Credentials() []auth.Target { return a.config.Targets() }

// Tables returns the configured sync table names.
func (a *App) Tables() staymap.Tables {
	return staymap.Tables{
		Units:      a.config.UnitsTable,
		Categories: a.config.CategoryTable,
		Reports:    a.config.ReportsTable,
	}
}

// Client returns the shared client, building it on first call.
func (a *App) Client() (staymap.Client, error) {
	res, err := a.load()
	if err != nil {
		return nil, err
	}
	return res.client, nil
}

// Store returns the store the client syncs to.
func (a *App) Store() (store.Store, error) {
	res, err := a.load()
	if err != nil {
		return nil, err
	}
	return res.store, nil
}

// load builds the resources once. A failed build is not cached, so a
// corrected environment is picked up by the next call.
func (a *App) load() (*resources, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.resources != nil {
		return a.resources, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultTimeout)
	defer cancel()

	res, err := a.config.build(ctx)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}
	a.resources = res
	return res, nil
}

// Shutdown stops auto syncs and closes store and cache connections. It is
// safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	res := a.resources
	a.resources = nil
	a.mu.Unlock()
	if res == nil {
		return nil
	}

	if res.client != nil {
		if err := res.client.AutoSyncOff(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop auto syncs during shutdown")
		}
	}

	done := make(chan error, 1)
	go func() { done <- res.close() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
