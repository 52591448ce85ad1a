// Package application defines what staymap commands need from the running
// CLI. Commands take an Application instead of the concrete app so tests can
// hand them a Mock backed by an in-memory store and the fake feeds:
//
//	app := &application.Mock{
//	    ClientFunc: func() (staymap.Client, error) { return client, nil },
//	}
//	cmd := snapshot.NewCommand(app)
package application

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/staymap"
	"github.com/agentstation/staymap/internal/auth"
	"github.com/agentstation/staymap/pkg/store"
)

// BuildInfo identifies the binary. goreleaser fills it in through ldflags.
type BuildInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
	BuiltBy string `json:"built_by" yaml:"built_by"`
}

// Application is implemented by the CLI app and by Mock. All methods are
// safe for concurrent use.
type Application interface {
	// Client returns the staymap client, building it on first use. Missing
	// feed settings surface here, so commands like version run without them.
	Client() (staymap.Client, error)

	// Store returns the tabular store the client syncs to.
	Store() (store.Store, error)

	// Credentials lists the configured endpoints for local credential
	// checks. It never builds the client.
	Credentials() []auth.Target

	Tables() staymap.Tables
	OverridesTable() string

	// RedisURL is the broker for the worker and the catalog cache, or "".
	RedisURL() string

	AutoSyncInterval() time.Duration
	Logger() *zerolog.Logger

	// OutputFormat is table, wide, json or yaml. Empty means table.
	OutputFormat() string

	Build() BuildInfo
}
