package application

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/staymap"
	"github.com/agentstation/staymap/internal/auth"
	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/store"
)

var _ Application = (*Mock)(nil)

// Mock is a configurable Application for command tests. Unset funcs return
// zero values, except Tables which returns the default table names.
type Mock struct {
	ClientFunc           func() (staymap.Client, error)
	StoreFunc            func() (store.Store, error)
	CredentialsFunc      func() []auth.Target
	TablesFunc           func() staymap.Tables
	OverridesTableFunc   func() string
	RedisURLFunc         func() string
	AutoSyncIntervalFunc func() time.Duration
	LoggerFunc           func() *zerolog.Logger
	OutputFormatFunc     func() string
	BuildFunc            func() BuildInfo
}

// Client implements Application.
func (m *Mock) Client() (staymap.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc()
	}
	return nil, errors.NewConfigError("client", "no client configured", nil)
}

// Store implements Application.
func (m *Mock) Store() (store.Store, error) {
	if m.StoreFunc != nil {
		return m.StoreFunc()
	}
	return nil, errors.NewConfigError("store", "no store configured", nil)
}

// Credentials implements Application.
func (m *Mock) Credentials() []auth.Target {
	if m.CredentialsFunc != nil {
		return m.CredentialsFunc()
	}
	return nil
}

// Tables implements Application.
func (m *Mock) Tables() staymap.Tables {
	if m.TablesFunc != nil {
		return m.TablesFunc()
	}
	return staymap.Tables{
		Units:      constants.DefaultUnitsTable,
		Categories: constants.DefaultCategoriesTable,
		Reports:    constants.DefaultReportsTable,
	}
}

// OverridesTable implements Application.
func (m *Mock) OverridesTable() string {
	if m.OverridesTableFunc != nil {
		return m.OverridesTableFunc()
	}
	return constants.DefaultOverridesTable
}

// RedisURL implements Application.
func (m *Mock) RedisURL() string {
	if m.RedisURLFunc != nil {
		return m.RedisURLFunc()
	}
	return ""
}

// AutoSyncInterval implements Application.
func (m *Mock) AutoSyncInterval() time.Duration {
	if m.AutoSyncIntervalFunc != nil {
		return m.AutoSyncIntervalFunc()
	}
	return constants.DefaultAutoSyncInterval
}

// Logger implements Application.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat implements Application.
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return ""
}

// Build implements Application.
func (m *Mock) Build() BuildInfo {
	if m.BuildFunc != nil {
		return m.BuildFunc()
	}
	return BuildInfo{Version: "dev", Commit: "unknown", Date: "unknown", BuiltBy: "unknown"}
}
