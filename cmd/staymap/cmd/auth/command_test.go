package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/staymap/cmd/application"
	"github.com/agentstation/staymap/internal/auth"
	"github.com/agentstation/staymap/pkg/errors"
)

func run(t *testing.T, format string, targets []auth.Target) (string, string, error) {
	t.Helper()
	app := &application.Mock{
		CredentialsFunc:  func() []auth.Target { return targets },
		OutputFormatFunc: func() string { return format },
	}

	cmd := NewCommand(app)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"status"})
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func healthy() []auth.Target {
	return []auth.Target{
		{Name: "catalog", Env: "CATALOG", URL: "https://catalog.example", APIKey: "k", Required: true},
		{Name: "reservations", Env: "RESERVATIONS", URL: "https://res.example", Auth: "query:key", APIKey: "k", Required: true},
		{Name: "calendar", Env: "CALENDAR", URL: "https://calendar.example", Auth: "none", Required: true},
		{Name: "redis", Env: "REDIS", Auth: "none", Schemes: []string{"redis", "rediss"}},
	}
}

func TestStatus_Table(t *testing.T) {
	out, errOut, err := run(t, "table", healthy())
	require.NoError(t, err)

	for _, want := range []string{"catalog", "reservations", "calendar", "redis", "CATALOG_API_KEY", "query"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, errOut, "0 of 4 endpoints need attention")
}

func TestStatus_JSON(t *testing.T) {
	out, _, err := run(t, "json", healthy())
	require.NoError(t, err)

	var statuses []auth.Status
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))
	require.Len(t, statuses, 4)
	assert.Equal(t, auth.StateConfigured, statuses[0].State)
	assert.Equal(t, auth.StateOptional, statuses[2].State)
	assert.Equal(t, "Not configured", statuses[3].Summary)
}

func TestStatus_Missing(t *testing.T) {
	targets := healthy()
	targets[1].APIKey = ""

	_, _, err := run(t, "table", targets)
	require.Error(t, err)
	assert.True(t, errors.IsAuthConfig(err))
	assert.Contains(t, err.Error(), "reservations")
}
