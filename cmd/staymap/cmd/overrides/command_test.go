package overrides

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/staymap/cmd/application"
	"github.com/agentstation/staymap/internal/sources/fake"
	"github.com/agentstation/staymap/internal/store/memory"
	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/overrides"
	"github.com/agentstation/staymap/pkg/store"
	"github.com/agentstation/staymap/pkg/units"
)

func newApp(st *memory.Store, format string) *application.Mock {
	return &application.Mock{
		StoreFunc:        func() (store.Store, error) { return st, nil },
		OutputFormatFunc: func() string { return format },
	}
}

func execute(t *testing.T, app application.Application, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func fixClock(t *testing.T, ts time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = prev })
}

func TestOverridesCommand_SetCreatesThenUpdates(t *testing.T) {
	created := time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC)
	fixClock(t, created)

	st := memory.New()
	app := newApp(st, "table")

	out, err := execute(t, app, "set", "3", "blocked", "--reason", "deep clean", "--name", "Chiado House")
	require.NoError(t, err)
	assert.Contains(t, out, "Created override for unit 3: blocked")

	fixClock(t, created.Add(time.Hour))
	out, err = execute(t, app, "set", "3", "available")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated override for unit 3: available")

	rows, err := st.List(context.Background(), constants.DefaultOverridesTable)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	f := rows[0].Fields
	assert.Equal(t, "available", f["manual_status"])
	assert.Equal(t, "Chiado House", f["unit_name"], "name is kept from the existing row")
	assert.Equal(t, "2024-01-11T08:00:00Z", f["created_at"])
	assert.Equal(t, "2024-01-11T09:00:00Z", f["updated_at"])
}

func TestOverridesCommand_SetInvalidStatus(t *testing.T) {
	_, err := execute(t, newApp(memory.New(), "table"), "set", "3", "cleaning")
	require.Error(t, err)

	var verr *errors.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestOverridesCommand_List(t *testing.T) {
	st := memory.New()
	st.Seed(constants.DefaultOverridesTable,
		store.Record{ID: "rec2", Fields: store.Fields{"unit_id": "2", "manual_status": "blocked", "reason": "leak"}},
		store.Record{ID: "rec1", Fields: store.Fields{"unit_id": "1", "manual_status": "mystery"}},
	)

	out, err := execute(t, newApp(st, "json"), "list")
	require.NoError(t, err)

	var list []overrides.Override
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	assert.Equal(t, units.ID("1"), list[0].UnitID)
	assert.Empty(t, list[0].ManualStatus, "unknown statuses are listed without a status")
	assert.Equal(t, units.StatusBlocked, list[1].ManualStatus)

	out, err = execute(t, newApp(st, "table"), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "leak")
	assert.Contains(t, out, "rec2")
}

func TestOverridesCommand_Clear(t *testing.T) {
	st := memory.New()
	st.Seed(constants.DefaultOverridesTable,
		store.Record{ID: "a", Fields: store.Fields{"unit_id": "3", "manual_status": "blocked"}},
		store.Record{ID: "b", Fields: store.Fields{"unit_id": "3", "manual_status": "available"}},
		store.Record{ID: "c", Fields: store.Fields{"unit_id": "1", "manual_status": "blocked"}},
	)
	app := newApp(st, "table")

	out, err := execute(t, app, "clear", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 2 override(s)")

	rows, err := st.List(context.Background(), constants.DefaultOverridesTable)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c", rows[0].ID)

	_, err = execute(t, app, "clear", "3")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestOverridesCommand_BlockReachesSnapshot(t *testing.T) {
	fixClock(t, fake.Now)
	st := memory.New()

	_, err := execute(t, newApp(st, "table"), "set", "1", "blocked", "--reason", "broken boiler")
	require.NoError(t, err)

	client, err := fake.Portfolio().Client(st, constants.DefaultOverridesTable)
	require.NoError(t, err)
	snap, err := client.Snapshot(context.Background())
	require.NoError(t, err)

	row, ok := snap.Unit("1")
	require.True(t, ok)
	assert.Equal(t, units.StatusBlocked, row.Status)
	assert.Equal(t, 2, snap.Blocked)
}
