package worker

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/staymap/cmd/application"
	"github.com/agentstation/staymap/internal/scheduler"
	"github.com/agentstation/staymap/pkg/errors"
)

func TestWorkerCommand_RequiresRedis(t *testing.T) {
	cmd := NewCommand(&application.Mock{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)

	var cerr *errors.ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestScheduleConfig(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		interval time.Duration
		wantSync string
		wantRep  string
	}{
		{
			name:     "interval",
			interval: 5 * time.Minute,
			wantSync: "@every 5m0s",
			wantRep:  scheduler.DefaultReportSpec,
		},
		{
			name:     "no interval",
			wantSync: scheduler.DefaultSyncSpec,
			wantRep:  scheduler.DefaultReportSpec,
		},
		{
			name:     "explicit",
			args:     []string{"--sync-spec", "*/10 * * * *", "--report-spec", "5 * * * *"},
			interval: 5 * time.Minute,
			wantSync: "*/10 * * * *",
			wantRep:  "5 * * * *",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewCommand(&application.Mock{})
			require.NoError(t, cmd.ParseFlags(tt.args))

			cfg := scheduleConfig(cmd, "occupancy", tt.interval)
			assert.Equal(t, "occupancy", cfg.Queue)
			assert.Equal(t, tt.wantSync, cfg.SyncSpec)
			assert.Equal(t, tt.wantRep, cfg.ReportSpec)
		})
	}
}
