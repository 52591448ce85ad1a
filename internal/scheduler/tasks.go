// Package scheduler runs syncs and hourly reports as asynq tasks, so that
// several instances sharing one Redis enqueue and process each job once.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/agentstation/staymap/pkg/errors"
)

// Task types.
const (
	TaskSync         = "occupancy:sync"
	TaskHourlyReport = "occupancy:hourly_report"
)

// SyncPayload parameterizes a sync task.
type SyncPayload struct {
	DryRun    bool `json:"dryRun,omitempty"`
	KeepStale bool `json:"keepStale,omitempty"`
}

// NewSyncTask builds a sync task.
func NewSyncTask(payload SyncPayload, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSync, data, opts...), nil
}

// ParseSyncPayload decodes a sync task. An empty payload is a plain sync.
func ParseSyncPayload(task *asynq.Task) (SyncPayload, error) {
	var payload SyncPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SyncPayload{}, errors.WrapParse("json", TaskSync, err)
	}
	return payload, nil
}

// NewHourlyReportTask builds an hourly report task.
func NewHourlyReportTask(opts ...asynq.Option) *asynq.Task {
	return asynq.NewTask(TaskHourlyReport, nil, opts...)
}
