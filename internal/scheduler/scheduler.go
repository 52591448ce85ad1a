package scheduler

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/hibiken/asynq"

	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
)

// Defaults for the periodic schedule.
const (
	DefaultQueue      = "staymap"
	DefaultSyncSpec   = "@every 15m"
	DefaultReportSpec = "0 * * * *"
)

// Config is the periodic schedule. An empty spec disables that job.
type Config struct {
	Queue      string
	SyncSpec   string
	ReportSpec string
	Location   *time.Location
}

// DefaultConfig returns the default schedule.
func DefaultConfig() Config {
	return Config{
		Queue:      DefaultQueue,
		SyncSpec:   DefaultSyncSpec,
		ReportSpec: DefaultReportSpec,
		Location:   time.UTC,
	}
}

// Scheduler enqueues sync and report tasks on a cron schedule.
type Scheduler struct {
	scheduler *asynq.Scheduler
	entries   map[string]string
}

// NewScheduler registers the configured jobs. An invalid cron spec is a
// ValidationError.
func NewScheduler(opt asynq.RedisConnOpt, cfg Config) (*Scheduler, error) {
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	s := &Scheduler{
		scheduler: asynq.NewScheduler(opt, &asynq.SchedulerOpts{
			Logger:   logger{component: "asynq-scheduler"},
			Location: cfg.Location,
			EnqueueErrorHandler: func(task *asynq.Task, _ []asynq.Option, err error) {
				// a duplicate enqueue from another instance is expected
				if stderrors.Is(err, asynq.ErrDuplicateTask) {
					return
				}
				logging.Default().Error().Err(err).Str("task", task.Type()).Msg("Enqueue failed")
			},
		}),
		entries: map[string]string{},
	}

	if cfg.SyncSpec != "" {
		task, err := NewSyncTask(SyncPayload{})
		if err != nil {
			return nil, err
		}
		if err := s.register(cfg.SyncSpec, task,
			asynq.Queue(cfg.Queue),
			asynq.Unique(constants.DefaultAutoSyncInterval),
			asynq.Timeout(constants.SyncTimeout),
			asynq.MaxRetry(constants.MaxRetries),
		); err != nil {
			return nil, err
		}
	}
	if cfg.ReportSpec != "" {
		if err := s.register(cfg.ReportSpec, NewHourlyReportTask(),
			asynq.Queue(cfg.Queue),
			asynq.Unique(30*time.Minute),
			asynq.Timeout(constants.CycleTimeout),
			asynq.MaxRetry(constants.MaxRetries),
		); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) register(spec string, task *asynq.Task, opts ...asynq.Option) error {
	id, err := s.scheduler.Register(spec, task, opts...)
	if err != nil {
		return errors.NewValidationError("cron", spec, err.Error())
	}
	s.entries[task.Type()] = id
	logging.Default().Info().Str("task", task.Type()).Str("spec", spec).Msg("Job scheduled")
	return nil
}

// Entries maps task type to scheduler entry ID.
func (s *Scheduler) Entries() map[string]string {
	out := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Run enqueues tasks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.scheduler.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.scheduler.Shutdown()
	return nil
}
