package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/agentstation/staymap"
	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
)

// Runner is the work the worker delegates to.
type Runner interface {
	staymap.Syncer
	staymap.Reporter
}

// WorkerConfig sizes the worker.
type WorkerConfig struct {
	Queue       string
	Concurrency int
}

// Worker processes sync and report tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner Runner
}

// NewWorker creates a worker. Nothing connects until Run.
func NewWorker(opt asynq.RedisConnOpt, runner Runner, cfg WorkerConfig) *Worker {
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		// one cycle at a time per instance
		concurrency = 1
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{queue: 1},
		Logger:          logger{component: "asynq-worker"},
		ShutdownTimeout: constants.ShutdownTimeout,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			logging.Default().Error().
				Err(err).
				Str("task", task.Type()).
				Int("retried", retried).
				Msg("Task failed")
		}),
	})

	w := &Worker{server: server, runner: runner}
	w.mux = w.Handler()
	return w
}

// Handler returns the task routing for the worker.
func (w *Worker) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSync, w.handleSync)
	mux.HandleFunc(TaskHourlyReport, w.handleHourlyReport)
	return mux
}

// Run processes tasks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}

func (w *Worker) handleSync(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSyncPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	result, err := w.runner.Sync(ctx,
		staymap.WithDryRun(payload.DryRun),
		staymap.WithKeepStale(payload.KeepStale),
	)
	if err != nil {
		return taskErr(err)
	}

	logging.FromContext(ctx).Info().
		Str("task", task.Type()).
		Int("writes", result.Writes()).
		Bool("row_errors", result.HasErrors()).
		Msg("Task complete")
	return nil
}

func (w *Worker) handleHourlyReport(ctx context.Context, task *asynq.Task) error {
	result, err := w.runner.PostHourlyReport(ctx)
	if err != nil {
		return taskErr(err)
	}

	logging.FromContext(ctx).Info().
		Str("task", task.Type()).
		Str("bucket", result.Bucket).
		Bool("posted", result.Posted).
		Msg("Task complete")
	return nil
}

// taskErr marks configuration failures as not worth retrying.
func taskErr(err error) error {
	if errors.IsAuthConfig(err) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}
