// Package worker implements the worker command.
package worker

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/staymap/cmd/application"
	"github.com/agentstation/staymap/internal/scheduler"
)

// NewCommand creates the worker command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "worker",
		GroupID: "service",
		Short:   "Process scheduled sync and report tasks",
		Long: `Run a task worker backed by Redis. The worker executes sync and hourly
report tasks from the queue, one cycle at a time unless --concurrency says
otherwise.

With --scheduler the same process also enqueues the tasks on their cron
schedules. Run the scheduler in exactly one process; duplicate enqueues are
dropped either way.`,
		Example: `  # Worker and scheduler in one process
  STAYMAP_REDIS_URL=redis://localhost:6379/0 staymap worker --scheduler

  # Extra workers
  staymap worker --concurrency 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app)
		},
	}

	cmd.Flags().String("queue", scheduler.DefaultQueue, "task queue name")
	cmd.Flags().Int("concurrency", 1, "tasks processed at once")
	cmd.Flags().Bool("scheduler", false, "also enqueue tasks on schedule")
	cmd.Flags().String("sync-spec", "", "cron spec for sync tasks (default every auto-sync interval)")
	cmd.Flags().String("report-spec", scheduler.DefaultReportSpec, "cron spec for hourly report tasks")

	return cmd
}

func run(cmd *cobra.Command, app application.Application) error {
	queue, _ := cmd.Flags().GetString("queue")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	withScheduler, _ := cmd.Flags().GetBool("scheduler")

	opt, err := scheduler.RedisOpt(app.RedisURL())
	if err != nil {
		return err
	}
	client, err := app.Client()
	if err != nil {
		return err
	}
	logger := app.Logger()

	var sched *scheduler.Scheduler
	if withScheduler {
		cfg := scheduleConfig(cmd, queue, app.AutoSyncInterval())
		if sched, err = scheduler.NewScheduler(opt, cfg); err != nil {
			return err
		}
		for task, id := range sched.Entries() {
			logger.Info().Str("task", task).Str("entry", id).Msg("Task scheduled")
		}
	}

	w := scheduler.NewWorker(opt, client, scheduler.WorkerConfig{
		Queue:       queue,
		Concurrency: concurrency,
	})

	logger.Info().
		Str("queue", queue).
		Int("concurrency", concurrency).
		Bool("scheduler", withScheduler).
		Msg("Starting worker")

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return w.Run(ctx) })
	if sched != nil {
		g.Go(func() error { return sched.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	logger.Info().Msg("Worker stopped")
	return nil
}

// scheduleConfig reads the cron flags. An empty sync spec runs sync every
// auto-sync interval.
func scheduleConfig(cmd *cobra.Command, queue string, interval time.Duration) scheduler.Config {
	cfg := scheduler.DefaultConfig()
	cfg.Queue = queue

	syncSpec, _ := cmd.Flags().GetString("sync-spec")
	if syncSpec == "" && interval > 0 {
		syncSpec = "@every " + interval.String()
	}
	if syncSpec != "" {
		cfg.SyncSpec = syncSpec
	}

	cfg.ReportSpec, _ = cmd.Flags().GetString("report-spec")
	return cfg
}
