// Package syncer implements the sync command.
package syncer

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/staymap"
	"github.com/agentstation/staymap/cmd/application"
	"github.com/agentstation/staymap/internal/cmd/alerts"
	"github.com/agentstation/staymap/internal/cmd/output"
	"github.com/agentstation/staymap/internal/cmd/table"
	"github.com/agentstation/staymap/pkg/constants"
)

// NewCommand creates the sync command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Reconcile and write the snapshot to the store tables",
		Long: `Run one reconciliation cycle and upsert the results into the units and
categories tables. Rows that match are left alone, changed rows are updated
and rows for units no longer in the portfolio are deleted unless
--keep-stale is set.

A failed row does not stop the sync; the command exits non-zero when any
row failed.`,
		Example: `  # Preview the writes
  staymap sync --dry-run

  # Sync without deleting stale rows
  staymap sync --keep-stale`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app)
		},
	}

	cmd.Flags().Bool("dry-run", false, "compute the changes without writing")
	cmd.Flags().Bool("keep-stale", false, "do not delete rows for units that are gone")
	cmd.Flags().Duration("timeout", constants.CycleTimeout, "overall timeout")

	return cmd
}

func run(cmd *cobra.Command, app application.Application) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	keepStale, _ := cmd.Flags().GetBool("keep-stale")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	client, err := app.Client()
	if err != nil {
		return err
	}

	app.Logger().Debug().
		Bool("dry_run", dryRun).
		Bool("keep_stale", keepStale).
		Dur("timeout", timeout).
		Msg("Starting sync")

	result, err := client.Sync(cmd.Context(),
		staymap.WithDryRun(dryRun),
		staymap.WithKeepStale(keepStale),
		staymap.WithSyncTimeout(timeout),
	)
	if err != nil {
		return err
	}

	format := output.DetectFormat(app.OutputFormat())
	if err := output.Print(cmd.OutOrStdout(), format, result, table.SyncResults(result.Units, result.Categories)); err != nil {
		return err
	}

	w := alerts.NewWriter(cmd.ErrOrStderr(), format)
	if err := w.Write(alerts.ForSync(result)); err != nil {
		return err
	}
	if err := w.Write(alerts.ForSnapshot(result.Snapshot)); err != nil {
		return err
	}

	if result.HasErrors() {
		return fmt.Errorf("sync finished with row errors after %s", result.Duration.Round(time.Millisecond))
	}
	return nil
}
