// Package report implements the report command.
package report

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/staymap/cmd/application"
	"github.com/agentstation/staymap/internal/cmd/alerts"
	"github.com/agentstation/staymap/internal/cmd/output"
	"github.com/agentstation/staymap/internal/cmd/table"
)

// NewCommand creates the report command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "report",
		GroupID: "core",
		Short:   "Post the hourly occupancy report",
		Long: `Run one reconciliation cycle and append a row to the reports table with
the portfolio totals and tonight's revenue.

At most one report is posted per UTC hour; running the command again in the
same hour reports the existing row and writes nothing.`,
		Example: `  staymap report
  staymap report -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			result, err := client.PostHourlyReport(cmd.Context())
			if err != nil {
				return err
			}

			app.Logger().Debug().
				Str("bucket", result.Bucket).
				Bool("posted", result.Posted).
				Msg("Hourly report")

			format := output.DetectFormat(app.OutputFormat())
			if err := output.Print(cmd.OutOrStdout(), format, result, table.Report(result)); err != nil {
				return err
			}
			return alerts.NewWriter(cmd.ErrOrStderr(), format).Write(alerts.ForSnapshot(result.Snapshot))
		},
	}
}
