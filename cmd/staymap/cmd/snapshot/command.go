// Package snapshot implements the snapshot command.
package snapshot

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/staymap/cmd/application"
	"github.com/agentstation/staymap/internal/cmd/alerts"
	"github.com/agentstation/staymap/internal/cmd/output"
	"github.com/agentstation/staymap/internal/cmd/table"
	"github.com/agentstation/staymap/pkg/units"
)

// NewCommand creates the snapshot command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshot",
		GroupID: "core",
		Short:   "Reconcile today's occupancy and print the snapshot",
		Long: `Run one reconciliation cycle and print the resulting snapshot: portfolio
totals, the per-category breakdown and optionally every unit.

Units whose feeds could not be read are counted as degraded; anomalies such
as overlapping stays are listed with --anomalies.`,
		Example: `  # Portfolio and category summary
  staymap snapshot

  # Every blocked unit, with stay details
  staymap snapshot --units --status blocked -o wide

  # Full snapshot as JSON
  staymap snapshot -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app)
		},
	}

	cmd.Flags().Bool("units", false, "list every unit")
	cmd.Flags().String("status", "", "only units with this status: available, reserved, blocked")
	cmd.Flags().String("category", "", "only units in this category: studio, 1br, 2br, 2br_premium, 3br, unknown")
	cmd.Flags().Bool("anomalies", false, "list anomalies")

	return cmd
}

func run(cmd *cobra.Command, app application.Application) error {
	showUnits, _ := cmd.Flags().GetBool("units")
	showAnomalies, _ := cmd.Flags().GetBool("anomalies")
	rawStatus, _ := cmd.Flags().GetString("status")
	rawCategory, _ := cmd.Flags().GetString("category")

	var (
		status   units.Status
		category units.Category
		err      error
	)
	if rawStatus != "" {
		if status, err = units.ParseStatus(rawStatus); err != nil {
			return err
		}
		showUnits = true
	}
	if rawCategory != "" {
		if category, err = units.ParseCategory(rawCategory); err != nil {
			return err
		}
		showUnits = true
	}

	client, err := app.Client()
	if err != nil {
		return err
	}

	snap, err := client.Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	format := output.DetectFormat(app.OutputFormat())
	out := cmd.OutOrStdout()
	rows := table.FilterUnits(snap.Units, status, category)

	if !format.IsTable() {
		view := *snap
		view.Units = rows
		if err := output.NewFormatter(format).Format(out, view); err != nil {
			return err
		}
	} else {
		if err := output.Print(out, format, nil, table.Summary(snap)); err != nil {
			return err
		}

		fmt.Fprintln(out)
		portfolio := snap.Portfolio()
		if err := output.Print(out, format, nil, table.Categories(snap.Categories, &portfolio)); err != nil {
			return err
		}

		if showUnits {
			fmt.Fprintln(out)
			if err := output.Print(out, format, nil, table.Units(rows, format == output.FormatWide)); err != nil {
				return err
			}
		}

		if showAnomalies && len(snap.Anomalies) > 0 {
			fmt.Fprintln(out)
			if err := output.Print(out, format, nil, table.Anomalies(snap)); err != nil {
				return err
			}
		}
	}

	return alerts.NewWriter(cmd.ErrOrStderr(), format).Write(alerts.ForSnapshot(snap))
}
