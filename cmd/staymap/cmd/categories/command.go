// Package categories implements the categories command.
package categories

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/staymap/cmd/application"
	"github.com/agentstation/staymap/internal/cmd/output"
	"github.com/agentstation/staymap/internal/cmd/table"
	"github.com/agentstation/staymap/pkg/aggregate"
)

// NewCommand creates the categories command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cats"},
		GroupID: "core",
		Short:   "Show occupancy per unit category",
		Long: `Run one reconciliation cycle and print available, reserved and blocked
counts with the occupancy rate for every category that has units, followed
by the portfolio total.`,
		Example: `  staymap categories
  staymap categories -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			cats, err := client.Categories(cmd.Context())
			if err != nil {
				return err
			}

			var portfolio *aggregate.CategorySnapshot
			if snap, ok := client.LastSnapshot(); ok {
				p := snap.Portfolio()
				portfolio = &p
			}

			format := output.DetectFormat(app.OutputFormat())
			return output.Print(cmd.OutOrStdout(), format, cats, table.Categories(cats, portfolio))
		},
	}
	return cmd
}
