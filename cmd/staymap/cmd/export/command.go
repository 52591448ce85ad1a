// Package export implements the export command.
package export

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentstation/staymap/cmd/application"
	"github.com/agentstation/staymap/internal/cmd/emoji"
	"github.com/agentstation/staymap/internal/export"
)

// NewCommand creates the export command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "export",
		GroupID: "core",
		Short:   "Export the snapshot as an Excel workbook",
		Long: `Run one reconciliation cycle and write the snapshot to an xlsx workbook
with a Units sheet and a Categories sheet.

The file is named after the snapshot time unless --output is given. Use
--output - to write the workbook to stdout.`,
		Example: `  staymap export
  staymap export --output occupancy.xlsx
  staymap export --output - > occupancy.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("output")
			dir, _ := cmd.Flags().GetString("dir")

			client, err := app.Client()
			if err != nil {
				return err
			}
			snap, err := client.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			if path == "-" {
				return export.Write(cmd.OutOrStdout(), snap)
			}
			if path == "" {
				path = filepath.Join(dir, export.Filename(snap))
			}
			if err := export.WriteFile(path, snap); err != nil {
				return err
			}

			app.Logger().Info().Str("path", path).Str("snapshot", snap.ID).Msg("Snapshot exported")
			fmt.Fprintf(cmd.ErrOrStderr(), "%s Exported %d units to %s\n", emoji.Success, snap.Total, path)
			return nil
		},
	}

	// -o is taken by the global --format flag
	cmd.Flags().String("output", "", "workbook path, or - for stdout")
	cmd.Flags().String("dir", ".", "directory for the default file name")

	return cmd
}
