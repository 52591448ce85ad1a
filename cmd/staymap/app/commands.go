package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/staymap/cmd/staymap/cmd/auth"
	"github.com/agentstation/staymap/cmd/staymap/cmd/categories"
	"github.com/agentstation/staymap/cmd/staymap/cmd/export"
	"github.com/agentstation/staymap/cmd/staymap/cmd/overrides"
	"github.com/agentstation/staymap/cmd/staymap/cmd/report"
	"github.com/agentstation/staymap/cmd/staymap/cmd/serve"
	"github.com/agentstation/staymap/cmd/staymap/cmd/snapshot"
	"github.com/agentstation/staymap/cmd/staymap/cmd/syncer"
	"github.com/agentstation/staymap/cmd/staymap/cmd/version"
	"github.com/agentstation/staymap/cmd/staymap/cmd/worker"
)

// registerCommands adds every subcommand. Each one places itself in the
// core or service group; auth and version stay ungrouped.
func (a *App) registerCommands(root *cobra.Command) {
	root.AddCommand(
		snapshot.NewCommand(a),
		categories.NewCommand(a),
		syncer.NewCommand(a),
		report.NewCommand(a),
		export.NewCommand(a),
		overrides.NewCommand(a),

		serve.NewCommand(a),
		worker.NewCommand(a),

		auth.NewCommand(a),
		version.NewCommand(a),
	)
}
