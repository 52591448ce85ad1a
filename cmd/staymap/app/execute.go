package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/agentstation/staymap/internal/cmd/output"
)

// rootFlags holds the persistent flags shared by every command.
type rootFlags struct {
	config   string
	verbose  bool
	quiet    bool
	noColor  bool
	format   string
	logLevel string
}

// Execute runs the CLI with args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.createRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *App) createRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:     "staymap",
		Short:   "Rental unit occupancy and category reconciliation",
		Version: a.build.Version,
		Long: `Staymap reconciles the unit catalog, reservations, the availability
calendar and manual cleaning overrides into one occupancy snapshot per day.

Snapshots roll up by bedroom category and portfolio, sync idempotently to a
tabular store, and post an hourly occupancy report.`,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.applyFlags(flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("staymap {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "config file (default is $HOME/.staymap.yaml)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	pf.StringVarP(&flags.format, "format", "o", "", "output format: table, json, yaml, wide")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	root.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "service", Title: "Service Commands:"},
	)
	a.registerCommands(root)
	return root
}

// applyFlags reloads the config when --config is given, layers the flags
// over it and rebuilds the logger.
func (a *App) applyFlags(flags *rootFlags) error {
	if flags.config != "" {
		config, err := LoadConfigFile(flags.config)
		if err != nil {
			return err
		}
		a.mu.Lock()
		a.config = config
		a.mu.Unlock()
	}

	if _, err := output.ParseFormat(flags.format); err != nil {
		return err
	}
	a.config.UpdateFromFlags(flags.verbose, flags.quiet, flags.noColor, flags.format, flags.logLevel)

	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}
