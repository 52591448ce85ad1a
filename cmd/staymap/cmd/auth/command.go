// Package auth implements the auth command.
package auth

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/staymap/cmd/application"
	"github.com/agentstation/staymap/internal/auth"
	"github.com/agentstation/staymap/internal/cmd/output"
	"github.com/agentstation/staymap/internal/cmd/table"
	"github.com/agentstation/staymap/pkg/errors"
)

// NewCommand creates the auth command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Check feed and store credentials",
		Long: `Check the credentials for the catalog, reservations and calendar feeds,
the store and Redis.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(NewStatusCommand(app))

	return cmd
}

// NewStatusCommand creates the auth status subcommand.
func NewStatusCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show credential status for every endpoint",
		Long: `Display which endpoints have a URL, a known auth scheme and an API key.

The command only inspects configuration and environment variables. It does
not call the feeds, so a configured key may still be rejected upstream.`,
		Example: `  staymap auth status
  staymap auth status -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, app)
		},
	}
}

func runStatus(cmd *cobra.Command, app application.Application) error {
	statuses := auth.NewChecker().CheckAll(app.Credentials())

	format := output.DetectFormat(app.OutputFormat())
	if err := output.Print(cmd.OutOrStdout(), format, statuses, table.Credentials(statuses)); err != nil {
		return err
	}

	failed := auth.Failures(statuses)
	if format.IsTable() {
		fmt.Fprintf(cmd.ErrOrStderr(), "\n%d of %d endpoints need attention\n", len(failed), len(statuses))
	}

	if len(failed) > 0 {
		return errors.NewConfigError("auth", "credentials missing or invalid for "+strings.Join(failed, ", "), nil)
	}
	return nil
}
