// Package main provides the entry point for the staymap CLI tool.
package main

import (
	"context"
	"os"

	"github.com/agentstation/staymap/cmd/staymap/app"
	"github.com/agentstation/staymap/pkg/constants"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	application, err := app.New(version, commit, date, builtBy)
	if err != nil {
		return app.ReportError(os.Stderr, err)
	}

	ctx, stop := app.ContextWithSignals(context.Background())
	defer stop()
	runErr := application.Execute(ctx, os.Args[1:])

	// The signal context may already be done, so shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		application.Logger().Error().Err(err).Msg("Shutdown error")
	}

	return app.ReportError(os.Stderr, runErr)
}
