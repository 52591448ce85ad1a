// Package serve provides the HTTP server command for the staymap CLI.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/staymap"
	"github.com/agentstation/staymap/cmd/application"
	"github.com/agentstation/staymap/internal/cmd/emoji"
	"github.com/agentstation/staymap/internal/server"
	"github.com/agentstation/staymap/pkg/constants"
)

// NewCommand creates the serve command.
func NewCommand(app application.Application) *cobra.Command {
	defaults := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "service",
		Short:   "Start the REST API server",
		Long: `Start the staymap REST API server.

Endpoints under the path prefix serve the current snapshot, the category
breakdown, single units and sync runs. Snapshots are cached for --cache-ttl;
a request with ?fresh=true runs a new reconciliation cycle.

With --auto-sync the server also keeps the store tables in sync in the
background at the configured interval.`,
		Example: `  # Start on default port 8080
  staymap serve

  # Custom port with API key authentication
  STAYMAP_API_KEY=secret staymap serve --port 3000 --auth

  # Keep tables in sync while serving
  staymap serve --auto-sync`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, app)
		},
	}

	cmd.Flags().Int("port", defaults.Port, "Server port")
	cmd.Flags().String("host", defaults.Host, "Bind address")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")

	cmd.Flags().Bool("cors", false, "Enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", []string{}, "Allowed CORS origins (comma-separated)")

	cmd.Flags().Bool("auth", false, "Require an API key (read from STAYMAP_API_KEY)")
	cmd.Flags().String("auth-header", defaults.AuthHeader, "Authentication header name")

	cmd.Flags().Int("rate-limit", defaults.RateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Duration("cache-ttl", defaults.CacheTTL, "How long a snapshot is served before a new cycle runs")

	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")

	cmd.Flags().Bool("auto-sync", false, "Sync store tables in the background")
	cmd.Flags().Bool("no-warm", false, "Skip the reconciliation cycle at startup")

	return cmd
}

func runServer(cmd *cobra.Command, app application.Application) error {
	cfg, err := parseConfig(cmd)
	if err != nil {
		return err
	}
	logger := app.Logger()

	client, err := app.Client()
	if err != nil {
		return err
	}

	logger.Info().
		Int("port", cfg.Port).
		Str("host", cfg.Host).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Bool("auth", cfg.AuthEnabled).
		Int("rate_limit", cfg.RateLimit).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Starting API server")

	srv, err := server.New(client, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if noWarm, _ := cmd.Flags().GetBool("no-warm"); !noWarm {
		// A failed warm-up is not fatal; the first request retries the cycle.
		warmCtx, cancel := context.WithTimeout(cmd.Context(), constants.CycleTimeout)
		if err := srv.Warm(warmCtx); err != nil {
			logger.Warn().Err(err).Msg("Initial reconciliation failed")
		}
		cancel()
	}

	if autoSync, _ := cmd.Flags().GetBool("auto-sync"); autoSync {
		if err := client.AutoSyncOn(); err != nil {
			return err
		}
		defer func() {
			if err := client.AutoSyncOff(); err != nil {
				logger.Warn().Err(err).Msg("Stopping auto sync")
			}
		}()
		logger.Info().Dur("interval", app.AutoSyncInterval()).Msg("Auto sync enabled")
	}

	return serve(cmd, srv.HTTPServer(), srv, client, logger)
}

func parseConfig(cmd *cobra.Command) (server.Config, error) {
	cfg := server.DefaultConfig()
	cfg.Port, _ = cmd.Flags().GetInt("port")
	cfg.Host, _ = cmd.Flags().GetString("host")
	cfg.PathPrefix, _ = cmd.Flags().GetString("prefix")
	cfg.CORSEnabled, _ = cmd.Flags().GetBool("cors")
	cfg.CORSOrigins, _ = cmd.Flags().GetStringSlice("cors-origins")
	cfg.AuthEnabled, _ = cmd.Flags().GetBool("auth")
	cfg.AuthHeader, _ = cmd.Flags().GetString("auth-header")
	cfg.RateLimit, _ = cmd.Flags().GetInt("rate-limit")
	cfg.CacheTTL, _ = cmd.Flags().GetDuration("cache-ttl")
	cfg.ReadTimeout, _ = cmd.Flags().GetDuration("read-timeout")
	cfg.WriteTimeout, _ = cmd.Flags().GetDuration("write-timeout")
	cfg.IdleTimeout, _ = cmd.Flags().GetDuration("idle-timeout")
	cfg.APIKey = os.Getenv("STAYMAP_API_KEY")

	// Environment overrides flags
	if envPort := os.Getenv("HTTP_PORT"); envPort != "" {
		p, err := parsePort(envPort)
		if err != nil {
			return cfg, err
		}
		cfg.Port = p
	}
	if envHost := os.Getenv("HTTP_HOST"); envHost != "" {
		cfg.Host = envHost
	}

	return cfg, nil
}

func parsePort(portStr string) (int, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number: %s", portStr)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port out of range: %d", port)
	}
	return port, nil
}

// serve runs the listener until it fails or the command context is
// cancelled, then drains connections.
func serve(cmd *cobra.Command, httpServer *http.Server, srv *server.Server, client staymap.Client, logger *zerolog.Logger) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	serverErr := make(chan error, 1)

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		fmt.Fprintf(out, "API server listening on %s\n", httpServer.Addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Background services shutdown had issues")
		}

		if snap, ok := client.LastSnapshot(); ok {
			logger.Info().Str("snapshot", snap.ID).Msg("Last snapshot served")
		}
		fmt.Fprintf(out, "%s API server stopped\n", emoji.Success)
		return nil
	}
}
