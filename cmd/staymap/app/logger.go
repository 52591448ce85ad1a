package app

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/rs/zerolog"

	"github.com/agentstation/staymap/pkg/logging"
)

var logLevels = []string{"trace", "debug", "info", "warn", "error"}

// NewLogger builds the CLI logger and installs it as the package default,
// so code logging without a context (asynq adapters, retry hooks) follows
// the same settings. Problems with the level flags are reported on stderr.
func NewLogger(config *Config) zerolog.Logger {
	level := resolveLogLevel(config, os.Stderr)

	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:     level,
		Format:    config.LogFormat,
		Output:    config.LogOutput,
		NoColor:   config.NoColor || os.Getenv("NO_COLOR") != "",
		AddCaller: logging.ParseLevel(level) <= zerolog.DebugLevel,
	})
	logging.SetDefault(logger)
	return logger
}

// resolveLogLevel picks the level: an explicit --log-level or LOG_LEVEL,
// then --quiet, then --verbose, then info. Quiet wins over verbose.
func resolveLogLevel(config *Config, warn io.Writer) string {
	switch {
	case config.LogLevel != "":
		if slices.Contains(logLevels, config.LogLevel) {
			return config.LogLevel
		}
		_, _ = fmt.Fprintf(warn, "Warning: unknown log level %q, using info\n", config.LogLevel)
		return "info"
	case config.Quiet:
		if config.Verbose {
			_, _ = fmt.Fprintln(warn, "Warning: --verbose ignored with --quiet")
		}
		return "warn"
	case config.Verbose:
		return "debug"
	}
	return "info"
}
