// Package logging provides structured logging for staymap using zerolog.
// Terminals get human-readable console output; everything else gets JSON,
// which is what the scheduler and server emit in production.
//
// Example usage:
//
//	ctx = logging.WithCycle(ctx, cycleID)
//	logging.FromContext(ctx).Info().
//	    Int("units", len(units)).
//	    Msg("Catalog fetched")
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLogger backs Default and the package-level event helpers. It is
// configured from LOG_LEVEL, LOG_FORMAT, DEBUG and NO_COLOR until the CLI
// replaces it.
var defaultLogger = NewLoggerFromConfig(EnvConfig())

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger and zerolog's global one.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Debug starts a debug event on the default logger.
func Debug() *zerolog.Event { return defaultLogger.Debug() }

// Info starts an info event on the default logger.
func Info() *zerolog.Event { return defaultLogger.Info() }

// Warn starts a warning event on the default logger.
func Warn() *zerolog.Event { return defaultLogger.Warn() }

// Error starts an error event on the default logger.
func Error() *zerolog.Event { return defaultLogger.Error() }

// Err starts an event carrying err, at error level when err is non-nil.
func Err(err error) *zerolog.Event { return defaultLogger.Err(err) }
