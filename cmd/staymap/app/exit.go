package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/agentstation/staymap/pkg/errors"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfig      = 2
	ExitTimeout     = 3
	ExitInterrupted = 130
)

// ContextWithSignals returns a context cancelled on SIGINT or SIGTERM. A
// cycle in flight stops between calendar lookups.
func ContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case stderrors.Is(err, context.Canceled) || errors.IsCanceled(err):
		return ExitInterrupted
	case errors.IsAuthConfig(err):
		return ExitConfig
	case errors.IsTimeout(err) || stderrors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	}
	return ExitFailure
}

// ReportError prints err to w and returns its exit code.
func ReportError(w io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return ExitCode(err)
}
