// Package emoji provides symbol constants for CLI output.
package emoji

// Symbols shared by tables and alerts.
const (
	// Success marks completed operations and posted reports.
	Success = "✓"

	// Error marks failed operations and failed rows.
	Error = "✗"

	// Warning marks degraded values and anomalies.
	Warning = "!"

	// Optional marks skipped work, such as a report already posted.
	Optional = "-"

	// Unknown marks unrecognized statuses.
	Unknown = "?"

	// Info marks informational messages.
	Info = "i"
)
