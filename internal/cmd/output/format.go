// Package output renders command results as tables, JSON or YAML.
package output

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/agentstation/staymap/pkg/errors"
)

// Format is a command output format.
type Format string

// Output formats. Wide is a table with the optional columns shown.
const (
	FormatTable Format = "table"
	FormatWide  Format = "wide"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// IsTable reports whether f renders as a table.
func (f Format) IsTable() bool {
	return f == FormatTable || f == FormatWide
}

// ParseFormat validates a --format value. Empty is allowed and means
// "detect".
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "", FormatTable, FormatWide, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", errors.NewValidationError("format", s, "must be one of: table, json, yaml, wide")
}

// DetectFormat returns explicit when set. Otherwise stdout decides: a
// terminal gets a table, pipes and redirects get JSON.
func DetectFormat(explicit string) Format {
	if explicit != "" {
		return Format(strings.ToLower(explicit))
	}
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return FormatTable
	}
	return FormatJSON
}
