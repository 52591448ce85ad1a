package alerts

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"

	"github.com/agentstation/staymap/internal/cmd/output"
)

// Writer prints alerts in a command's output format. Table and wide
// formats get one line per alert with indented details; JSON and YAML get
// one document per alert.
type Writer struct {
	out        io.Writer
	format     output.Format
	color      bool
	details    bool
	timestamps bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithColor forces color on or off. By default color follows whether the
// destination is a terminal.
func WithColor(on bool) WriterOption {
	return func(w *Writer) { w.color = on }
}

// WithoutDetails prints only the alert line.
func WithoutDetails() WriterOption {
	return func(w *Writer) { w.details = false }
}

// WithTimestamps adds the alert time to structured output.
func WithTimestamps() WriterOption {
	return func(w *Writer) { w.timestamps = true }
}

// NewWriter returns a Writer for format.
func NewWriter(out io.Writer, format output.Format, opts ...WriterOption) *Writer {
	w := &Writer{out: out, format: format, color: isTerminal(out), details: true}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write prints alert. A nil alert prints nothing.
func (w *Writer) Write(alert *Alert) error {
	if alert == nil {
		return nil
	}
	switch w.format {
	case output.FormatJSON:
		return json.NewEncoder(w.out).Encode(w.record(alert))
	case output.FormatYAML:
		data, err := yaml.MarshalWithOptions(w.record(alert), yaml.Indent(2))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w.out, "---\n%s", data)
		return err
	}
	return w.writeText(alert)
}

// alertRecord is the structured form of an alert.
type alertRecord struct {
	Level     string   `json:"level" yaml:"level"`
	Message   string   `json:"message" yaml:"message"`
	Details   []string `json:"details,omitempty" yaml:"details,omitempty"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
	Timestamp string   `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

func (w *Writer) record(alert *Alert) alertRecord {
	rec := alertRecord{Level: alert.Level.String(), Message: alert.Message}
	if w.details {
		rec.Details = alert.Details
	}
	if alert.Err != nil {
		rec.Error = alert.Err.Error()
	}
	if w.timestamps {
		rec.Timestamp = alert.Timestamp.Format(time.RFC3339)
	}
	return rec
}

func (w *Writer) writeText(alert *Alert) error {
	line := alert.String()
	if w.color {
		line = alert.Level.Color() + line + resetColor
	}
	if _, err := fmt.Fprintln(w.out, line); err != nil {
		return err
	}
	if !w.details {
		return nil
	}
	for _, d := range alert.Details {
		if _, err := fmt.Fprintf(w.out, "   %s\n", d); err != nil {
			return err
		}
	}
	return nil
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
