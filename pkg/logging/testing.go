package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// TestLogger records JSON log output so tests can assert on it.
type TestLogger struct {
	*zerolog.Logger
	Buffer *bytes.Buffer
}

// Entry is one decoded log line.
type Entry map[string]any

// Message returns the entry's message field.
func (e Entry) Message() string {
	msg, _ := e[zerolog.MessageFieldName].(string)
	return msg
}

// Level returns the entry's level field.
func (e Entry) Level() string {
	lvl, _ := e[zerolog.LevelFieldName].(string)
	return lvl
}

// NewTestLogger returns a logger that records every level. The global level
// is lowered for the duration of the test.
func NewTestLogger(t testing.TB) *TestLogger {
	t.Helper()

	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.TraceLevel)
	return &TestLogger{Logger: &logger, Buffer: buf}
}

// CaptureLoggingForTest routes the default logger into a TestLogger until
// the test ends.
func CaptureLoggingForTest(t testing.TB) *TestLogger {
	t.Helper()

	prev := *Default()
	tl := NewTestLogger(t)
	SetDefault(*tl.Logger)
	t.Cleanup(func() { SetDefault(prev) })
	return tl
}

// Output returns everything logged so far.
func (tl *TestLogger) Output() string {
	return tl.Buffer.String()
}

// Entries decodes the recorded lines. Lines that are not JSON are skipped.
func (tl *TestLogger) Entries() []Entry {
	var out []Entry
	sc := bufio.NewScanner(bytes.NewReader(tl.Buffer.Bytes()))
	for sc.Scan() {
		var e Entry
		if json.Unmarshal(sc.Bytes(), &e) == nil {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the first entry with the given message.
func (tl *TestLogger) Find(msg string) (Entry, bool) {
	for _, e := range tl.Entries() {
		if e.Message() == msg {
			return e, true
		}
	}
	return nil, false
}

// AssertContains fails the test when substr was never logged.
func (tl *TestLogger) AssertContains(t testing.TB, substr string) {
	t.Helper()
	if !strings.Contains(tl.Output(), substr) {
		t.Errorf("log output does not contain %q\n%s", substr, tl.Output())
	}
}

// AssertLogged fails the test unless an entry with msg was logged at level.
func (tl *TestLogger) AssertLogged(t testing.TB, level zerolog.Level, msg string) {
	t.Helper()
	e, ok := tl.Find(msg)
	switch {
	case !ok:
		t.Errorf("no %q entry logged\n%s", msg, tl.Output())
	case e.Level() != level.String():
		t.Errorf("%q logged at %s, want %s", msg, e.Level(), level)
	}
}
