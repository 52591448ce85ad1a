package logging_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/staymap/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.DebugLevel))

	logging.Info().Msg("info message")
	logging.Err(errors.New("boom")).Msg("failed")

	output := buf.String()
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "boom")
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithCycle(ctx, "cycle-1")
	ctx = logging.WithUnit(ctx, "unit-42")
	ctx = logging.WithSource(ctx, "calendar")
	ctx = logging.WithTable(ctx, "units")

	logging.FromContext(ctx).Info().Msg("resolved")

	testLogger.AssertContains(t, `"cycle_id":"cycle-1"`)
	testLogger.AssertContains(t, `"unit_id":"unit-42"`)
	testLogger.AssertContains(t, `"source":"calendar"`)
	testLogger.AssertContains(t, `"table":"units"`)
	testLogger.AssertContains(t, "resolved")
}

func TestWithFields(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithFields(ctx, map[string]any{
		"units":  12,
		"stale":  true,
		"error":  errors.New("catalog down"),
		"reason": "fallback",
	})

	logging.FromContext(ctx).Warn().Msg("using cache")

	testLogger.AssertContains(t, `"units":12`)
	testLogger.AssertContains(t, `"stale":true`)
	testLogger.AssertContains(t, `"error":"catalog down"`)
	testLogger.AssertContains(t, `"reason":"fallback"`)
}

func TestFromContext_Fallback(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	assert.Same(t, logging.Default(), logging.FromContext(nil))
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
}

func TestNewLoggerFromConfig(t *testing.T) {
	t.Run("json to file with default fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "staymap.log")
		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:  "debug",
			Format: "json",
			Output: path,
			Fields: map[string]any{"service": "staymap"},
		})
		logger.Debug().Msg("hello")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"service":"staymap"`)
		assert.Contains(t, string(data), "hello")
	})

	t.Run("discard output", func(t *testing.T) {
		logger := logging.NewLoggerFromConfig(&logging.Config{Level: "info", Output: "discard"})
		logger.Info().Msg("nothing")
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		logger := logging.NewLoggerFromConfig(nil)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})
}

func TestEnvConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEBUG", "")
	t.Setenv("LOG_FORMAT", "")
	assert.Equal(t, "info", logging.EnvConfig().Level)
	assert.Equal(t, "auto", logging.EnvConfig().Format)

	t.Setenv("DEBUG", "1")
	assert.Equal(t, "debug", logging.EnvConfig().Level)

	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
	cfg := logging.EnvConfig()
	assert.Equal(t, "error", cfg.Level, "LOG_LEVEL beats DEBUG")
	assert.Equal(t, "json", cfg.Format)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(in), "level %q", in)
	}
}

func TestCaptureLoggingForTest(t *testing.T) {
	captured := logging.CaptureLoggingForTest(t)
	logging.Warn().Str("unit_id", "9").Msg("degraded")

	entries := captured.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "9", entries[0]["unit_id"])
	captured.AssertLogged(t, zerolog.WarnLevel, "degraded")
}

func TestRequestID(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)

	assert.Empty(t, logging.RequestID(ctx))

	ctx = logging.WithRequestID(ctx, "req-7")
	assert.Equal(t, "req-7", logging.RequestID(ctx))

	logging.FromContext(ctx).Info().Msg("served")
	entry, ok := testLogger.Find("served")
	require.True(t, ok)
	assert.Equal(t, "req-7", entry["request_id"])
	assert.Equal(t, "info", entry.Level())
}
