package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := L()
	l, closeFn := NewLogger(Config{Level: level, Format: "json", Writer: &buf})
	SetLogger(l)
	t.Cleanup(func() {
		closeFn()
		SetLogger(prev)
	})
	return &buf
}

func TestContextLogging(t *testing.T) {
	buf := captureLogger(t, slog.LevelDebug)

	ctx := WithContextValue(context.Background(), QueryIDKey, "q-1")
	ctx = WithContextValue(ctx, TableKey, "t1")
	InfoContext(ctx, "scan finished", "batches", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scan finished", entry["msg"])
	assert.Equal(t, "q-1", entry["query_id"])
	assert.Equal(t, "t1", entry["table"])
	assert.Equal(t, float64(2), entry["batches"])
}

func TestWithContextFields(t *testing.T) {
	buf := captureLogger(t, slog.LevelDebug)

	ctx := WithContextValue(context.Background(), QueryIDKey, "q-2")
	WithContext(ctx).With(Component("executor")).Warn("plan failed",
		Operation("ProjectionPlan.Execute"), ErrorField(errors.New("boom")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "q-2", entry["query_id"])
	assert.Equal(t, "executor", entry["component"])
	assert.Equal(t, "ProjectionPlan.Execute", entry["operation"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "<nil>", ErrorField(nil).Value.String())
}

func TestLevelFiltering(t *testing.T) {
	buf := captureLogger(t, slog.LevelWarn)

	Debug("hidden")
	Info("hidden")
	assert.Zero(t, buf.Len())

	Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG", slog.LevelInfo))
	assert.Equal(t, slog.LevelError, ParseLevel("error", slog.LevelInfo))
	assert.Equal(t, slog.Level(-8), ParseLevel("-8", slog.LevelInfo))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud", slog.LevelInfo))
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("LOG_ADD_SOURCE", "true")
	t.Setenv("LOG_SEQ_URL", "http://localhost:5341")

	config := LoadConfig()
	assert.Equal(t, slog.LevelWarn, config.Level)
	assert.Equal(t, "text", config.Format)
	assert.True(t, config.AddSource)
	assert.Equal(t, "http://localhost:5341", config.SeqURL)
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	l := slog.New(h).With(Component("test"))

	l.Info("info only")
	assert.Contains(t, a.String(), "info only")
	assert.Contains(t, a.String(), `"component":"test"`)
	assert.Zero(t, b.Len())

	l.Error("both")
	assert.Contains(t, b.String(), "both")
}
