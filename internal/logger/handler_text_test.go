package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textLogger(useColor bool) (*slog.Logger, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	return slog.New(newTextHandler(buf, slog.LevelDebug, useColor)), buf
}

func TestHandlerValueFormatting(t *testing.T) {
	lg, buf := textLogger(false)

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	lg.Info("mixed values",
		slog.Int64("sequence", 42),
		slog.Uint64("bytes", 1024),
		slog.Float64("duration_ms", 12.5),
		slog.Bool("archived", true),
		slog.Duration("backoff", 1500*time.Millisecond),
		slog.Time("expires", ts),
		slog.Any("payload", []int{1, 2}),
	)

	out := buf.String()
	assert.Contains(t, out, "sequence=42")
	assert.Contains(t, out, "bytes=1024")
	assert.Contains(t, out, "duration_ms=12.500")
	assert.Contains(t, out, "archived=true")
	assert.Contains(t, out, "backoff=1.5s")
	assert.Contains(t, out, "expires=2026-03-14T09:26:53Z")
	assert.Contains(t, out, "payload=[1 2]")
}

func TestHandlerGroups(t *testing.T) {
	t.Run("named group qualifies keys", func(t *testing.T) {
		lg, buf := textLogger(false)

		lg.Info("retrying", slog.Group("retry", slog.Int("attempt", 2), slog.String("reason", "timeout")))

		assert.Contains(t, buf.String(), "retry.attempt=2")
		assert.Contains(t, buf.String(), "retry.reason=timeout")
	})

	t.Run("WithGroup prefixes later attrs", func(t *testing.T) {
		lg, buf := textLogger(false)

		lg.WithGroup("export").Info("uploaded", slog.String("bucket", "call-archives"))

		assert.Contains(t, buf.String(), "export.bucket=call-archives")
	})

	t.Run("WithAttrs binds attrs to every record", func(t *testing.T) {
		lg, buf := textLogger(false)

		bound := lg.With(slog.String("component", "sweeper"))
		bound.Info("pass started")
		bound.Info("pass finished")

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte{'\n'})
		require.Len(t, lines, 2)
		for _, line := range lines {
			assert.Contains(t, string(line), "component=sweeper")
		}
	})

	t.Run("empty attr dropped", func(t *testing.T) {
		lg, buf := textLogger(false)

		lg.Info("with nil error", Err(nil))

		assert.NotContains(t, buf.String(), "error=")
	})
}

func TestHandlerColor(t *testing.T) {
	t.Run("colored level tag and keys", func(t *testing.T) {
		lg, buf := textLogger(true)

		lg.Warn("disk pressure", slog.String("component", "sweeper"))

		out := buf.String()
		assert.Contains(t, out, ansiYellow+"WARN"+ansiReset)
		assert.Contains(t, out, ansiCyan+"component"+ansiReset+"=sweeper")
	})

	t.Run("plain output has no escape codes", func(t *testing.T) {
		lg, buf := textLogger(false)

		lg.Error("boom", slog.String("component", "api"))

		assert.NotContains(t, buf.String(), "\033[")
	})
}

func TestHandlerEnabled(t *testing.T) {
	h := newTextHandler(bytes.NewBuffer(nil), slog.LevelWarn, false)

	ctx := context.Background()
	assert.False(t, h.Enabled(ctx, slog.LevelDebug))
	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelWarn))
	assert.True(t, h.Enabled(ctx, slog.LevelError))

	t.Run("nil level defaults to info", func(t *testing.T) {
		h := newTextHandler(bytes.NewBuffer(nil), nil, false)
		assert.False(t, h.Enabled(ctx, slog.LevelDebug))
		assert.True(t, h.Enabled(ctx, slog.LevelInfo))
	})
}

func TestHandlerCloneIsolation(t *testing.T) {
	lg, buf := textLogger(false)

	scoped := lg.With(slog.String("call_id", "call-9"))
	scoped.Info("scoped record")
	lg.Info("base record")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte{'\n'})
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "call_id=call-9")
	assert.NotContains(t, string(lines[1]), "call_id=")
}
