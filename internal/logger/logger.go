// Package logger is the process-wide structured logging facade.
//
// Components log through the package-level functions instead of holding
// logger instances. Level and format can be switched at runtime, and the
// *Ctx variants pull request-scoped fields (trace, call, client) out of
// the context so handlers and workers don't thread them by hand.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Config holds logger configuration
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

// level filters records inside whichever handler is installed, so runtime
// level changes don't need a handler rebuild.
var level = new(slog.LevelVar)

var (
	mu       sync.RWMutex
	format   = "text"
	useColor = true

	output  io.Writer = os.Stdout
	slogger *slog.Logger
)

func init() {
	if f, ok := output.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}
	mu.Lock()
	rebuild()
	mu.Unlock()
}

// parseLevel maps a level name to a slog level.
func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	}
	return 0, false
}

// rebuild installs a handler for the current format and output.
// Callers must hold mu.
func rebuild() {
	if format == "json" {
		slogger = slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level}))
	} else {
		slogger = slog.New(newTextHandler(output, level, useColor))
	}
}

// openOutput resolves an output spec to a writer plus whether it can take
// ANSI color. File outputs are opened append-only and never colored.
func openOutput(spec string) (io.Writer, bool, error) {
	switch strings.ToLower(spec) {
	case "stdout":
		return os.Stdout, isTerminal(os.Stdout.Fd()), nil
	case "stderr":
		return os.Stderr, isTerminal(os.Stderr.Fd()), nil
	}

	f, err := os.OpenFile(spec, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open log file %q: %w", spec, err)
	}
	return f, false, nil
}

// Init applies cfg. Empty fields keep their current setting, so a partial
// config only overrides what it names.
func Init(cfg Config) error {
	mu.Lock()
	if cfg.Output != "" {
		w, color, err := openOutput(cfg.Output)
		if err != nil {
			mu.Unlock()
			return err
		}
		output = w
		useColor = color
	}
	if f := strings.ToLower(cfg.Format); f == "text" || f == "json" {
		format = f
	}
	rebuild()
	mu.Unlock()

	SetLevel(cfg.Level)
	return nil
}

// InitWithWriter points the logger at w. Tests use it to capture output.
func InitWithWriter(w io.Writer, levelName, formatName string, enableColor bool) {
	mu.Lock()
	output = w
	useColor = enableColor
	if f := strings.ToLower(formatName); f == "text" || f == "json" {
		format = f
	}
	rebuild()
	mu.Unlock()

	SetLevel(levelName)
}

// SetLevel switches the minimum level at runtime. Unknown names are ignored.
func SetLevel(name string) {
	if l, ok := parseLevel(name); ok {
		level.Set(l)
	}
}

// SetFormat switches between "text" and "json" output at runtime.
// Unknown formats are ignored.
func SetFormat(name string) {
	name = strings.ToLower(name)
	if name != "text" && name != "json" {
		return
	}

	mu.Lock()
	format = name
	rebuild()
	mu.Unlock()
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

// ============================================================================
// Structured Logging API
// ============================================================================

// Debug logs at debug level.
// Usage: Debug("message", "key1", value1, "key2", value2)
func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	get().Error(msg, args...)
}

// ============================================================================
// Context-aware Logging API
// ============================================================================

// DebugCtx logs at debug level, prepending the fields carried by ctx
// (trace_id, call_id, request_id, ...).
func DebugCtx(ctx context.Context, msg string, args ...any) {
	l := get()
	if !l.Enabled(ctx, slog.LevelDebug) {
		return
	}
	l.Debug(msg, prependContextFields(ctx, args)...)
}

// InfoCtx logs at info level with context fields
func InfoCtx(ctx context.Context, msg string, args ...any) {
	l := get()
	if !l.Enabled(ctx, slog.LevelInfo) {
		return
	}
	l.Info(msg, prependContextFields(ctx, args)...)
}

// WarnCtx logs at warn level with context fields
func WarnCtx(ctx context.Context, msg string, args ...any) {
	l := get()
	if !l.Enabled(ctx, slog.LevelWarn) {
		return
	}
	l.Warn(msg, prependContextFields(ctx, args)...)
}

// ErrorCtx logs at error level with context fields
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	get().Error(msg, prependContextFields(ctx, args)...)
}

// prependContextFields puts the context's log fields ahead of args so they
// render first in the output.
func prependContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}
	return append(lc.fields(), args...)
}

// Duration returns duration since start time in milliseconds
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
