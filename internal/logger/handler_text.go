package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
)

// textHandler renders records as single human-readable lines:
//
//	[2026-01-02 15:04:05] [INFO] message key=value group.key=value
//
// slog.Group attrs are flattened into dotted keys so lines stay greppable.
// Level tags and keys are ANSI-colored on terminals.
type textHandler struct {
	level slog.Leveler
	out   io.Writer
	mu    *sync.Mutex
	color bool

	bound []slog.Attr // attrs from WithAttrs, written on every record
	scope string      // dotted WithGroup prefix, e.g. "export."
}

// newTextHandler builds the handler. level may be a *slog.LevelVar so the
// minimum level can move at runtime; nil means INFO.
func newTextHandler(out io.Writer, level slog.Leveler, color bool) *textHandler {
	return &textHandler{
		level: level,
		out:   out,
		mu:    new(sync.Mutex),
		color: color,
	}
}

func (h *textHandler) Enabled(_ context.Context, l slog.Level) bool {
	min := slog.LevelInfo
	if h.level != nil {
		min = h.level.Level()
	}
	return l >= min
}

// Handle renders r into a local buffer; the mutex covers only the write,
// so concurrent loggers never interleave partial lines.
func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	buf = append(buf, '[')
	buf = r.Time.AppendFormat(buf, "2006-01-02 15:04:05")
	buf = append(buf, "] ["...)

	tag, tint := levelTag(r.Level)
	if h.color {
		buf = append(buf, tint...)
		buf = append(buf, tag...)
		buf = append(buf, ansiReset...)
	} else {
		buf = append(buf, tag...)
	}
	buf = append(buf, "] "...)
	buf = append(buf, r.Message...)

	for _, a := range h.bound {
		buf = h.appendAttr(buf, a, h.scope)
	}
	r.Attrs(func(a slog.Attr) bool {
		buf = h.appendAttr(buf, a, h.scope)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf)
	return err
}

// levelTag maps a level to its tag and ANSI color. Levels between the
// named ones take the tag below them.
func levelTag(l slog.Level) (string, string) {
	switch {
	case l >= slog.LevelError:
		return "ERROR", ansiRed
	case l >= slog.LevelWarn:
		return "WARN", ansiYellow
	case l >= slog.LevelInfo:
		return "INFO", ansiGreen
	default:
		return "DEBUG", ansiGray
	}
}

// appendAttr appends one attribute as " key=value". Group values are
// flattened in place, their members qualified as "group.key".
func (h *textHandler) appendAttr(buf []byte, a slog.Attr, scope string) []byte {
	if a.Equal(slog.Attr{}) {
		return buf
	}
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		inner := scope
		if a.Key != "" {
			inner = scope + a.Key + "."
		}
		for _, member := range a.Value.Group() {
			buf = h.appendAttr(buf, member, inner)
		}
		return buf
	}

	buf = append(buf, ' ')
	if h.color {
		buf = append(buf, ansiCyan...)
	}
	buf = append(buf, scope...)
	buf = append(buf, a.Key...)
	if h.color {
		buf = append(buf, ansiReset...)
	}
	buf = append(buf, '=')
	return appendValue(buf, a.Value)
}

// appendValue appends v's text form. Strings and unknown kinds fall through
// to slog's own rendering.
func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'f', 3, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().AppendFormat(buf, time.RFC3339)
	case slog.KindAny:
		return fmt.Appendf(buf, "%v", v.Any())
	default:
		return append(buf, v.String()...)
	}
}

// WithAttrs and WithGroup hand out shallow copies sharing the parent's
// mutex, so every descendant serializes writes to the same writer.

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.bound = append(h.bound[:len(h.bound):len(h.bound)], attrs...)
	return &c
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.scope = h.scope + name + "."
	return &c
}
