package logger

import (
	"context"
	"time"
)

type ctxKey struct{}

// LogContext carries request-scoped fields that every log line within the
// request should include.
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	CallID    string    // Call session identifier
	RequestID string    // HTTP request ID from the middleware chain
	ClientIP  string    // Client IP address (without port)
	StartTime time.Time // For duration calculation
}

// WithContext stores lc in ctx for the *Ctx logging functions to find.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, lc)
}

// FromContext returns the LogContext stored in ctx, or nil.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	if lc, ok := ctx.Value(ctxKey{}).(*LogContext); ok {
		return lc
	}
	return nil
}

// NewLogContext starts the log fields for one request: the client address
// plus the arrival time, which DurationMs measures against.
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{ClientIP: clientIP, StartTime: time.Now()}
}

// ContextWithCallID stamps callID onto the context's log fields, creating
// the LogContext if no middleware installed one.
func ContextWithCallID(ctx context.Context, callID string) context.Context {
	lc := FromContext(ctx)
	if lc == nil {
		lc = &LogContext{}
	}
	return WithContext(ctx, lc.WithCallID(callID))
}

// Clone returns a shallow copy. Nil receivers stay nil so the With helpers
// chain safely off a missing context.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// WithCallID returns a copy carrying the call ID.
func (lc *LogContext) WithCallID(callID string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.CallID = callID
	}
	return c
}

// WithRequestID returns a copy carrying the HTTP request ID.
func (lc *LogContext) WithRequestID(requestID string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.RequestID = requestID
	}
	return c
}

// WithTrace returns a copy carrying the OpenTelemetry identifiers.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.TraceID = traceID
		c.SpanID = spanID
	}
	return c
}

// fields renders the populated entries as alternating key/value pairs in
// a stable order, trace identifiers first.
func (lc *LogContext) fields() []any {
	fs := make([]any, 0, 10)
	if lc.TraceID != "" {
		fs = append(fs, KeyTraceID, lc.TraceID)
	}
	if lc.SpanID != "" {
		fs = append(fs, KeySpanID, lc.SpanID)
	}
	if lc.CallID != "" {
		fs = append(fs, KeyCallID, lc.CallID)
	}
	if lc.RequestID != "" {
		fs = append(fs, KeyRequestID, lc.RequestID)
	}
	if lc.ClientIP != "" {
		fs = append(fs, KeyClientIP, lc.ClientIP)
	}
	return fs
}

// DurationMs is the elapsed time since the request started, in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return Duration(lc.StartTime)
}
