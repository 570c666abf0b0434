package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation
// and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Call Pipeline
	// ========================================================================
	KeyCallID       = "call_id"       // Logical call session identifier
	KeySequence     = "sequence"      // Packet sequence number
	KeyLastSequence = "last_sequence" // Highest sequence observed for a call
	KeyPacketCount  = "packet_count"  // Number of packets stored for a call
	KeyState        = "state"         // Current call state
	KeyFromState    = "from_state"    // Source state of a transition
	KeyToState      = "to_state"      // Target state of a transition
	KeySentiment    = "sentiment"     // Sentiment label from transcription

	// ========================================================================
	// Processing & Retries
	// ========================================================================
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts
	KeyBackoff    = "backoff"     // Backoff delay before the next attempt
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message

	// ========================================================================
	// Client Identification
	// ========================================================================
	KeyClientIP  = "client_ip"  // Client IP address
	KeyRequestID = "request_id" // HTTP request ID from the middleware chain
	KeyMethod    = "method"     // HTTP method
	KeyPath      = "path"       // HTTP request path
	KeyStatus    = "status"     // HTTP response status code

	// ========================================================================
	// Notification Hub
	// ========================================================================
	KeyEvent       = "event"       // Event type pushed to observers
	KeySubscribers = "subscribers" // Number of peers notified

	// ========================================================================
	// Storage & Archival
	// ========================================================================
	KeyDatabase = "database" // Database backend: sqlite, postgres
	KeyBucket   = "bucket"   // S3 bucket for archived call bundles
	KeyKey      = "key"      // Object key in cloud storage
	KeyRegion   = "region"   // Cloud region

	// ========================================================================
	// Lifecycle
	// ========================================================================
	KeyComponent = "component" // Subsystem name: api, orchestrator, hub, sweeper
	KeySignal    = "signal"    // OS signal that triggered shutdown
	KeyCount     = "count"     // Generic count
)

// ============================================================================
// Field constructors for type safety
// These functions provide type-safe construction of slog.Attr values.
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// CallID returns a slog.Attr for the call session identifier
func CallID(id string) slog.Attr {
	return slog.String(KeyCallID, id)
}

// Sequence returns a slog.Attr for a packet sequence number
func Sequence(seq int64) slog.Attr {
	return slog.Int64(KeySequence, seq)
}

// State returns a slog.Attr for a call state
func State(state string) slog.Attr {
	return slog.String(KeyState, state)
}

// Transition returns a group describing a state transition
func Transition(from, to string) slog.Attr {
	return slog.Group("", slog.String(KeyFromState, from), slog.String(KeyToState, to))
}

// Attempt returns a slog.Attr for a retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for the retry ceiling
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// Backoff returns a slog.Attr for the delay before the next attempt
func Backoff(d time.Duration) slog.Attr {
	return slog.Duration(KeyBackoff, d)
}

// DurationMs returns a slog.Attr for an operation duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// ClientIP returns a slog.Attr for the client address
func ClientIP(ip string) slog.Attr {
	return slog.String(KeyClientIP, ip)
}

// Component returns a slog.Attr naming the emitting subsystem
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Err returns a slog.Attr for an error (empty attr if nil)
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
