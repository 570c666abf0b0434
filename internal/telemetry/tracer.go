package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on call-processing spans, following OpenTelemetry
// naming where a convention exists.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// ========================================================================
	// Call attributes
	// ========================================================================
	AttrCallID       = "call.id"
	AttrCallState    = "call.state"
	AttrSequence     = "call.sequence"
	AttrLastSequence = "call.last_sequence"
	AttrPacketCount  = "call.packet_count"
	AttrDuplicate    = "call.duplicate"

	// ========================================================================
	// AI processing attributes
	// ========================================================================
	AttrAttempt    = "ai.attempt"
	AttrMaxRetries = "ai.max_retries"
	AttrSentiment  = "ai.sentiment"
	AttrOutcome    = "ai.outcome"

	// ========================================================================
	// Archive export attributes
	// ========================================================================
	AttrBucket = "storage.bucket"
	AttrKey    = "storage.key"
)

// Span names, formatted <component>.<operation>.
const (
	// Root span for one packet ingest request
	SpanIngest = "ingest.packet"

	// Orchestrator spans
	SpanProcessingRun = "orchestrator.run"

	// One transcription adapter invocation
	SpanTranscribe = "transcriber.transcribe"

	// Retention spans
	SpanArchivePass   = "archive.sweep"
	SpanArchiveExport = "archive.export"
)

// ============================================================================
// Attribute helpers
// ============================================================================

// ClientIP returns an attribute carrying the caller's IP
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for the full client address (IP:port)
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// CallID returns an attribute for the call identifier
func CallID(id string) attribute.KeyValue {
	return attribute.String(AttrCallID, id)
}

// CallState returns an attribute for the call's state
func CallState(state string) attribute.KeyValue {
	return attribute.String(AttrCallState, state)
}

// Sequence returns an attribute for a packet sequence number
func Sequence(seq int64) attribute.KeyValue {
	return attribute.Int64(AttrSequence, seq)
}

// LastSequence returns an attribute for the call's highest observed sequence
func LastSequence(seq int64) attribute.KeyValue {
	return attribute.Int64(AttrLastSequence, seq)
}

// PacketCount returns an attribute for the call's packet count
func PacketCount(count int) attribute.KeyValue {
	return attribute.Int(AttrPacketCount, count)
}

// Duplicate returns an attribute marking an idempotent replay
func Duplicate(dup bool) attribute.KeyValue {
	return attribute.Bool(AttrDuplicate, dup)
}

// Attempt returns an attribute for a transcription attempt number
func Attempt(n int) attribute.KeyValue {
	return attribute.Int(AttrAttempt, n)
}

// MaxRetries returns an attribute for the configured retry budget
func MaxRetries(n int) attribute.KeyValue {
	return attribute.Int(AttrMaxRetries, n)
}

// Sentiment returns an attribute for the transcription sentiment
func Sentiment(s string) attribute.KeyValue {
	return attribute.String(AttrSentiment, s)
}

// Outcome returns an attribute for the terminal outcome of a processing run
func Outcome(o string) attribute.KeyValue {
	return attribute.String(AttrOutcome, o)
}

// Bucket returns an attribute for an S3 bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for an S3 object key
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// ============================================================================
// Span constructors
// ============================================================================

// StartIngestSpan starts a span for one packet ingest request.
func StartIngestSpan(ctx context.Context, callID string, sequence int64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		CallID(callID),
		Sequence(sequence),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanIngest, trace.WithAttributes(allAttrs...))
}

// StartProcessingSpan starts the root span for one orchestrator run.
func StartProcessingSpan(ctx context.Context, callID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		CallID(callID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanProcessingRun, trace.WithAttributes(allAttrs...))
}

// StartTranscribeSpan starts a span for one transcription adapter invocation.
func StartTranscribeSpan(ctx context.Context, callID string, attempt int, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		CallID(callID),
		Attempt(attempt),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanTranscribe, trace.WithAttributes(allAttrs...))
}

// StartArchiveSpan starts a span for one retention pass.
func StartArchiveSpan(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanArchivePass, trace.WithAttributes(attrs...))
}

// StartExportSpan starts a span for one archive bundle upload.
func StartExportSpan(ctx context.Context, callID, bucket, key string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanArchiveExport, trace.WithAttributes(
		CallID(callID),
		Bucket(bucket),
		StorageKey(key),
	))
}
