package metrics

import (
	"time"
)

// CallMetrics provides observability for the call ingestion pipeline.
//
// Implementations collect metrics about packet ingestion, transcription
// attempts, state transitions, and dashboard fan-out. The interface is
// optional - pass nil to disable metrics collection with zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	callMetrics := metrics.NewCallMetrics()
//	orch := orchestrator.New(store, adapter, h, callMetrics, cfg)
//
//	// Without metrics (pass nil for zero overhead)
//	orch := orchestrator.New(store, adapter, h, nil, cfg)
type CallMetrics interface {
	// IngestObserved records a completed ingest request.
	//
	// Parameters:
	//   - status: Terminal outcome ("accepted", "duplicate", "invalid", "error")
	//   - duration: Time from request receipt to response
	IngestObserved(status string, duration time.Duration)

	// PacketDuplicate increments the duplicate-packet counter. Called when a
	// packet replays a (call_id, sequence) pair that is already stored.
	PacketDuplicate()

	// SequenceMismatch increments the out-of-order arrival counter.
	SequenceMismatch()

	// TranscriptionAttempt records a single transcription attempt.
	//
	// Parameters:
	//   - attempt: 1-based attempt number within the current run
	TranscriptionAttempt(attempt int)

	// TranscriptionOutcome records the terminal result of a transcription run.
	//
	// Parameters:
	//   - outcome: "completed" or "failed"
	//   - attempts: Total attempts consumed by the run
	TranscriptionOutcome(outcome string, attempts int)

	// StateTransition records a call state change.
	//
	// Parameters:
	//   - from: Previous call state (e.g. "IN_PROGRESS")
	//   - to: New call state (e.g. "PROCESSING_AI")
	StateTransition(from string, to string)

	// WSConnections adjusts the active dashboard connection gauge.
	// Pass +1 on connect and -1 on disconnect.
	WSConnections(delta int)

	// EventsPublished records dashboard events fanned out to subscribers.
	//
	// Parameters:
	//   - count: Number of subscriber queues the event was delivered to
	EventsPublished(count int)
}

// NewCallMetrics creates a new Prometheus-backed CallMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
// When nil is returned, callers should pass nil to components, which
// results in zero overhead.
func NewCallMetrics() CallMetrics {
	if !IsEnabled() || newPrometheusCallMetrics == nil {
		return nil
	}

	return newPrometheusCallMetrics()
}

// newPrometheusCallMetrics is implemented in pkg/metrics/prometheus/calls.go
// This indirection avoids import cycles while keeping the API clean
var newPrometheusCallMetrics func() CallMetrics

// RegisterCallMetricsConstructor registers the Prometheus call metrics constructor.
// Called by pkg/metrics/prometheus/calls.go during package initialization.
func RegisterCallMetricsConstructor(constructor func() CallMetrics) {
	newPrometheusCallMetrics = constructor
}

// ObserveIngest records a completed ingest request, tolerating a nil metrics
// instance.
//
// Example usage:
//
//	start := time.Now()
//	result, err := store.IngestPacket(ctx, packet)
//	metrics.ObserveIngest(m, status, time.Since(start))
func ObserveIngest(m CallMetrics, status string, duration time.Duration) {
	if m != nil {
		m.IngestObserved(status, duration)
	}
}

// RecordDuplicate increments the duplicate-packet counter, tolerating a nil
// metrics instance.
func RecordDuplicate(m CallMetrics) {
	if m != nil {
		m.PacketDuplicate()
	}
}

// RecordSequenceMismatch increments the out-of-order counter, tolerating a
// nil metrics instance.
func RecordSequenceMismatch(m CallMetrics) {
	if m != nil {
		m.SequenceMismatch()
	}
}

// RecordStateTransition records a call state change, tolerating a nil
// metrics instance.
func RecordStateTransition(m CallMetrics, from string, to string) {
	if m != nil {
		m.StateTransition(from, to)
	}
}
