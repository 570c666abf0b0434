// Package prometheus implements the metrics interfaces using Prometheus
// collectors. Importing this package (usually blank) registers its
// constructors with pkg/metrics.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/voxhall/callstream/pkg/metrics"
)

func init() {
	metrics.RegisterCallMetricsConstructor(NewCallMetrics)
}

// callMetrics is the Prometheus implementation for call pipeline metrics.
type callMetrics struct {
	ingestRequests        *prometheus.CounterVec
	ingestDuration        prometheus.Histogram
	packetsDuplicate      prometheus.Counter
	sequenceMismatches    prometheus.Counter
	transcriptionAttempts prometheus.Counter
	transcriptionOutcomes *prometheus.CounterVec
	attemptsPerRun        prometheus.Histogram
	stateTransitions      *prometheus.CounterVec
	wsConnections         prometheus.Gauge
	eventsPublished       prometheus.Counter
}

// NewCallMetrics creates a new Prometheus-backed call metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewCallMetrics() metrics.CallMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &callMetrics{
		ingestRequests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "callstream_ingest_requests_total",
				Help: "Total number of packet ingest requests by outcome",
			},
			[]string{"status"}, // "accepted", "duplicate", "invalid", "error"
		),
		ingestDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "callstream_ingest_duration_milliseconds",
				Help:    "Packet ingest latency from request receipt to response",
				Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000}, // 1ms to 1s
			},
		),
		packetsDuplicate: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "callstream_packets_duplicate_total",
				Help: "Total number of packets replaying an already stored (call_id, sequence) pair",
			},
		),
		sequenceMismatches: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "callstream_sequence_mismatches_total",
				Help: "Total number of packets accepted with an out-of-order sequence number",
			},
		),
		transcriptionAttempts: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "callstream_transcription_attempts_total",
				Help: "Total number of transcription attempts including retries",
			},
		),
		transcriptionOutcomes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "callstream_transcription_outcomes_total",
				Help: "Total number of finished transcription runs by outcome",
			},
			[]string{"outcome"}, // "completed", "failed"
		),
		attemptsPerRun: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "callstream_transcription_attempts_per_run",
				Help:    "Attempts consumed by a transcription run before it finished",
				Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
			},
		),
		stateTransitions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "callstream_state_transitions_total",
				Help: "Total number of call state transitions",
			},
			[]string{"from", "to"},
		),
		wsConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "callstream_ws_connections",
				Help: "Current number of connected dashboard WebSocket clients",
			},
		),
		eventsPublished: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "callstream_dashboard_events_published_total",
				Help: "Total number of dashboard events delivered to subscriber queues",
			},
		),
	}
}

func (m *callMetrics) IngestObserved(status string, duration time.Duration) {
	m.ingestRequests.WithLabelValues(status).Inc()
	m.ingestDuration.Observe(float64(duration.Seconds() * 1000)) // convert to ms
}

func (m *callMetrics) PacketDuplicate() {
	m.packetsDuplicate.Inc()
}

func (m *callMetrics) SequenceMismatch() {
	m.sequenceMismatches.Inc()
}

func (m *callMetrics) TranscriptionAttempt(_ int) {
	m.transcriptionAttempts.Inc()
}

func (m *callMetrics) TranscriptionOutcome(outcome string, attempts int) {
	m.transcriptionOutcomes.WithLabelValues(outcome).Inc()
	m.attemptsPerRun.Observe(float64(attempts))
}

func (m *callMetrics) StateTransition(from string, to string) {
	m.stateTransitions.WithLabelValues(from, to).Inc()
}

func (m *callMetrics) WSConnections(delta int) {
	m.wsConnections.Add(float64(delta))
}

func (m *callMetrics) EventsPublished(count int) {
	m.eventsPublished.Add(float64(count))
}
