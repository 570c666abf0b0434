package transcriber

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxhall/callstream/internal/logger"
	"github.com/voxhall/callstream/pkg/models"
)

// sentiments are the labels the mock assigns, keyed by a stable hash of the
// call ID so repeated runs agree.
var sentiments = [...]string{"positive", "negative", "neutral", "mixed"}

// MockConfig tunes the simulated transcription service.
type MockConfig struct {
	// FailureRate is the probability in [0, 1] that an attempt fails with
	// models.ErrTranscriptionFailed. Zero means the mock never fails; the
	// service-level default (0.25) is applied by the caller's configuration.
	FailureRate float64

	// MinLatency and MaxLatency bound the simulated latency, drawn uniformly
	// per attempt. When both are zero the defaults of 1s and 3s apply.
	MinLatency time.Duration
	MaxLatency time.Duration

	// Seed makes latency and failure draws reproducible when non-zero.
	Seed uint64
}

// ApplyDefaults fills in missing configuration with default values.
func (c *MockConfig) ApplyDefaults() {
	if c.MinLatency == 0 && c.MaxLatency == 0 {
		c.MinLatency = time.Second
		c.MaxLatency = 3 * time.Second
	}
}

// Mock simulates an unreliable external transcription service. Attempts fail
// independently with the configured probability and take a random amount of
// time, which is what the orchestrator's retry loop is built against.
type Mock struct {
	config MockConfig

	mu  sync.Mutex
	rng *rand.Rand

	callCount    atomic.Int64
	failureCount atomic.Int64
}

// NewMock creates a mock transcriber from the given configuration.
func NewMock(config MockConfig) *Mock {
	config.ApplyDefaults()
	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Mock{
		config: config,
		rng:    rand.New(rand.NewPCG(seed, seed)),
	}
}

// Transcribe simulates one transcription attempt. It sleeps for the drawn
// latency (or until ctx is cancelled), then either fails transiently or
// returns a result whose sentiment is deterministic for the call ID.
func (m *Mock) Transcribe(ctx context.Context, callID, audioData string) (*Result, error) {
	calls := m.callCount.Add(1)

	latency, fail := m.draw()

	select {
	case <-time.After(latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if fail {
		failures := m.failureCount.Add(1)
		logger.Warn("Transcription attempt failed",
			"call_id", callID,
			"failures", failures,
			"calls", calls,
		)
		return nil, models.ErrTranscriptionFailed
	}

	logger.Debug("Transcription attempt succeeded",
		"call_id", callID,
		"latency", latency,
	)

	return &Result{
		Transcript: fmt.Sprintf("Mock transcript for call %s: Customer and agent conversation...", callID),
		Sentiment:  SentimentFor(callID),
	}, nil
}

// draw samples the per-attempt latency and failure outcome. rand.Rand is not
// safe for concurrent use, so draws are serialized.
func (m *Mock) draw() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	latency := m.config.MinLatency
	if span := m.config.MaxLatency - m.config.MinLatency; span > 0 {
		latency += time.Duration(m.rng.Float64() * float64(span))
	}
	return latency, m.rng.Float64() < m.config.FailureRate
}

// Stats reports how many attempts the mock served and how many of them
// failed.
func (m *Mock) Stats() (calls, failures int64) {
	return m.callCount.Load(), m.failureCount.Load()
}

// SentimentFor returns the deterministic sentiment label for a call ID.
func SentimentFor(callID string) string {
	h := fnv.New32a()
	h.Write([]byte(callID))
	return sentiments[h.Sum32()%uint32(len(sentiments))]
}

// Compile-time interface check
var _ Transcriber = (*Mock)(nil)
