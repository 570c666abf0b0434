// Package orchestrator drives the AI processing lifecycle of calls.
//
// A trigger spawns at most one background run per call: the in_flight set
// coalesces triggers within this process, and the IN_PROGRESS|FAILED ->
// PROCESSING_AI transition is the authoritative claim across processes. The
// run concatenates the call's packet data and invokes the transcription
// adapter under an exponential backoff retry loop; the terminal outcome
// (COMPLETED or FAILED) is persisted and published to the notification hub.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/voxhall/callstream/internal/logger"
	"github.com/voxhall/callstream/internal/telemetry"
	"github.com/voxhall/callstream/pkg/hub"
	"github.com/voxhall/callstream/pkg/metrics"
	"github.com/voxhall/callstream/pkg/models"
	"github.com/voxhall/callstream/pkg/store"
	"github.com/voxhall/callstream/pkg/transcriber"
)

const (
	// DefaultMaxRetries bounds transcription retries when the config leaves
	// MaxRetries unset.
	DefaultMaxRetries = 5

	// DefaultBackoffBase is the default time unit of the retry backoff.
	DefaultBackoffBase = time.Second
)

// Config holds the orchestrator settings.
type Config struct {
	// MaxRetries is the number of transcription retries after the initial
	// attempt. A call whose retries are exhausted transitions to FAILED.
	MaxRetries int

	// BackoffBase is the time unit of the retry backoff. Retry n sleeps
	// 2^n + U[0,1) units, so the default unit of one second puts the first
	// retry 2s..3s after the initial failure. Tests shrink it.
	BackoffBase time.Duration
}

// ApplyDefaults fills in missing configuration with default values.
func (c *Config) ApplyDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
}

// Orchestrator runs the per-call processing loop.
type Orchestrator struct {
	store   store.Store
	adapter transcriber.Transcriber
	hub     *hub.Hub
	metrics metrics.CallMetrics
	config  Config

	mu       sync.Mutex
	inFlight map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an orchestrator wired to its storage, adapter, and hub
// dependencies. The metrics parameter may be nil when collection is
// disabled. Runs spawned by Trigger live until they reach a terminal
// outcome or Shutdown cancels them.
func New(s store.Store, adapter transcriber.Transcriber, h *hub.Hub, m metrics.CallMetrics, config Config) *Orchestrator {
	config.ApplyDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:    s,
		adapter:  adapter,
		hub:      h,
		metrics:  m,
		config:   config,
		inFlight: make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Trigger requests processing for a call. If a run for the call is already
// in flight the trigger is coalesced and Trigger returns false; otherwise a
// background run is spawned and Trigger returns true.
//
// Trigger must be called only after the packet that motivated it has been
// committed, so the run's reload observes it.
func (o *Orchestrator) Trigger(callID string) bool {
	o.mu.Lock()
	if _, busy := o.inFlight[callID]; busy {
		o.mu.Unlock()
		logger.Debug("Processing already in flight", logger.CallID(callID))
		return false
	}
	o.inFlight[callID] = struct{}{}
	o.mu.Unlock()

	o.wg.Add(1)
	go o.run(o.ctx, callID)
	return true
}

// InFlight reports the number of calls currently being processed.
func (o *Orchestrator) InFlight() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.inFlight)
}

// Shutdown cancels all in-flight runs and waits for them to release their
// slots. Runs abandoned mid-backoff or mid-adapter-call leave their calls
// in PROCESSING_AI; the database remains the source of truth.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.cancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("orchestrator shutdown: %w", ctx.Err())
	}
}

// run is the per-call processing loop. It claims the call once, then
// retries the adapter call with exponential backoff until it succeeds, the
// retries are exhausted, or the run is cancelled.
func (o *Orchestrator) run(ctx context.Context, callID string) {
	defer o.wg.Done()
	defer o.release(callID)

	ctx, span := telemetry.StartProcessingSpan(ctx, callID, telemetry.MaxRetries(o.config.MaxRetries))
	defer span.End()

	// Inject trace context into logger context for log-trace correlation
	ctx = telemetry.InjectTraceContext(ctx)

	call, err := o.store.ClaimForProcessing(ctx, callID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrCallNotFound):
			logger.Warn("Skipping processing for unknown call", logger.CallID(callID))
		case errors.Is(err, models.ErrInvalidTransition):
			// Another run owns the claim or the call is already terminal.
			logger.Debug("Call not claimable, skipping", logger.CallID(callID))
		default:
			telemetry.RecordError(ctx, err)
			logger.Error("Failed to claim call for processing",
				logger.CallID(callID),
				logger.Err(err))
		}
		return
	}

	telemetry.SetAttributes(ctx, telemetry.PacketCount(call.PacketCount()))
	o.hub.Publish(callID, models.StateProcessingAI, nil)
	logger.Info("Call claimed for processing",
		logger.CallID(callID),
		slog.Int(logger.KeyPacketCount, call.PacketCount()))

	audio := call.CombinedData()
	start := time.Now()

	for attempt := 0; ; {
		if o.metrics != nil {
			o.metrics.TranscriptionAttempt(attempt + 1)
		}
		tctx, tspan := telemetry.StartTranscribeSpan(ctx, callID, attempt+1)
		result, err := o.adapter.Transcribe(tctx, callID, audio)
		if err != nil {
			telemetry.RecordError(tctx, err)
		}
		tspan.End()
		if err == nil {
			o.complete(ctx, callID, result, attempt, start)
			return
		}
		if ctx.Err() != nil {
			logger.Warn("Abandoning call processing on shutdown",
				logger.CallID(callID),
				logger.Attempt(attempt))
			return
		}
		if !errors.Is(err, models.ErrTranscriptionFailed) {
			telemetry.RecordError(ctx, err)
			logger.Error("Transcription failed with unexpected error",
				logger.CallID(callID),
				logger.Err(err))
			o.fail(ctx, callID, err.Error(), attempt+1)
			return
		}

		attempt++
		if attempt > o.config.MaxRetries {
			exhausted := fmt.Errorf("%w after %d attempts: %v", models.ErrRetriesExhausted, attempt, err)
			telemetry.RecordError(ctx, exhausted)
			o.fail(ctx, callID, exhausted.Error(), attempt)
			return
		}
		if err := o.store.RecordRetryAttempt(ctx, callID, attempt); err != nil {
			logger.Warn("Failed to record retry attempt",
				logger.CallID(callID),
				logger.Err(err))
		}

		delay := o.backoff(attempt)
		logger.Info("Retrying transcription",
			logger.CallID(callID),
			logger.Attempt(attempt),
			logger.MaxRetries(o.config.MaxRetries),
			logger.Backoff(delay))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			logger.Warn("Abandoning call processing on shutdown",
				logger.CallID(callID),
				logger.Attempt(attempt))
			return
		}
	}
}

// complete persists the successful transcription and publishes COMPLETED.
func (o *Orchestrator) complete(ctx context.Context, callID string, result *transcriber.Result, retries int, start time.Time) {
	if _, err := o.store.CompleteCall(ctx, callID, result.Transcript, result.Sentiment, retries); err != nil {
		if ctx.Err() != nil {
			logger.Warn("Abandoning call processing on shutdown", logger.CallID(callID))
			return
		}
		logger.Error("Failed to persist transcription result",
			logger.CallID(callID),
			logger.Err(err))
		o.fail(ctx, callID, fmt.Sprintf("persisting transcription result: %v", err), retries+1)
		return
	}

	if o.metrics != nil {
		o.metrics.TranscriptionOutcome("completed", retries+1)
	}
	telemetry.SetAttributes(ctx,
		telemetry.Outcome("completed"),
		telemetry.Sentiment(result.Sentiment))
	o.hub.Publish(callID, models.StateCompleted, result)
	logger.Info("Call processing completed",
		logger.CallID(callID),
		logger.State(string(models.StateCompleted)),
		logger.Attempt(retries),
		slog.String(logger.KeySentiment, result.Sentiment),
		logger.DurationMs(logger.Duration(start)))
}

// fail marks the call FAILED with the given message and publishes the
// terminal event. Persistence errors are logged; there is nobody left to
// return them to.
func (o *Orchestrator) fail(ctx context.Context, callID, message string, attempts int) {
	if err := o.store.FailCall(ctx, callID, message); err != nil {
		logger.Error("Failed to mark call failed",
			logger.CallID(callID),
			logger.Err(err))
		return
	}

	if o.metrics != nil {
		o.metrics.TranscriptionOutcome("failed", attempts)
	}
	telemetry.SetAttributes(ctx, telemetry.Outcome("failed"))
	o.hub.Publish(callID, models.StateFailed, nil)
	logger.Warn("Call processing failed",
		logger.CallID(callID),
		logger.State(string(models.StateFailed)),
		slog.String(logger.KeyError, message))
}

// backoff computes the sleep before retry n: 2^n + U[0,1) backoff units.
func (o *Orchestrator) backoff(attempt int) time.Duration {
	units := math.Pow(2, float64(attempt)) + rand.Float64()
	return time.Duration(units * float64(o.config.BackoffBase))
}

// release removes the call from the in_flight set.
func (o *Orchestrator) release(callID string) {
	o.mu.Lock()
	delete(o.inFlight, callID)
	o.mu.Unlock()
}
