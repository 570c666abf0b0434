// Package archive implements the retention sweeper: a periodic pass that
// moves old COMPLETED calls to ARCHIVED, optionally exporting each call as a
// JSON bundle to S3-compatible storage first.
//
// Archiving is a state transition, not a deletion; archived calls stay in the
// database and remain readable through the API. A call whose export fails is
// left COMPLETED and picked up again on the next pass.
package archive

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/voxhall/callstream/internal/logger"
	"github.com/voxhall/callstream/internal/telemetry"
	"github.com/voxhall/callstream/pkg/hub"
	"github.com/voxhall/callstream/pkg/models"
	"github.com/voxhall/callstream/pkg/store"
)

// CallExporter uploads a call bundle to external storage before archival.
type CallExporter interface {
	Export(ctx context.Context, call *models.Call) error
}

// Sweeper runs the retention pass on a timer.
type Sweeper struct {
	store    store.Store
	hub      *hub.Hub
	exporter CallExporter // nil archives in place, without export
	config   Config

	mu        sync.Mutex
	started   bool
	stopOnce  sync.Once
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewSweeper creates a sweeper. The exporter may be nil, in which case calls
// are archived without leaving the database.
func NewSweeper(s store.Store, h *hub.Hub, exporter CallExporter, config Config) *Sweeper {
	config.ApplyDefaults()

	return &Sweeper{
		store:     s,
		hub:       h,
		exporter:  exporter,
		config:    config,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start begins the periodic retention pass. The first pass runs immediately;
// subsequent passes run every Interval. Start returns right away; the loop
// runs until Stop is called or the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	logger.Info("Starting archive sweeper",
		slog.String("interval", s.config.Interval.String()),
		slog.String("max_age", s.config.MaxAge.String()),
		slog.Bool("export", s.exporter != nil))

	go s.loop(ctx)
}

// Stop shuts the sweeper down, waiting up to timeout for an in-flight pass
// to finish. Stop is safe to call multiple times.
func (s *Sweeper) Stop(timeout time.Duration) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.stopOnce.Do(func() { close(s.stopCh) })

	select {
	case <-s.stoppedCh:
		logger.Info("Archive sweeper stopped")
	case <-time.After(timeout):
		logger.Warn("Archive sweeper stop timed out")
	}
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.stoppedCh)

	s.sweep(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// sweep runs one retention pass and returns the number of calls archived.
func (s *Sweeper) sweep(ctx context.Context) int {
	ctx, span := telemetry.StartArchiveSpan(ctx)
	defer span.End()

	// Inject trace context into logger context for log-trace correlation
	ctx = telemetry.InjectTraceContext(ctx)

	cutoff := time.Now().UTC().Add(-s.config.MaxAge)

	calls, err := s.store.ListArchivable(ctx, cutoff, s.config.BatchSize)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.Error("Archive pass failed to list calls", logger.Err(err))
		return 0
	}
	if len(calls) == 0 {
		logger.Debug("Archive pass found nothing to do")
		return 0
	}

	archived := 0
	for _, call := range calls {
		if ctx.Err() != nil {
			break
		}
		if s.archiveOne(ctx, call.CallID) {
			archived++
		}
	}

	logger.Info("Archive pass finished",
		slog.Int("eligible", len(calls)),
		slog.Int("archived", archived))
	return archived
}

// archiveOne exports (when configured) and archives a single call. A failed
// export leaves the call COMPLETED for the next pass.
func (s *Sweeper) archiveOne(ctx context.Context, callID string) bool {
	if s.exporter != nil {
		call, err := s.store.GetCallWithDetails(ctx, callID)
		if err != nil {
			logger.Warn("Skipping archive, failed to load call",
				logger.CallID(callID),
				logger.Err(err))
			return false
		}
		if err := s.exporter.Export(ctx, call); err != nil {
			logger.Warn("Skipping archive, export failed",
				logger.CallID(callID),
				logger.Err(err))
			return false
		}
	}

	if err := s.store.ArchiveCall(ctx, callID); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			// The call moved under us, e.g. an operator retried it.
			logger.Debug("Call no longer archivable", logger.CallID(callID))
		} else {
			logger.Error("Failed to archive call",
				logger.CallID(callID),
				logger.Err(err))
		}
		return false
	}

	s.hub.Publish(callID, models.StateArchived, nil)
	logger.Debug("Call archived", logger.CallID(callID))
	return true
}
