// Package api provides the HTTP surface of the call ingestion service:
// packet ingest, call status, operator actions, health, metrics, and the
// dashboard WebSocket.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/voxhall/callstream/internal/logger"
	"github.com/voxhall/callstream/pkg/api/handlers"
	"github.com/voxhall/callstream/pkg/hub"
	"github.com/voxhall/callstream/pkg/metrics"
	"github.com/voxhall/callstream/pkg/store"
)

// drainTimeout bounds the graceful drain of in-flight requests once the
// server's context is cancelled.
const drainTimeout = 5 * time.Second

// Dependencies carries everything the route handlers need. Metrics may be
// nil when collection is disabled; Version defaults to "dev" when empty.
type Dependencies struct {
	Store     store.Store
	Processor handlers.Processor
	Hub       *hub.Hub
	Metrics   metrics.CallMetrics
	Version   string
}

// Server is the ingestion API's HTTP server.
//
// Endpoints:
//   - POST /v1/call/stream/{call_id}: Packet ingest
//   - GET  /v1/call/{call_id}/status: Call status
//   - GET  /v1/calls: Call listing
//   - POST /v1/call/{call_id}/retry: Operator retry of a failed call
//   - GET  /health: Liveness + database connectivity
//   - GET  /ws/dashboard: Live call updates over WebSocket
//   - GET  /metrics: Prometheus exposition
type Server struct {
	server       *http.Server
	config       APIConfig
	shutdownOnce sync.Once
}

// NewServer assembles the router and the http.Server around it. The server
// does not listen until Start is called.
//
// Defaults are applied here so a Server built directly in tests behaves like
// one built from loaded configuration.
func NewServer(config APIConfig, deps Dependencies) *Server {
	config.applyDefaults()

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      NewRouter(deps),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		config: config,
	}
}

// Start binds the port and serves until ctx is cancelled or the listener
// fails. Binding synchronously means a port conflict surfaces here rather
// than from a background goroutine. Cancellation triggers a graceful drain
// bounded by drainTimeout; a clean drain returns nil.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("API server failed to bind %s: %w", s.server.Addr, err)
	}

	logger.Info("API server listening", "addr", ln.Addr().String())
	logger.Debug("API endpoints available",
		"ingest", fmt.Sprintf("http://localhost:%d/v1/call/stream/{call_id}", s.config.Port),
		"health", fmt.Sprintf("http://localhost:%d/health", s.config.Port),
		"dashboard", fmt.Sprintf("ws://localhost:%d/ws/dashboard", s.config.Port),
	)

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.server.Serve(ln) }()

	select {
	case <-ctx.Done():
		// A fresh context: the cancelled one would abort the drain at once.
		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		return s.Stop(drainCtx)

	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop drains in-flight requests and closes the listener. It is idempotent
// and safe to call while Start is blocked.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Info("API server draining")
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown: %w", err)
			logger.Error("API server shutdown failed", logger.Err(err))
			return
		}
		logger.Info("API server stopped")
	})
	return shutdownErr
}

// Port returns the configured listen port.
func (s *Server) Port() int {
	return s.config.Port
}
