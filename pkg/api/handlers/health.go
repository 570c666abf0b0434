package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/voxhall/callstream/internal/logger"
	"github.com/voxhall/callstream/pkg/store"
)

// healthcheckTimeout bounds the database ping so a wedged pool cannot hang
// the probe.
const healthcheckTimeout = 5 * time.Second

// HealthHandler handles the health check endpoint.
type HealthHandler struct {
	store store.Store
}

// NewHealthHandler creates a new health handler.
//
// The store parameter may be nil, in which case the check reports the
// database as disconnected.
func NewHealthHandler(s store.Store) *HealthHandler {
	return &HealthHandler{store: s}
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health handles GET /health.
//
// Returns 200 with database "connected" when the store answers a ping, 503
// with "disconnected" otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthcheckTimeout)
	defer cancel()

	if err := h.store.Healthcheck(ctx); err != nil {
		logger.WarnCtx(r.Context(), "Health check failed", logger.Err(err))
		WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
		})
		return
	}

	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:   "healthy",
		Database: "connected",
	})
}
