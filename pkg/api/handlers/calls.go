package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voxhall/callstream/internal/logger"
	"github.com/voxhall/callstream/internal/telemetry"
	"github.com/voxhall/callstream/pkg/metrics"
	"github.com/voxhall/callstream/pkg/models"
	"github.com/voxhall/callstream/pkg/store"
)

// Processor triggers background AI processing for a call. Trigger returns
// false when a run for the call is already in flight.
type Processor interface {
	Trigger(callID string) bool
}

// defaultListLimit caps GET /v1/calls when the client gives no limit.
const defaultListLimit = 50

// CallHandler handles the call ingestion and status API endpoints.
type CallHandler struct {
	store     store.Store
	processor Processor
	metrics   metrics.CallMetrics
}

// NewCallHandler creates a new CallHandler. The metrics instance may be nil.
func NewCallHandler(s store.Store, p Processor, m metrics.CallMetrics) *CallHandler {
	return &CallHandler{store: s, processor: p, metrics: m}
}

// StreamRequest is the request body for POST /v1/call/stream/{call_id}.
// Sequence and Timestamp are pointers so a missing field is distinguishable
// from a zero value.
type StreamRequest struct {
	Sequence  *int64   `json:"sequence"`
	Data      string   `json:"data"`
	Timestamp *float64 `json:"timestamp"`
}

// validate checks the packet payload. The second return value is false when
// validation failed, with the first carrying the problem detail.
func (p *StreamRequest) validate() (string, bool) {
	switch {
	case p.Sequence == nil:
		return "sequence is required", false
	case *p.Sequence < 0:
		return "sequence must be >= 0", false
	case p.Data == "":
		return "data must not be empty", false
	case p.Timestamp == nil:
		return "timestamp is required", false
	case *p.Timestamp <= 0:
		return "timestamp must be > 0", false
	}
	return "", true
}

// StreamResponse is the response body for packet ingestion. Message is null
// unless the packet arrived out of order.
type StreamResponse struct {
	Status   string  `json:"status"`
	CallID   string  `json:"call_id"`
	Sequence int64   `json:"sequence"`
	Message  *string `json:"message"`
}

// CallStatusResponse is the response body for GET /v1/call/{call_id}/status.
type CallStatusResponse struct {
	CallID       string `json:"call_id"`
	State        string `json:"state"`
	LastSequence int64  `json:"last_sequence"`
	PacketCount  int    `json:"packet_count"`
	HasAIResult  bool   `json:"has_ai_result"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// CallSummary is one row of the GET /v1/calls listing. Packets are not
// loaded for listings, so per-packet fields are omitted.
type CallSummary struct {
	CallID       string `json:"call_id"`
	State        string `json:"state"`
	LastSequence int64  `json:"last_sequence"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// RetryResponse is the response body for POST /v1/call/{call_id}/retry.
type RetryResponse struct {
	Status string `json:"status"`
	CallID string `json:"call_id"`
}

// Stream handles POST /v1/call/stream/{call_id}.
//
// The packet is persisted idempotently and processing is triggered after the
// commit; the response never waits for processing. Out-of-order sequences
// are accepted with a warning message, duplicates are absorbed silently.
func (h *CallHandler) Stream(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	callID := chi.URLParam(r, "call_id")

	var req StreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ObserveIngest(h.metrics, "invalid", time.Since(start))
		WriteProblem(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if detail, ok := req.validate(); !ok {
		metrics.ObserveIngest(h.metrics, "invalid", time.Since(start))
		WriteProblem(w, http.StatusUnprocessableEntity, detail)
		return
	}

	ctx, span := telemetry.StartIngestSpan(logger.ContextWithCallID(r.Context(), callID), callID, *req.Sequence)
	defer span.End()

	// Inject trace context into logger context for log-trace correlation
	ctx = telemetry.InjectTraceContext(ctx)

	result, err := h.store.IngestPacket(ctx, callID, *req.Sequence, req.Data, *req.Timestamp)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "Failed to ingest packet",
			logger.Sequence(*req.Sequence),
			logger.Err(err))
		metrics.ObserveIngest(h.metrics, "error", time.Since(start))
		WriteProblem(w, http.StatusInternalServerError, "Failed to ingest packet")
		return
	}

	// Trigger strictly after commit so the processing run sees this packet.
	h.processor.Trigger(callID)

	status := "accepted"
	if result.Duplicate {
		status = "duplicate"
		telemetry.SetAttributes(ctx, telemetry.Duplicate(true))
		metrics.RecordDuplicate(h.metrics)
		logger.DebugCtx(ctx, "Duplicate packet silently accepted",
			logger.Sequence(result.Sequence))
	}

	var message *string
	if result.Warning != "" {
		message = &result.Warning
		metrics.RecordSequenceMismatch(h.metrics)
		logger.WarnCtx(ctx, "Sequence mismatch",
			logger.Sequence(result.Sequence))
	}

	WriteJSON(w, http.StatusAccepted, StreamResponse{
		Status:   "accepted",
		CallID:   callID,
		Sequence: result.Sequence,
		Message:  message,
	})
	metrics.ObserveIngest(h.metrics, status, time.Since(start))
}

// Status handles GET /v1/call/{call_id}/status.
func (h *CallHandler) Status(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "call_id")
	ctx := logger.ContextWithCallID(r.Context(), callID)

	call, err := h.store.GetCallWithDetails(ctx, callID)
	if err != nil {
		if errors.Is(err, models.ErrCallNotFound) {
			WriteProblem(w, http.StatusNotFound, fmt.Sprintf("Call %s not found", callID))
			return
		}
		logger.ErrorCtx(ctx, "Failed to load call", logger.Err(err))
		WriteProblem(w, http.StatusInternalServerError, "Failed to load call")
		return
	}

	WriteJSON(w, http.StatusOK, CallStatusResponse{
		CallID:       call.CallID,
		State:        string(call.State),
		LastSequence: call.LastSequence,
		PacketCount:  call.PacketCount(),
		HasAIResult:  call.HasAIResult(),
		CreatedAt:    formatTime(call.CreatedAt),
		UpdatedAt:    formatTime(call.UpdatedAt),
	})
}

// List handles GET /v1/calls.
//
// Query parameters:
//   - state: optional filter, any known call state (case-insensitive)
//   - limit: optional row cap, defaults to 50; 0 returns all rows
func (h *CallHandler) List(w http.ResponseWriter, r *http.Request) {
	var state models.CallState
	if raw := r.URL.Query().Get("state"); raw != "" {
		parsed, ok := models.ParseCallState(raw)
		if !ok {
			WriteProblem(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown state %q", raw))
			return
		}
		state = parsed
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			WriteProblem(w, http.StatusUnprocessableEntity, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	calls, err := h.store.ListCalls(r.Context(), state, limit)
	if err != nil {
		logger.ErrorCtx(r.Context(), "Failed to list calls", logger.Err(err))
		WriteProblem(w, http.StatusInternalServerError, "Failed to list calls")
		return
	}

	summaries := make([]CallSummary, len(calls))
	for i, call := range calls {
		summaries[i] = CallSummary{
			CallID:       call.CallID,
			State:        string(call.State),
			LastSequence: call.LastSequence,
			CreatedAt:    formatTime(call.CreatedAt),
			UpdatedAt:    formatTime(call.UpdatedAt),
		}
	}

	WriteJSON(w, http.StatusOK, summaries)
}

// Retry handles POST /v1/call/{call_id}/retry.
//
// Schedules reprocessing of a FAILED call. The state check here is
// advisory; the processing run's claim transition is the authoritative
// guard against concurrent retries.
func (h *CallHandler) Retry(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "call_id")
	ctx := logger.ContextWithCallID(r.Context(), callID)

	call, err := h.store.GetCall(ctx, callID)
	if err != nil {
		if errors.Is(err, models.ErrCallNotFound) {
			WriteProblem(w, http.StatusNotFound, fmt.Sprintf("Call %s not found", callID))
			return
		}
		logger.ErrorCtx(ctx, "Failed to load call", logger.Err(err))
		WriteProblem(w, http.StatusInternalServerError, "Failed to load call")
		return
	}

	if call.State != models.StateFailed {
		err := fmt.Errorf("call %s is %s: %w", callID, call.State, models.ErrCallNotRetryable)
		logger.WarnCtx(ctx, "Retry refused", logger.State(string(call.State)), logger.Err(err))
		WriteProblem(w, http.StatusConflict, fmt.Sprintf("Call %s is %s; only FAILED calls can be retried", callID, call.State))
		return
	}

	h.processor.Trigger(callID)
	logger.InfoCtx(ctx, "Retry scheduled")

	WriteJSON(w, http.StatusAccepted, RetryResponse{Status: "accepted", CallID: callID})
}

// formatTime renders timestamps the way the API contract expects: RFC 3339
// with sub-second precision, always UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
