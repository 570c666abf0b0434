// Package store provides the call persistence layer.
//
// This package implements the Store interface for recording calls, their
// packets, and their AI results, together with the transactional ingest and
// processing operations built on top of them.
//
// Two backends are supported:
//   - SQLite (single-node, default)
//   - PostgreSQL (HA-capable)
package store

import (
	"context"
	"time"

	"github.com/voxhall/callstream/pkg/models"
)

// IngestResult describes the outcome of a committed packet ingest.
type IngestResult struct {
	// Call is the call row as committed, without packets preloaded.
	Call *models.Call

	// Sequence echoes the ingested packet's sequence number.
	Sequence int64

	// Duplicate is true when the (call_id, sequence) pair already existed.
	// The submission is accepted idempotently and the stored row is the one
	// written by the first committed transaction.
	Duplicate bool

	// Warning is non-empty when the sequence did not match last_sequence+1.
	// It is informational; the packet is stored regardless.
	Warning string
}

// Store provides the call persistence interface.
//
// Thread Safety: Implementations must be safe for concurrent use from multiple
// goroutines. All mutating operations commit atomically; a returned error
// means nothing was persisted by that operation.
type Store interface {
	// ============================================
	// INGEST
	// ============================================

	// IngestPacket records one packet for a call inside a single transaction:
	// the call row is locked (created on first packet), the packet is inserted
	// idempotently, and last_sequence is advanced when the new sequence exceeds
	// it. Out-of-order and duplicate arrivals are accepted; see IngestResult.
	// The caller must validate the packet fields before calling.
	IngestPacket(ctx context.Context, callID string, sequence int64, data string, timestamp float64) (*IngestResult, error)

	// ============================================
	// READS
	// ============================================

	// GetCall returns the bare call row.
	// Returns models.ErrCallNotFound if the call doesn't exist.
	GetCall(ctx context.Context, callID string) (*models.Call, error)

	// GetCallWithDetails returns the call with its packets (ordered by
	// sequence) and AI result preloaded.
	// Returns models.ErrCallNotFound if the call doesn't exist.
	GetCallWithDetails(ctx context.Context, callID string) (*models.Call, error)

	// ListCalls returns calls ordered newest first. An empty state matches all
	// states; a non-positive limit returns all rows.
	ListCalls(ctx context.Context, state models.CallState, limit int) ([]*models.Call, error)

	// ============================================
	// PROCESSING
	// ============================================

	// ClaimForProcessing atomically transitions the call to PROCESSING_AI and
	// returns it with packets and AI result preloaded. The transition is the
	// authoritative claim: calls that are not IN_PROGRESS or FAILED are refused
	// with models.ErrInvalidTransition.
	// Returns models.ErrCallNotFound if the call doesn't exist.
	ClaimForProcessing(ctx context.Context, callID string) (*models.Call, error)

	// CompleteCall records a successful transcription: the AI result is
	// upserted with status completed and the call transitions
	// PROCESSING_AI -> COMPLETED, all in one transaction.
	// Returns models.ErrInvalidTransition if the call is not in PROCESSING_AI.
	CompleteCall(ctx context.Context, callID, transcript, sentiment string, retryCount int) (*models.CallAIResult, error)

	// RecordRetryAttempt persists retry bookkeeping (retry_count and
	// last_retry_at) on the call's AI result, creating the row on first use.
	RecordRetryAttempt(ctx context.Context, callID string, retryCount int) error

	// FailCall transitions the call to FAILED and records the error message on
	// its AI result with status failed.
	// Returns models.ErrInvalidTransition if FAILED is not reachable from the
	// call's current state.
	FailCall(ctx context.Context, callID, errorMessage string) error

	// ============================================
	// RETENTION
	// ============================================

	// ArchiveCall transitions the call to ARCHIVED.
	// Returns models.ErrCallNotFound if the call doesn't exist and
	// models.ErrInvalidTransition if the call is not COMPLETED or FAILED.
	ArchiveCall(ctx context.Context, callID string) error

	// ListArchivable returns COMPLETED calls whose last update is older than
	// the cutoff, oldest first, up to limit rows.
	ListArchivable(ctx context.Context, olderThan time.Time, limit int) ([]*models.Call, error)

	// ============================================
	// HEALTH & LIFECYCLE
	// ============================================

	// Healthcheck verifies the store is operational.
	Healthcheck(ctx context.Context) error

	// Close closes the store and releases resources.
	Close() error
}
