package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voxhall/callstream/internal/logger"
	"github.com/voxhall/callstream/pkg/metrics"
	"github.com/voxhall/callstream/pkg/models"
)

// ============================================
// INGEST
// ============================================

// IngestPacket records one packet inside a single transaction. The whole
// sequence (lock call, create on miss, duplicate check, insert, bump
// last_sequence) commits atomically; concurrent ingesters for the same call
// are serialized by the row lock on PostgreSQL and by the single writer on
// SQLite.
func (s *SQLStore) IngestPacket(ctx context.Context, callID string, sequence int64, data string, timestamp float64) (*IngestResult, error) {
	result := &IngestResult{Sequence: sequence}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		call, err := s.lockCall(tx, callID)
		if errors.Is(err, models.ErrCallNotFound) {
			call, err = s.createCallLocked(tx, callID)
		}
		if err != nil {
			return err
		}

		expected := call.LastSequence + 1
		if sequence != expected {
			result.Warning = fmt.Sprintf(
				"sequence mismatch for call %s: expected %d, got %d", callID, expected, sequence)
		}

		var count int64
		if err := tx.Model(&models.CallPacket{}).
			Where("call_id = ? AND sequence = ?", callID, sequence).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			result.Duplicate = true
			result.Call = call
			return nil
		}

		packet := &models.CallPacket{
			ID:         uuid.New().String(),
			CallID:     callID,
			Sequence:   sequence,
			Data:       data,
			Timestamp:  timestamp,
			ReceivedAt: time.Now().UTC(),
		}
		if err := insertPacket(tx, packet); err != nil {
			if errors.Is(err, models.ErrDuplicatePacket) {
				result.Duplicate = true
				result.Call = call
				return nil
			}
			return err
		}

		if sequence > call.LastSequence {
			call.LastSequence = sequence
			call.UpdatedAt = time.Now().UTC()
			if err := tx.Model(call).Updates(map[string]any{
				"last_sequence": call.LastSequence,
				"updated_at":    call.UpdatedAt,
			}).Error; err != nil {
				return err
			}
		}

		result.Call = call
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ingest packet %d for call %s: %w", sequence, callID, err)
	}
	return result, nil
}

// insertPacket writes the packet row, translating a lost duplicate race into
// models.ErrDuplicatePacket. The savepoint keeps the unique violation from
// aborting the surrounding transaction on PostgreSQL.
func insertPacket(tx *gorm.DB, packet *models.CallPacket) error {
	err := tx.Transaction(func(tx *gorm.DB) error {
		return tx.Create(packet).Error
	})
	if err != nil && isDuplicateKey(err) {
		return fmt.Errorf("packet (%s, %d): %w", packet.CallID, packet.Sequence, models.ErrDuplicatePacket)
	}
	return err
}

// createCallLocked inserts a fresh call row for the first packet. When a
// concurrent ingester wins the creation race, the unique violation is
// absorbed via a savepoint and the committed row is re-selected with the
// lock; by then the winner's insert is visible.
func (s *SQLStore) createCallLocked(tx *gorm.DB, callID string) (*models.Call, error) {
	call := models.NewCall(callID)
	err := tx.Transaction(func(tx *gorm.DB) error {
		return tx.Create(call).Error
	})
	if err == nil {
		return call, nil
	}
	if !isDuplicateKey(err) {
		return nil, err
	}
	return s.lockCall(tx, callID)
}

// ============================================
// READS
// ============================================

func (s *SQLStore) GetCall(ctx context.Context, callID string) (*models.Call, error) {
	var call models.Call
	err := s.db.WithContext(ctx).Where("call_id = ?", callID).First(&call).Error
	if err != nil {
		return nil, mapNotFound(err, models.ErrCallNotFound)
	}
	return &call, nil
}

func (s *SQLStore) GetCallWithDetails(ctx context.Context, callID string) (*models.Call, error) {
	var call models.Call
	err := s.db.WithContext(ctx).
		Preload("Packets", packetsBySequence).
		Preload("AIResult").
		Where("call_id = ?", callID).
		First(&call).Error
	if err != nil {
		return nil, mapNotFound(err, models.ErrCallNotFound)
	}
	return &call, nil
}

func (s *SQLStore) ListCalls(ctx context.Context, state models.CallState, limit int) ([]*models.Call, error) {
	var calls []*models.Call
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if state != "" {
		q = q.Where("state = ?", state)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&calls).Error; err != nil {
		return nil, err
	}
	return calls, nil
}

// packetsBySequence orders preloaded packets in ascending sequence order.
func packetsBySequence(db *gorm.DB) *gorm.DB {
	return db.Order("sequence ASC")
}

// noteTransition records one committed state change: the metrics counter
// plus a DEBUG line carrying the from/to pair.
func (s *SQLStore) noteTransition(callID string, from, to models.CallState) {
	metrics.RecordStateTransition(s.metrics, string(from), string(to))
	logger.Debug("Call state changed",
		logger.CallID(callID),
		logger.Transition(string(from), string(to)))
}

// ============================================
// PROCESSING
// ============================================

func (s *SQLStore) ClaimForProcessing(ctx context.Context, callID string) (*models.Call, error) {
	var claimed models.Call
	var from models.CallState
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		call, err := s.lockCall(tx, callID)
		if err != nil {
			return err
		}
		from = call.State
		if !call.TransitionTo(models.StateProcessingAI) {
			return fmt.Errorf("cannot claim call %s in state %s: %w",
				callID, call.State, models.ErrInvalidTransition)
		}
		if err := s.saveState(tx, call); err != nil {
			return err
		}
		return tx.
			Preload("Packets", packetsBySequence).
			Preload("AIResult").
			Where("call_id = ?", callID).
			First(&claimed).Error
	})
	if err != nil {
		return nil, err
	}
	s.noteTransition(callID, from, models.StateProcessingAI)
	return &claimed, nil
}

func (s *SQLStore) CompleteCall(ctx context.Context, callID, transcript, sentiment string, retryCount int) (*models.CallAIResult, error) {
	now := time.Now().UTC()
	var saved *models.CallAIResult
	var from models.CallState

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		call, err := s.lockCall(tx, callID)
		if err != nil {
			return err
		}
		from = call.State
		if !call.TransitionTo(models.StateCompleted) {
			return fmt.Errorf("cannot complete call %s in state %s: %w",
				callID, call.State, models.ErrInvalidTransition)
		}

		result, exists, err := loadOrInitAIResult(tx, callID)
		if err != nil {
			return err
		}
		result.Status = models.AIStatusCompleted
		result.Transcript = &transcript
		result.Sentiment = &sentiment
		result.RetryCount = retryCount
		result.CompletedAt = &now
		result.ErrorMessage = ""
		if err := saveAIResult(tx, result, exists); err != nil {
			return err
		}

		if err := s.saveState(tx, call); err != nil {
			return err
		}
		saved = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.noteTransition(callID, from, models.StateCompleted)
	return saved, nil
}

func (s *SQLStore) RecordRetryAttempt(ctx context.Context, callID string, retryCount int) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result, exists, err := loadOrInitAIResult(tx, callID)
		if err != nil {
			return err
		}
		result.RetryCount = retryCount
		result.LastRetryAt = &now
		return saveAIResult(tx, result, exists)
	})
}

func (s *SQLStore) FailCall(ctx context.Context, callID, errorMessage string) error {
	var from models.CallState
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		call, err := s.lockCall(tx, callID)
		if err != nil {
			return err
		}
		from = call.State
		if !call.TransitionTo(models.StateFailed) {
			return fmt.Errorf("cannot fail call %s in state %s: %w",
				callID, call.State, models.ErrInvalidTransition)
		}

		result, exists, err := loadOrInitAIResult(tx, callID)
		if err != nil {
			return err
		}
		result.Status = models.AIStatusFailed
		result.ErrorMessage = errorMessage
		if err := saveAIResult(tx, result, exists); err != nil {
			return err
		}

		return s.saveState(tx, call)
	})
	if err != nil {
		return err
	}
	s.noteTransition(callID, from, models.StateFailed)
	return nil
}

// ============================================
// RETENTION
// ============================================

func (s *SQLStore) ArchiveCall(ctx context.Context, callID string) error {
	var from models.CallState
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		call, err := s.lockCall(tx, callID)
		if err != nil {
			return err
		}
		from = call.State
		if !call.TransitionTo(models.StateArchived) {
			return fmt.Errorf("cannot archive call %s in state %s: %w",
				callID, call.State, models.ErrInvalidTransition)
		}
		return s.saveState(tx, call)
	})
	if err != nil {
		return err
	}
	s.noteTransition(callID, from, models.StateArchived)
	return nil
}

func (s *SQLStore) ListArchivable(ctx context.Context, olderThan time.Time, limit int) ([]*models.Call, error) {
	var calls []*models.Call
	q := s.db.WithContext(ctx).
		Where("state = ? AND updated_at < ?", models.StateCompleted, olderThan).
		Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&calls).Error; err != nil {
		return nil, err
	}
	return calls, nil
}

// ============================================
// INTERNAL
// ============================================

// saveState persists a call's state and updated_at after a successful
// in-memory transition.
func (s *SQLStore) saveState(tx *gorm.DB, call *models.Call) error {
	return tx.Model(call).Updates(map[string]any{
		"state":      call.State,
		"updated_at": call.UpdatedAt,
	}).Error
}

// loadOrInitAIResult returns the call's AI result row, or a fresh in-memory
// row when none exists yet. The second return value reports whether the row
// is already persisted.
func loadOrInitAIResult(tx *gorm.DB, callID string) (*models.CallAIResult, bool, error) {
	var result models.CallAIResult
	err := tx.Where("call_id = ?", callID).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.CallAIResult{
			CallID: callID,
			Status: models.AIStatusPending,
		}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

func saveAIResult(tx *gorm.DB, result *models.CallAIResult, exists bool) error {
	if exists {
		return tx.Save(result).Error
	}
	return tx.Create(result).Error
}
