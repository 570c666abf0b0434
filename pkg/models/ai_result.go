package models

import "time"

// AIResultStatus represents the processing status of a call's AI result.
type AIResultStatus string

const (
	// AIStatusPending marks a result whose processing is still being retried.
	AIStatusPending AIResultStatus = "pending"
	// AIStatusCompleted marks a successful transcription.
	AIStatusCompleted AIResultStatus = "completed"
	// AIStatusFailed marks a result whose retries were exhausted.
	AIStatusFailed AIResultStatus = "failed"
)

// IsValid checks if the status is a valid AIResultStatus.
func (s AIResultStatus) IsValid() bool {
	return s == AIStatusPending || s == AIStatusCompleted || s == AIStatusFailed
}

// CallAIResult stores the outcome of the transcription step for a call.
//
// At most one row exists per call (call_id is the primary key). The row is
// created lazily, either by the first retry bookkeeping write or directly on
// success, and updated in place afterwards. Transcript and Sentiment are only
// non-nil when Status is completed.
type CallAIResult struct {
	CallID       string         `gorm:"primaryKey;size:255" json:"call_id"`
	Transcript   *string        `json:"transcript"`
	Sentiment    *string        `json:"sentiment"`
	Status       AIResultStatus `gorm:"not null;size:50;default:pending" json:"status"`
	RetryCount   int            `gorm:"not null;default:0" json:"retry_count"`
	LastRetryAt  *time.Time     `json:"last_retry_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for CallAIResult.
func (CallAIResult) TableName() string {
	return "call_ai_results"
}

// Completed reports whether the result carries a successful transcription.
func (r *CallAIResult) Completed() bool {
	return r.Status == AIStatusCompleted
}
