package models

import "errors"

// Common errors for call storage and lifecycle operations.
var (
	// Call errors
	ErrCallNotFound     = errors.New("call not found")
	ErrCallNotRetryable = errors.New("call is not in a retryable state")

	// Packet errors
	ErrDuplicatePacket = errors.New("packet already exists")

	// State machine errors
	ErrInvalidTransition = errors.New("invalid call state transition")

	// Transcription errors. ErrTranscriptionFailed marks a transient failure
	// worth retrying; ErrRetriesExhausted is terminal.
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrRetriesExhausted    = errors.New("transcription retries exhausted")
)
