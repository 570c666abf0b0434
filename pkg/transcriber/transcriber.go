// Package transcriber defines the downstream transcription dependency and
// provides a mock implementation with tunable failure characteristics.
package transcriber

import (
	"context"
)

// Result is the outcome of a successful transcription.
type Result struct {
	Transcript string `json:"transcript"`
	Sentiment  string `json:"sentiment"`
}

// Transcriber produces a transcript and sentiment label from a call's
// concatenated packet payload. Implementations may take seconds and may fail
// transiently; callers are expected to retry failures matching
// models.ErrTranscriptionFailed.
type Transcriber interface {
	Transcribe(ctx context.Context, callID, audioData string) (*Result, error)
}
