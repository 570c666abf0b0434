package logger

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFieldConstructors(t *testing.T) {
	cases := []struct {
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{CallID("call-9"), KeyCallID, "call-9"},
		{State("PROCESSING_AI"), KeyState, "PROCESSING_AI"},
		{ClientIP("10.0.0.8"), KeyClientIP, "10.0.0.8"},
		{Component("orchestrator"), KeyComponent, "orchestrator"},
		{TraceID("trace-abc"), KeyTraceID, "trace-abc"},
		{SpanID("span-def"), KeySpanID, "span-def"},
	}
	for _, c := range cases {
		assert.Equal(t, c.wantKey, c.attr.Key)
		assert.Equal(t, c.wantVal, c.attr.Value.String())
	}
}

func TestNumericFieldConstructors(t *testing.T) {
	assert.Equal(t, int64(7), Sequence(7).Value.Int64())
	assert.Equal(t, KeySequence, Sequence(7).Key)

	assert.Equal(t, int64(3), Attempt(3).Value.Int64())
	assert.Equal(t, int64(5), MaxRetries(5).Value.Int64())

	assert.Equal(t, 2*time.Second, Backoff(2*time.Second).Value.Duration())
	assert.Equal(t, 12.5, DurationMs(12.5).Value.Float64())
}

func TestTransitionGroup(t *testing.T) {
	attr := Transition("IN_PROGRESS", "COMPLETED")

	assert.Equal(t, slog.KindGroup, attr.Value.Kind())
	members := attr.Value.Group()
	assert.Len(t, members, 2)
	assert.Equal(t, KeyFromState, members[0].Key)
	assert.Equal(t, "IN_PROGRESS", members[0].Value.String())
	assert.Equal(t, KeyToState, members[1].Key)
	assert.Equal(t, "COMPLETED", members[1].Value.String())
}

func TestErr(t *testing.T) {
	assert.True(t, Err(nil).Equal(slog.Attr{}))

	attr := Err(errors.New("transcription service unavailable"))
	assert.Equal(t, KeyError, attr.Key)
	assert.Equal(t, "transcription service unavailable", attr.Value.String())
}
