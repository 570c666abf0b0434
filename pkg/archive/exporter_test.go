package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/smithy-go"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		prefix   string
		callID   string
		expected string
	}{
		{"", "call-1", "call-1.json"},
		{"archive", "call-1", "archive/call-1.json"},
		{"archive/", "call-1", "archive/call-1.json"},
		{"a/b", "call-1", "a/b/call-1.json"},
	}

	for _, tt := range tests {
		e := &Exporter{prefix: tt.prefix}
		if got := e.objectKey(tt.callID); got != tt.expected {
			t.Errorf("objectKey(%q, %q) = %q, want %q", tt.prefix, tt.callID, got, tt.expected)
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"throttling", &smithy.GenericAPIError{Code: "SlowDown"}, true},
		{"internal error", &smithy.GenericAPIError{Code: "InternalError"}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"missing bucket", &smithy.GenericAPIError{Code: "NoSuchBucket"}, false},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"io timeout", errors.New("dial tcp: i/o timeout"), true},
		{"plain error", errors.New("something else"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.want {
				t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestExportBackoff(t *testing.T) {
	if got := exportBackoff(0); got != exportInitialBackoff {
		t.Errorf("attempt 0 backoff = %v, want %v", got, exportInitialBackoff)
	}
	if got := exportBackoff(1); got != 2*exportInitialBackoff {
		t.Errorf("attempt 1 backoff = %v, want %v", got, 2*exportInitialBackoff)
	}
	if got := exportBackoff(20); got != exportMaxBackoff {
		t.Errorf("attempt 20 backoff = %v, want cap %v", got, exportMaxBackoff)
	}
	if got := exportBackoff(40); got != exportMaxBackoff {
		t.Errorf("attempt 40 backoff = %v, want cap %v", got, exportMaxBackoff)
	}
}

func TestNewExporter_RequiresBucket(t *testing.T) {
	_, err := NewExporter(context.Background(), S3Config{})
	if err == nil {
		t.Fatal("expected error for missing bucket")
	}
}
