package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points a Client at an in-process server serving handler.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestListCalls(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/calls", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Empty(t, r.URL.Query().Get("state"))

		_ = json.NewEncoder(w).Encode([]CallSummary{
			{CallID: "call-1", State: "IN_PROGRESS", LastSequence: 4},
			{CallID: "call-2", State: "COMPLETED", LastSequence: 9},
		})
	})

	calls, err := client.ListCalls(context.Background(), "", 50)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "call-1", calls[0].CallID)
	assert.Equal(t, "COMPLETED", calls[1].State)
}

func TestListCallsStateFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "failed", r.URL.Query().Get("state"))
		assert.Equal(t, "0", r.URL.Query().Get("limit"))

		_ = json.NewEncoder(w).Encode([]CallSummary{
			{CallID: "call-9", State: "FAILED", LastSequence: 2},
		})
	})

	calls, err := client.ListCalls(context.Background(), "failed", 0)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "FAILED", calls[0].State)
}

func TestGetCallStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/call/call-1/status", r.URL.Path)

		_ = json.NewEncoder(w).Encode(CallStatus{
			CallID:       "call-1",
			State:        "COMPLETED",
			LastSequence: 7,
			PacketCount:  8,
			HasAIResult:  true,
		})
	})

	status, err := client.GetCallStatus(context.Background(), "call-1")
	require.NoError(t, err)
	assert.Equal(t, "call-1", status.CallID)
	assert.Equal(t, "COMPLETED", status.State)
	assert.Equal(t, 8, status.PacketCount)
	assert.True(t, status.HasAIResult)
}

func TestGetCallStatusNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(APIError{
			Title:  "Not Found",
			Status: http.StatusNotFound,
			Detail: "Call ghost not found",
		})
	})

	_, err := client.GetCallStatus(context.Background(), "ghost")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
}

func TestGetCallStatusEscapesID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/call/call%2F..%2Fetc/status", r.URL.EscapedPath())
		_ = json.NewEncoder(w).Encode(CallStatus{CallID: "call/../etc"})
	})

	_, err := client.GetCallStatus(context.Background(), "call/../etc")
	require.NoError(t, err)
}

func TestRetryCall(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/call/call-7/retry", r.URL.Path)

		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(RetryResult{Status: "accepted", CallID: "call-7"})
	})

	result, err := client.RetryCall(context.Background(), "call-7")
	require.NoError(t, err)
	assert.Equal(t, "accepted", result.Status)
	assert.Equal(t, "call-7", result.CallID)
}

func TestRetryCallConflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(APIError{
			Title:  "Conflict",
			Status: http.StatusConflict,
			Detail: "Call call-7 is COMPLETED; only FAILED calls can be retried",
		})
	})

	_, err := client.RetryCall(context.Background(), "call-7")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsConflict())
	assert.Contains(t, apiErr.Detail, "only FAILED calls")
}
