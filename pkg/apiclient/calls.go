package apiclient

import (
	"context"
	"net/url"
	"strconv"
)

// CallSummary is one row of the call listing.
type CallSummary struct {
	CallID       string `json:"call_id"`
	State        string `json:"state"`
	LastSequence int64  `json:"last_sequence"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// CallStatus is the detailed status of a single call.
type CallStatus struct {
	CallID       string `json:"call_id"`
	State        string `json:"state"`
	LastSequence int64  `json:"last_sequence"`
	PacketCount  int    `json:"packet_count"`
	HasAIResult  bool   `json:"has_ai_result"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// RetryResult acknowledges a scheduled reprocessing run.
type RetryResult struct {
	Status string `json:"status"`
	CallID string `json:"call_id"`
}

// ListCalls returns call summaries, optionally filtered by state
// (case-insensitive). A limit of 0 returns every matching call; a negative
// limit leaves the choice to the server.
func (c *Client) ListCalls(ctx context.Context, state string, limit int) ([]CallSummary, error) {
	q := url.Values{}
	if state != "" {
		q.Set("state", state)
	}
	if limit >= 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/v1/calls"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var calls []CallSummary
	if err := c.get(ctx, path, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// GetCallStatus fetches the status of one call.
func (c *Client) GetCallStatus(ctx context.Context, callID string) (*CallStatus, error) {
	var status CallStatus
	if err := c.get(ctx, "/v1/call/"+url.PathEscape(callID)+"/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RetryCall schedules reprocessing of a FAILED call.
func (c *Client) RetryCall(ctx context.Context, callID string) (*RetryResult, error) {
	var result RetryResult
	if err := c.post(ctx, "/v1/call/"+url.PathEscape(callID)+"/retry", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
