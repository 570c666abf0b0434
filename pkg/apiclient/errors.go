package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError carries an RFC 7807 problem document returned by the server.
type APIError struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return e.Title
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

// IsNotFound reports whether the server answered 404.
func (e *APIError) IsNotFound() bool { return e.Status == http.StatusNotFound }

// IsConflict reports whether the server answered 409.
func (e *APIError) IsConflict() bool { return e.Status == http.StatusConflict }

// problemFromResponse parses body as a problem document, falling back to the
// raw text when the server (or a proxy in front of it) answered with
// something else.
func problemFromResponse(status int, body []byte) *APIError {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err == nil && apiErr.Title != "" {
		apiErr.Status = status
		return apiErr
	}

	title := strings.TrimSpace(string(body))
	if title == "" {
		title = http.StatusText(status)
	}
	return &APIError{Status: status, Title: title}
}
