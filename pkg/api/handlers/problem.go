// Package handlers implements the HTTP handlers for the CallStream API.
package handlers

import (
	"encoding/json"
	"net/http"
)

// problemContentType labels RFC 7807 problem responses.
const problemContentType = "application/problem+json"

// Problem is the RFC 7807 "problem details" document returned for every API
// error. https://datatracker.ietf.org/doc/html/rfc7807
type Problem struct {
	// Type identifies the problem class; about:blank means the status code
	// carries all the meaning.
	Type string `json:"type,omitempty"`

	// Title is the canonical summary for the status code.
	Title string `json:"title"`

	// Status echoes the HTTP status code.
	Status int `json:"status"`

	// Detail describes this particular occurrence.
	Detail string `json:"detail,omitempty"`
}

// WriteProblem responds with an RFC 7807 document. The title is derived from
// the status code so occurrences of the same status stay uniform; detail
// carries the occurrence-specific text.
func WriteProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

// WriteJSON responds with data encoded as JSON under the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
