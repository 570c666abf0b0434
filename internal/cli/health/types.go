// Package health provides shared types for health check responses.
package health

// Response represents the API health response structure.
type Response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// IsHealthy reports whether the server answered the probe as healthy.
func (r Response) IsHealthy() bool {
	return r.Status == "healthy"
}
