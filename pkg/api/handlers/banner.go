package handlers

import "net/http"

// BannerResponse is the service banner served at GET /.
type BannerResponse struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

// NewBannerHandler returns the handler for GET /, a small identification
// banner for humans and uptime checks. Use /health for a real probe.
func NewBannerHandler(version string) http.HandlerFunc {
	if version == "" {
		version = "dev"
	}
	banner := BannerResponse{
		Service: "callstream",
		Status:  "operational",
		Version: version,
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, banner)
	}
}
