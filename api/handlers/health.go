package handlers

import (
	"net/http"
	"time"

	"research-writer/api"
)

// Version is reported by the health endpoint. Overridden at link time.
var Version = "dev"

// Root answers GET / for liveness probes
func Root(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Hello, world!")
}

// Health check endpoint
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.APIResponse{
		Success: true,
		Data: api.HealthStatus{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
		},
	})
}
