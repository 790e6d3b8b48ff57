// Package infra serves the unauthenticated infrastructure endpoints.
package infra

import (
	"net/http"
	"time"

	"github.com/calyptra/modelbench/internal/transport/http/handler/shared"
	"github.com/calyptra/modelbench/internal/version"
)

// Handlers holds the infra endpoint dependencies.
type Handlers struct {
	StartTime time.Time
}

// New creates the infra handlers.
func New(startTime time.Time) *Handlers {
	return &Handlers{StartTime: startTime}
}

// RootStatus returns JSON status and version information at /.
func (h *Handlers) RootStatus(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, map[string]any{
		"name":    "modelbench",
		"version": version.Version,
		"status":  "running",
		"api":     "/v1",
		"admin":   "/api/admin",
	}, http.StatusOK)
}

// HealthCheck handler returns the application health status.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, map[string]string{
		"status": "active",
		"app":    "modelbench",
	}, http.StatusOK)
}
