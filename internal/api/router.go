package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// Routes live at the root, not under a versioned prefix: the wire contract
// is fixed for deployed field devices, which cannot be re-flashed to chase
// a path change.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health check (no auth required)
	r.Get("/health", s.handleHealth)

	// Device writes are open: field devices hold no credentials.
	r.Post("/devices", s.handleRegisterDevice)
	r.Post("/data", s.handleSubmitTelemetry)

	// Reads require the shared admin secret.
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/devices", s.handleListDevices)
		r.Get("/data/{deviceID}", s.handleListTelemetry)
	})

	// WebSocket event feed (auth via token query parameter, validated in handler)
	r.Get("/ws", s.handleWebSocket)

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"devices": s.devices.Count(),
	})
}
