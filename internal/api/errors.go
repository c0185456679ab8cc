package api

import (
	"encoding/json"
	"net/http"
)

// statusError is the error envelope for registration and ingestion failures.
//
// Shape: {"status": "error", "message": "..."}
type statusError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// authError is the error envelope for authentication failures.
//
// Auth failures carry a bare message object, without the status field the
// domain errors use. Admin clients key off the HTTP status code.
type authError struct {
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeStatusError writes a {"status":"error","message":...} response.
func writeStatusError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, statusError{
		Status:  "error",
		Message: message,
	})
}

// writeAuthError writes a {"message":...} response for 401/403 failures.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, authError{Message: message})
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeStatusError(w, http.StatusInternalServerError, message)
}
