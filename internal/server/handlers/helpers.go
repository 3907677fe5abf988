package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/noovy/concierge/pkg/api"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{
		Error: api.ErrorDetail{
			Message: message,
			Type:    errType,
		},
	})
}

// WriteUnauthorized writes a 401 error response. Exported for the routing
// middleware.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, "unauthorized", message)
}

// WriteRateLimited writes a 429 error response. Exported for the routing
// middleware.
func WriteRateLimited(w http.ResponseWriter, reason string) {
	writeError(w, http.StatusTooManyRequests, reason, "rate limit exceeded")
}
