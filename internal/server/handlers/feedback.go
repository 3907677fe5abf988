package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/noovy/concierge/internal/analytics"
	"github.com/noovy/concierge/internal/store"
	"github.com/noovy/concierge/pkg/api"
)

// FeedbackHandler records satisfaction ratings.
type FeedbackHandler struct {
	Analytics *analytics.Service
	DB        *store.DB
}

// Submit handles POST /api/feedback.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req api.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "failed to parse request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "invalid_request", "rating must be between 1 and 5")
		return
	}

	h.Analytics.TrackFeedback(req.SessionID, req.Rating, req.Feedback)
	if h.DB != nil {
		if err := h.DB.AddFeedback(req.SessionID, req.Rating, req.Feedback); err != nil {
			log.Printf("persist feedback: %v", err)
		}
	}
	writeJSON(w, map[string]any{"success": true})
}
