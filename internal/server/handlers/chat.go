package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/noovy/concierge/internal/analytics"
	"github.com/noovy/concierge/internal/chat"
	"github.com/noovy/concierge/internal/llm"
	"github.com/noovy/concierge/internal/security"
	"github.com/noovy/concierge/internal/store"
	"github.com/noovy/concierge/internal/ws"
	"github.com/noovy/concierge/pkg/api"
)

// ChatHandler serves the conversation endpoints.
type ChatHandler struct {
	Orchestrator *chat.Orchestrator
	Analytics    *analytics.Service
	Hub          *ws.Hub
	DB           *store.DB
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "failed to parse request body")
		return
	}

	message := security.SanitizeInput(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message must not be empty")
		return
	}

	if h.Hub != nil && req.SessionID != "" {
		if _, err := h.Orchestrator.Memories().Get(req.SessionID); err == nil {
			h.Hub.NotifyTyping(req.SessionID, true)
		}
	}

	start := time.Now()
	resp, err := h.Orchestrator.ProcessMessage(r.Context(), message, req.SessionID)
	elapsed := time.Since(start)

	if h.Hub != nil {
		// The orchestrator mints a fresh id for unknown sessions, so the
		// stop signal follows the id the reply is delivered under.
		typingID := req.SessionID
		if resp != nil {
			typingID = resp.SessionID
		}
		if typingID != "" {
			h.Hub.NotifyTyping(typingID, false)
		}
	}

	if err != nil {
		if h.Analytics != nil {
			h.Analytics.TrackError("chat_error", err.Error(), req.SessionID)
		}
		if errors.Is(err, llm.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "llm_unavailable", "language model is not available: "+err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "chat_error", err.Error())
		return
	}

	if h.Analytics != nil {
		h.Analytics.TrackMessage(resp.SessionID, message, resp.Response, elapsed, resp.SkillsUsed)
	}
	if h.Hub != nil {
		h.Hub.NotifyMessage(resp.SessionID, map[string]any{
			"response":    resp.Response,
			"skills_used": resp.SkillsUsed,
		})
		for _, name := range resp.SkillsUsed {
			h.Hub.NotifySkillActivated(resp.SessionID, name)
		}
	}
	h.persist(resp.SessionID, req.UserID, message, resp.Response)

	writeJSON(w, resp)
}

// persist writes the turn to SQLite. Failures are logged, not surfaced: the
// in-memory state is the source of truth for live sessions.
func (h *ChatHandler) persist(sessionID, userID, message, response string) {
	if h.DB == nil {
		return
	}
	if err := h.DB.CreateSession(sessionID, userID); err != nil {
		log.Printf("persist session %s: %v", sessionID, err)
		return
	}
	if err := h.DB.AddMessage(sessionID, "user", message, nil); err != nil {
		log.Printf("persist message: %v", err)
	}
	if err := h.DB.AddMessage(sessionID, "assistant", response, nil); err != nil {
		log.Printf("persist message: %v", err)
	}
}

// History handles GET /api/chat/history/{session}.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	messages, err := h.Orchestrator.History(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	writeJSON(w, api.HistoryResponse{SessionID: sessionID, Messages: messages})
}

// DeleteSession handles DELETE /api/chat/session/{session}.
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	h.Orchestrator.DeleteSession(sessionID)
	if h.DB != nil {
		if err := h.DB.DeleteSession(sessionID); err != nil {
			log.Printf("delete persisted session %s: %v", sessionID, err)
		}
	}
	writeJSON(w, map[string]any{"success": true, "session_id": sessionID})
}
