package handlers

import (
	"net/http"

	"github.com/noovy/concierge/internal/chat"
)

// MemoryHandler serves per-session memory inspection endpoints.
type MemoryHandler struct {
	Orchestrator *chat.Orchestrator
}

// Stats handles GET /api/memory/{session}.
func (h *MemoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	mem, err := h.Orchestrator.Memories().Get(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	writeJSON(w, mem.Stats())
}

// Export handles GET /api/memory/{session}/export.
func (h *MemoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	export, err := h.Orchestrator.SessionMemoryExport(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	writeJSON(w, export)
}
