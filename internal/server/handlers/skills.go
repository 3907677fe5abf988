package handlers

import (
	"net/http"

	"github.com/noovy/concierge/internal/skills"
	"github.com/noovy/concierge/pkg/api"
)

// SkillsHandler serves the skill registry endpoints.
type SkillsHandler struct {
	Registry *skills.Registry
}

// List handles GET /api/skills.
func (h *SkillsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, api.SkillListResponse{Skills: h.Registry.List()})
}

// Enable handles POST /api/skills/{name}/enable.
func (h *SkillsHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, true)
}

// Disable handles POST /api/skills/{name}/disable.
func (h *SkillsHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, false)
}

// Toggle handles POST /api/admin/skills/{name}/toggle.
func (h *SkillsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	enabled, ok := h.Registry.Toggle(name)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "skill not found")
		return
	}
	writeJSON(w, map[string]any{"success": true, "skill": name, "enabled": enabled})
}

func (h *SkillsHandler) setEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	name := r.PathValue("name")
	var ok bool
	if enabled {
		ok = h.Registry.Enable(name)
	} else {
		ok = h.Registry.Disable(name)
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "skill not found")
		return
	}
	writeJSON(w, map[string]any{"success": true, "skill": name, "enabled": enabled})
}
