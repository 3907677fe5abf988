package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/noovy/concierge/internal/analytics"
	"github.com/noovy/concierge/internal/chat"
	"github.com/noovy/concierge/internal/knowledge"
	"github.com/noovy/concierge/internal/scraper"
	"github.com/noovy/concierge/internal/security"
	"github.com/noovy/concierge/internal/store"
	"github.com/noovy/concierge/internal/ws"
	"github.com/noovy/concierge/pkg/api"
)

// AdminHandler serves the authenticated administration endpoints.
type AdminHandler struct {
	Orchestrator *chat.Orchestrator
	KB           knowledge.Store
	Analytics    *analytics.Service
	Scraper      *scraper.Scraper
	Tokens       *security.TokenManager
	Guard        *security.LoginGuard
	DB           *store.DB
	Notifier     *ws.Notifier

	Username     string
	PasswordHash string
	PasswordSalt string

	StartTime     time.Time
	SessionMaxAge time.Duration
}

// Login handles POST /api/admin/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "failed to parse request body")
		return
	}

	if ok, retryAfter := h.Guard.Allowed(req.Username); !ok {
		writeError(w, http.StatusTooManyRequests, "login_locked",
			fmt.Sprintf("too many failed attempts, retry in %s", retryAfter.Round(time.Second)))
		return
	}

	if req.Username != h.Username || !security.VerifyPassword(req.Password, h.PasswordHash, h.PasswordSalt) {
		h.Guard.RecordFailure(req.Username)
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
		return
	}
	h.Guard.Clear(req.Username)

	token, err := h.Tokens.Issue(req.Username, "admin", 24*time.Hour)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error", err.Error())
		return
	}
	writeJSON(w, api.AdminLoginResponse{Success: true, Token: token})
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	active := len(h.Orchestrator.ActiveSessions())
	total := active
	if h.DB != nil {
		if s, err := h.DB.Statistics(); err == nil && s.TotalSessions > total {
			total = s.TotalSessions
		}
	}
	writeJSON(w, api.AdminStats{
		TotalSessions:       total,
		ActiveSessions:      active,
		TotalMessages:       h.Orchestrator.TotalMessages(),
		TotalKnowledgeItems: h.KB.Count(),
		AvailableSkills:     len(h.Orchestrator.Skills().List()),
		Uptime:              time.Since(h.StartTime).Round(time.Second).String(),
	})
}

// Sessions handles GET /api/admin/sessions.
func (h *AdminHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	ids := h.Orchestrator.ActiveSessions()
	sessions := make([]api.SessionInfo, 0, len(ids))
	for _, id := range ids {
		info := api.SessionInfo{
			SessionID:    id,
			MessageCount: h.Orchestrator.MessageCount(id),
		}
		if createdAt, err := h.Orchestrator.SessionCreatedAt(id); err == nil {
			info.CreatedAt = createdAt
		}
		if mem, err := h.Orchestrator.Memories().Get(id); err == nil {
			info.TopicsDiscussed = mem.Stats().TopicsDiscussed
		}
		sessions = append(sessions, info)
	}
	writeJSON(w, map[string]any{"sessions": sessions})
}

// SessionDetail handles GET /api/admin/sessions/{session}.
func (h *AdminHandler) SessionDetail(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	messages, err := h.Orchestrator.History(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	detail := map[string]any{
		"session_id":    sessionID,
		"message_count": len(messages),
		"messages":      messages,
	}
	if createdAt, err := h.Orchestrator.SessionCreatedAt(sessionID); err == nil {
		detail["created_at"] = createdAt
	}
	if mem, err := h.Orchestrator.Memories().Get(sessionID); err == nil {
		detail["memory_stats"] = mem.Stats()
	}
	writeJSON(w, detail)
}

// DeleteSession handles DELETE /api/admin/sessions/{session}.
func (h *AdminHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	h.Orchestrator.DeleteSession(sessionID)
	if h.DB != nil {
		if err := h.DB.DeleteSession(sessionID); err != nil {
			log.Printf("delete persisted session %s: %v", sessionID, err)
		}
	}
	writeJSON(w, map[string]any{"success": true, "session_id": sessionID})
}

// RebuildKnowledge handles POST /api/admin/knowledge/rebuild: drops every
// item and reinstalls the baseline articles.
func (h *AdminHandler) RebuildKnowledge(w http.ResponseWriter, r *http.Request) {
	if err := h.KB.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "knowledge_error", err.Error())
		return
	}
	if err := knowledge.Seed(r.Context(), h.KB); err != nil {
		writeError(w, http.StatusInternalServerError, "knowledge_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"success": true, "items": h.KB.Count()})
}

// Cleanup handles POST /api/admin/cleanup.
func (h *AdminHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	deleted := h.Orchestrator.Cleanup(h.SessionMaxAge)
	if h.DB != nil {
		if _, err := h.DB.CleanupSessions(h.SessionMaxAge); err != nil {
			log.Printf("cleanup persisted sessions: %v", err)
		}
	}
	if h.Notifier != nil && deleted > 0 {
		h.Notifier.Alert(fmt.Sprintf("%d expired sessions cleaned up", deleted), "info")
	}
	writeJSON(w, api.CleanupResponse{Success: true, DeletedSessions: deleted})
}

// Scrape handles POST /api/admin/scrape.
func (h *AdminHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	var req api.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "failed to parse request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "url is required")
		return
	}

	pagesAdded := 1
	if req.MaxPages > 1 {
		pages, err := h.Scraper.Crawl(r.Context(), req.URL, req.MaxPages, "scraped")
		if err != nil && len(pages) == 0 {
			writeError(w, http.StatusBadGateway, "scrape_error", err.Error())
			return
		}
		pagesAdded = len(pages)
	} else {
		if _, err := h.Scraper.ScrapeURL(r.Context(), req.URL, "scraped"); err != nil {
			writeError(w, http.StatusBadGateway, "scrape_error", err.Error())
			return
		}
	}

	if h.Notifier != nil {
		h.Notifier.Notify("עדכון בסיס ידע", fmt.Sprintf("%d pages scraped from %s", pagesAdded, req.URL),
			"system", "", map[string]any{"url": req.URL, "pages": pagesAdded})
	}
	writeJSON(w, api.ScrapeResponse{Success: true, PagesAdded: pagesAdded})
}

// AnalyticsReport handles GET /api/admin/analytics.
func (h *AdminHandler) AnalyticsReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Analytics.GetFullReport(reportDays(r)))
}

// AnalyticsOverview handles GET /api/admin/analytics/overview.
func (h *AdminHandler) AnalyticsOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Analytics.GetOverview(reportDays(r)))
}

// AnalyticsPerformance handles GET /api/admin/analytics/performance.
func (h *AdminHandler) AnalyticsPerformance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Analytics.GetPerformance())
}

func reportDays(r *http.Request) int {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	return days
}
