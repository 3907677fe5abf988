package server

import (
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/noovy/concierge/internal/server/handlers"
)

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health
	mux.HandleFunc("GET /health", handlers.Health)

	// Conversation
	chat := &handlers.ChatHandler{
		Orchestrator: s.orchestrator,
		Analytics:    s.analytics,
		Hub:          s.hub,
		DB:           s.db,
	}
	mux.HandleFunc("POST /api/chat", s.withRateLimit(chat.Chat))
	mux.HandleFunc("GET /api/chat/history/{session}", chat.History)
	mux.HandleFunc("DELETE /api/chat/session/{session}", chat.DeleteSession)

	// Knowledge base
	kb := &handlers.KnowledgeHandler{KB: s.kb, Uploads: s.uploads, DB: s.db}
	mux.HandleFunc("GET /api/knowledge/search", s.withRateLimit(kb.Search))
	mux.HandleFunc("POST /api/knowledge/add", kb.Add)
	mux.HandleFunc("POST /api/knowledge/import", s.requireAdmin(kb.Import))
	mux.HandleFunc("POST /api/knowledge/upload", kb.Upload)
	mux.HandleFunc("GET /api/knowledge/files", kb.Files)
	mux.HandleFunc("DELETE /api/knowledge/files/{id}", s.requireAdmin(kb.DeleteFile))

	// Skills
	sk := &handlers.SkillsHandler{Registry: s.orchestrator.Skills()}
	mux.HandleFunc("GET /api/skills", sk.List)
	mux.HandleFunc("POST /api/skills/{name}/enable", s.requireAdmin(sk.Enable))
	mux.HandleFunc("POST /api/skills/{name}/disable", s.requireAdmin(sk.Disable))

	// Memory
	mem := &handlers.MemoryHandler{Orchestrator: s.orchestrator}
	mux.HandleFunc("GET /api/memory/{session}", mem.Stats)
	mux.HandleFunc("GET /api/memory/{session}/export", mem.Export)

	// Admin
	admin := &handlers.AdminHandler{
		Orchestrator:  s.orchestrator,
		KB:            s.kb,
		Analytics:     s.analytics,
		Scraper:       s.scraper,
		Tokens:        s.tokens,
		Guard:         s.guard,
		DB:            s.db,
		Notifier:      s.notifier,
		Username:      s.adminUsername,
		PasswordHash:  s.passwordHash,
		PasswordSalt:  s.passwordSalt,
		StartTime:     s.startTime,
		SessionMaxAge: s.cfg.SessionMaxAge,
	}
	mux.HandleFunc("POST /api/admin/login", s.withRateLimit(admin.Login))
	mux.HandleFunc("GET /api/admin/stats", s.requireAdmin(admin.Stats))
	mux.HandleFunc("GET /api/admin/sessions", s.requireAdmin(admin.Sessions))
	mux.HandleFunc("GET /api/admin/sessions/{session}", s.requireAdmin(admin.SessionDetail))
	mux.HandleFunc("DELETE /api/admin/sessions/{session}", s.requireAdmin(admin.DeleteSession))
	mux.HandleFunc("POST /api/admin/skills/{name}/toggle", s.requireAdmin(sk.Toggle))
	mux.HandleFunc("POST /api/admin/knowledge/rebuild", s.requireAdmin(admin.RebuildKnowledge))
	mux.HandleFunc("POST /api/admin/cleanup", s.requireAdmin(admin.Cleanup))
	mux.HandleFunc("POST /api/admin/scrape", s.requireAdmin(admin.Scrape))
	mux.HandleFunc("GET /api/admin/analytics", s.requireAdmin(admin.AnalyticsReport))
	mux.HandleFunc("GET /api/admin/analytics/overview", s.requireAdmin(admin.AnalyticsOverview))
	mux.HandleFunc("GET /api/admin/analytics/performance", s.requireAdmin(admin.AnalyticsPerformance))

	// Feedback
	fb := &handlers.FeedbackHandler{Analytics: s.analytics, DB: s.db}
	mux.HandleFunc("POST /api/feedback", s.withRateLimit(fb.Submit))

	// WebSocket
	wsh := &handlers.WSHandler{Hub: s.hub, Tokens: s.tokens}
	mux.HandleFunc("GET /ws", wsh.Session)
	mux.HandleFunc("GET /ws/admin", wsh.Admin)
	mux.HandleFunc("GET /api/ws/stats", wsh.Stats)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies the per-client sliding windows, keyed by remote IP.
func (s *Server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decision := s.limiter.Allow(clientIP(r))
		if !decision.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())))
			handlers.WriteRateLimited(w, decision.Reason)
			return
		}
		next(w, r)
	}
}

// requireAdmin verifies the Bearer token and its admin role.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
			handlers.WriteUnauthorized(w, "bearer token required")
			return
		}
		claims, err := s.tokens.Verify(auth[len(prefix):])
		if err != nil {
			handlers.WriteUnauthorized(w, "invalid token")
			return
		}
		if claims.Role != "admin" {
			handlers.WriteUnauthorized(w, "admin role required")
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	// X-Forwarded-For may carry a comma-separated chain. Only the first
	// hop is used, so a client cannot pick its own rate-limit bucket by
	// stuffing extra addresses into the header.
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
