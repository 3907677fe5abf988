// Package server assembles the HTTP API: routing, middleware, and the wiring
// between the conversation engine and its collaborators.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/noovy/concierge/internal/analytics"
	"github.com/noovy/concierge/internal/chat"
	"github.com/noovy/concierge/internal/config"
	"github.com/noovy/concierge/internal/knowledge"
	"github.com/noovy/concierge/internal/llm"
	"github.com/noovy/concierge/internal/memory"
	"github.com/noovy/concierge/internal/scraper"
	"github.com/noovy/concierge/internal/security"
	"github.com/noovy/concierge/internal/skills"
	"github.com/noovy/concierge/internal/store"
	"github.com/noovy/concierge/internal/upload"
	"github.com/noovy/concierge/internal/ws"
)

// Server is the concierge HTTP API server.
type Server struct {
	cfg  *config.Config
	http *http.Server

	orchestrator *chat.Orchestrator
	kb           knowledge.Store
	analytics    *analytics.Service
	limiter      *security.RateLimiter
	tokens       *security.TokenManager
	guard        *security.LoginGuard
	hub          *ws.Hub
	notifier     *ws.Notifier
	scraper      *scraper.Scraper
	uploads      *upload.Handler
	db           *store.DB

	adminUsername string
	passwordHash  string
	passwordSalt  string
	startTime     time.Time
}

// New wires a Server from the configuration. The knowledge base is seeded if
// empty and the SQLite store is opened; both dirs must exist (EnsureDirs).
func New(cfg *config.Config) (*Server, error) {
	kb := knowledge.NewKeywordStore(cfg.DataDir)
	if err := knowledge.Seed(context.Background(), kb); err != nil {
		return nil, fmt.Errorf("seed knowledge base: %w", err)
	}

	uploads, err := upload.NewHandler(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("init uploads: %w", err)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	generator := llm.New(llm.Options{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})

	registry := skills.NewRegistry()
	skills.RegisterDefaults(registry, kb)

	memories := memory.NewRegistry(memory.Config{
		ShortTermCap: cfg.MemoryShortTermCap,
		RetainAll:    cfg.MemoryRetainAll,
	})

	password := cfg.AdminPassword
	if password == "" {
		password = "admin123"
		log.Printf("WARNING: admin password not configured, using the default")
	}
	hash, salt := security.HashPassword(password, "")

	hub := ws.NewHub()
	s := &Server{
		cfg:           cfg,
		orchestrator:  chat.New(generator, kb, registry, memories),
		kb:            kb,
		analytics:     analytics.NewService(),
		limiter:       security.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitPerHour),
		tokens:        security.NewTokenManager(cfg.JWTSecret),
		guard:         security.NewLoginGuard(),
		hub:           hub,
		notifier:      ws.NewNotifier(hub),
		scraper:       scraper.New(kb),
		uploads:       uploads,
		db:            db,
		adminUsername: cfg.AdminUsername,
		passwordHash:  hash,
		passwordSalt:  salt,
		startTime:     time.Now(),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.http = &http.Server{
		Addr:    cfg.Addr(),
		Handler: withLogging(withCORS(mux)),
	}
	return s, nil
}

// Start starts the server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.Printf("Concierge server listening on %s", s.http.Addr)
	log.Printf("Data dir: %s", s.cfg.DataDir)
	log.Printf("Knowledge items: %d", s.kb.Count())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		s.kb.Close()
		s.db.Close()
		return nil
	case err := <-errCh:
		return err
	}
}
