package memory

import (
	"sync"
	"time"
)

// Registry maps session ids to their SessionMemory. Safe for concurrent use;
// operations on different sessions run in parallel.
type Registry struct {
	mu       sync.RWMutex
	cfg      Config
	sessions map[string]*SessionMemory
}

// NewRegistry creates an empty registry whose sessions use cfg.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:      cfg.withDefaults(),
		sessions: make(map[string]*SessionMemory),
	}
}

// GetOrCreate returns the session's memory, creating it if needed.
func (r *Registry) GetOrCreate(sessionID string) *SessionMemory {
	r.mu.RLock()
	m, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.sessions[sessionID]; ok {
		return m
	}
	m = NewSessionMemory(sessionID, r.cfg)
	r.sessions[sessionID] = m
	return m
}

// Get returns the session's memory or ErrSessionNotFound.
func (r *Registry) Get(sessionID string) (*SessionMemory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return m, nil
}

// Delete removes the session's memory. Deleting an unknown id is a no-op.
func (r *Registry) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Sessions returns the ids of all live sessions.
func (r *Registry) Sessions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CleanupOlderThan removes sessions created more than maxAge ago and returns
// how many were removed. Age is measured from creation, not last activity.
func (r *Registry) CleanupOlderThan(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, m := range r.sessions {
		if m.CreatedAt().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
