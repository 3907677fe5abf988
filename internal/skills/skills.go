// Package skills implements the pluggable query skills: small handlers that
// recognize a class of support question and attach structured guidance to the
// reply.
package skills

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/noovy/concierge/pkg/api"
)

// Skill recognizes and handles one class of query.
type Skill interface {
	Name() string
	Description() string
	Category() string
	// CanHandle reports whether the skill applies to the query.
	CanHandle(query string) bool
	// Execute runs the skill and returns its structured payload.
	Execute(ctx context.Context, query string) (map[string]any, error)
}

// Outcome is the combined result of a Process call.
type Outcome struct {
	Query string
	// SkillsUsed lists the names of skills that ran, in registration order.
	SkillsUsed []string
	// Data maps each triggered skill's category to its payload.
	Data map[string]map[string]any
}

// Registry holds skills in registration order. Every enabled skill whose
// CanHandle matches runs on each query; skills are additive, not exclusive.
type Registry struct {
	mu       sync.RWMutex
	skills   []Skill
	disabled map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{disabled: make(map[string]bool)}
}

// Register appends a skill. Registration order is execution order.
func (r *Registry) Register(s Skill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skills = append(r.skills, s)
}

// Enable re-enables a skill by name. Returns false for unknown names.
func (r *Registry) Enable(name string) bool {
	return r.setEnabled(name, true)
}

// Disable turns a skill off by name. Returns false for unknown names.
func (r *Registry) Disable(name string) bool {
	return r.setEnabled(name, false)
}

// Toggle flips a skill's enabled state and returns the new state. ok is
// false for unknown names.
func (r *Registry) Toggle(name string) (enabled, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.skills {
		if s.Name() == name {
			r.disabled[name] = !r.disabled[name]
			return !r.disabled[name], true
		}
	}
	return false, false
}

func (r *Registry) setEnabled(name string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.skills {
		if s.Name() == name {
			r.disabled[name] = !enabled
			return true
		}
	}
	return false
}

// List describes all registered skills.
func (r *Registry) List() []api.SkillInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]api.SkillInfo, len(r.skills))
	for i, s := range r.skills {
		out[i] = api.SkillInfo{
			Name:        s.Name(),
			Description: s.Description(),
			Category:    s.Category(),
			Enabled:     !r.disabled[s.Name()],
		}
	}
	return out
}

// Process runs every enabled matching skill against the query. A failing
// skill is logged and skipped; the others still run.
func (r *Registry) Process(ctx context.Context, query string) Outcome {
	r.mu.RLock()
	matching := make([]Skill, 0, len(r.skills))
	for _, s := range r.skills {
		if !r.disabled[s.Name()] && s.CanHandle(query) {
			matching = append(matching, s)
		}
	}
	r.mu.RUnlock()

	out := Outcome{Query: query, Data: make(map[string]map[string]any)}
	for _, s := range matching {
		payload, err := s.Execute(ctx, query)
		if err != nil {
			log.Printf("skill %s: %v", s.Name(), err)
			continue
		}
		out.SkillsUsed = append(out.SkillsUsed, s.Name())
		out.Data[s.Category()] = payload
	}
	return out
}

// info carries the static identity shared by all built-in skills.
type info struct {
	name        string
	description string
	category    string
}

func (i info) Name() string        { return i.name }
func (i info) Description() string { return i.description }
func (i info) Category() string    { return i.category }

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
