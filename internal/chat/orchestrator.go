// Package chat coordinates a conversation turn: session transcripts, skills,
// memory recall, knowledge grounding and the model call.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noovy/concierge/internal/knowledge"
	"github.com/noovy/concierge/internal/llm"
	"github.com/noovy/concierge/internal/memory"
	"github.com/noovy/concierge/internal/skills"
	"github.com/noovy/concierge/pkg/api"
)

// ErrSessionNotFound is returned for transcript lookups on unknown sessions.
var ErrSessionNotFound = errors.New("session not found")

// recentWindow is how many transcript messages go to the model.
const recentWindow = 10

// Orchestrator owns the per-session transcripts and wires the collaborators
// together for each turn.
type Orchestrator struct {
	generator llm.Generator
	kb        knowledge.Store
	skills    *skills.Registry
	memories  *memory.Registry

	mu       sync.RWMutex
	sessions map[string][]api.ChatMessage
}

// New creates an Orchestrator.
func New(generator llm.Generator, kb knowledge.Store, reg *skills.Registry, memories *memory.Registry) *Orchestrator {
	return &Orchestrator{
		generator: generator,
		kb:        kb,
		skills:    reg,
		memories:  memories,
		sessions:  make(map[string][]api.ChatMessage),
	}
}

// resolveSession returns an existing session id or creates a fresh one.
// Unknown ids are not adopted: a new id is issued instead.
func (o *Orchestrator) resolveSession(sessionID string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if sessionID != "" {
		if _, ok := o.sessions[sessionID]; ok {
			return sessionID
		}
	}
	id := uuid.New().String()
	o.sessions[id] = []api.ChatMessage{}
	return id
}

func (o *Orchestrator) appendMessage(sessionID, role, content string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessions[sessionID] = append(o.sessions[sessionID], api.ChatMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

func (o *Orchestrator) recentMessages(sessionID string) []api.Message {
	o.mu.RLock()
	defer o.mu.RUnlock()
	transcript := o.sessions[sessionID]
	start := len(transcript) - recentWindow
	if start < 0 {
		start = 0
	}
	out := make([]api.Message, 0, len(transcript)-start)
	for _, m := range transcript[start:] {
		out = append(out, api.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// ProcessMessage runs one conversation turn. The user message is recorded in
// the transcript before the model call, so a failed upstream still leaves the
// question on record.
func (o *Orchestrator) ProcessMessage(ctx context.Context, message, sessionID string) (*api.ChatResponse, error) {
	sessionID = o.resolveSession(sessionID)
	mem := o.memories.GetOrCreate(sessionID)

	o.appendMessage(sessionID, "user", message)

	skillsOut := o.skills.Process(ctx, message)

	relevant, err := mem.RelevantMemories(message, 3)
	if err != nil {
		return nil, fmt.Errorf("recall memories: %w", err)
	}

	kbContext, err := knowledge.ContextForQuery(ctx, o.kb, message, 3)
	if err != nil {
		return nil, fmt.Errorf("knowledge context: %w", err)
	}

	enhanced := kbContext
	if len(relevant) > 0 {
		enhanced += "\n\nמידע רלוונטי מהיסטוריה:\n" + strings.Join(relevant, "\n")
	}
	if len(skillsOut.SkillsUsed) > 0 {
		enhanced += "\n\nSkills שהופעלו: " + strings.Join(skillsOut.SkillsUsed, ", ")
	}

	reply, err := o.generator.Generate(ctx, o.recentMessages(sessionID), enhanced)
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	o.appendMessage(sessionID, "assistant", reply)

	metadata := map[string]string{
		"skills_used": strings.Join(skillsOut.SkillsUsed, ","),
		"timestamp":   time.Now().Format(time.RFC3339),
	}
	if err := mem.AddInteraction(message, reply, metadata); err != nil {
		return nil, fmt.Errorf("record interaction: %w", err)
	}

	sources, err := o.kb.Search(ctx, message, 3)
	if err != nil {
		return nil, fmt.Errorf("search sources: %w", err)
	}
	srcs := make([]api.Source, len(sources))
	for i, s := range sources {
		srcs[i] = api.Source{
			Title:     s.Metadata.Title,
			Category:  s.Metadata.Category,
			Relevance: 1 - s.Distance,
		}
	}

	return &api.ChatResponse{
		Response:    reply,
		SessionID:   sessionID,
		Sources:     srcs,
		SkillsUsed:  skillsOut.SkillsUsed,
		MemoryStats: mem.Stats(),
	}, nil
}

// History returns a session's full transcript.
func (o *Orchestrator) History(sessionID string) ([]api.ChatMessage, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	transcript, ok := o.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return append([]api.ChatMessage(nil), transcript...), nil
}

// DeleteSession removes a session's transcript and memory. Unknown ids are a
// no-op.
func (o *Orchestrator) DeleteSession(sessionID string) {
	o.mu.Lock()
	delete(o.sessions, sessionID)
	o.mu.Unlock()
	o.memories.Delete(sessionID)
}

// ActiveSessions lists live session ids.
func (o *Orchestrator) ActiveSessions() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ids := make([]string, 0, len(o.sessions))
	for id := range o.sessions {
		ids = append(ids, id)
	}
	return ids
}

// MessageCount returns a session's transcript length, 0 for unknown ids.
func (o *Orchestrator) MessageCount(sessionID string) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.sessions[sessionID])
}

// TotalMessages counts messages across all sessions.
func (o *Orchestrator) TotalMessages() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	total := 0
	for _, transcript := range o.sessions {
		total += len(transcript)
	}
	return total
}

// SessionMemoryExport returns a session's memory snapshot.
func (o *Orchestrator) SessionMemoryExport(sessionID string) (api.MemoryExport, error) {
	o.mu.RLock()
	_, ok := o.sessions[sessionID]
	o.mu.RUnlock()
	if !ok {
		return api.MemoryExport{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return o.memories.GetOrCreate(sessionID).Export(), nil
}

// Cleanup removes transcripts and memories for sessions older than maxAge and
// returns how many were removed.
func (o *Orchestrator) Cleanup(maxAge time.Duration) int {
	removed := 0
	for _, id := range o.memories.Sessions() {
		mem, err := o.memories.Get(id)
		if err != nil {
			continue
		}
		if time.Since(mem.CreatedAt()) > maxAge {
			o.DeleteSession(id)
			removed++
		}
	}
	return removed
}

// Skills exposes the registry for the skills endpoints.
func (o *Orchestrator) Skills() *skills.Registry { return o.skills }

// Memories exposes the memory registry.
func (o *Orchestrator) Memories() *memory.Registry { return o.memories }

// SessionCreatedAt returns when a session's memory was created.
func (o *Orchestrator) SessionCreatedAt(sessionID string) (time.Time, error) {
	mem, err := o.memories.Get(sessionID)
	if err != nil {
		return time.Time{}, err
	}
	return mem.CreatedAt(), nil
}
