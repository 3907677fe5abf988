package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noovy/concierge/pkg/api"
)

// Config controls the consolidation policy of a session's short-term memory.
type Config struct {
	// ShortTermCap is the short-term size that triggers consolidation.
	ShortTermCap int
	// ConsolidateKeep is how many recent entries survive consolidation.
	ConsolidateKeep int
	// PromoteTop is how many top-ranked entries are considered for promotion.
	PromoteTop int
	// RetainAll promotes every entry that would otherwise be forgotten during
	// consolidation instead of dropping it. Off by default: the default policy
	// deliberately forgets mid-ranked, non-recent entries.
	RetainAll bool
}

// DefaultConfig matches the conversation agent's limits.
func DefaultConfig() Config {
	return Config{
		ShortTermCap:    20,
		ConsolidateKeep: 10,
		PromoteTop:      5,
	}
}

func (c Config) withDefaults() Config {
	if c.ShortTermCap <= 0 {
		c.ShortTermCap = 20
	}
	if c.ConsolidateKeep <= 0 {
		c.ConsolidateKeep = 10
	}
	if c.PromoteTop <= 0 {
		c.PromoteTop = 5
	}
	return c
}

// SessionMemory holds one session's short-term interaction log, consolidated
// long-term entries, user profile, and discussed topics.
//
// All exported methods are safe for concurrent use; operations on the same
// session serialize on an internal mutex so consolidation is all-or-nothing.
type SessionMemory struct {
	mu        sync.Mutex
	sessionID string
	cfg       Config
	shortTerm []*Entry
	longTerm  []*Entry
	profile   map[string]string
	topics    []string
	summary   string
	createdAt time.Time
}

// NewSessionMemory creates an empty memory for the session id.
func NewSessionMemory(sessionID string, cfg Config) *SessionMemory {
	return &SessionMemory{
		sessionID: sessionID,
		cfg:       cfg.withDefaults(),
		profile:   make(map[string]string),
		createdAt: time.Now(),
	}
}

// SessionID returns the session's id.
func (m *SessionMemory) SessionID() string { return m.sessionID }

// CreatedAt returns the session creation time, used for age-based expiry.
func (m *SessionMemory) CreatedAt() time.Time { return m.createdAt }

// AddInteraction records one user/assistant exchange in short-term memory,
// extracts topics from the user message, and consolidates when the short-term
// log exceeds its cap.
func (m *SessionMemory) AddInteraction(userMessage, assistantResponse string, metadata map[string]string) error {
	content, err := EncodeInteraction(Interaction{
		User:      userMessage,
		Assistant: assistantResponse,
		Metadata:  metadata,
		Timestamp: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("encode interaction: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.shortTerm = append(m.shortTerm, NewEntry(content, CategoryInteraction, 0.5))

	for _, topic := range extractTopics(userMessage) {
		if !containsString(m.topics, topic) {
			m.topics = append(m.topics, topic)
		}
	}

	if len(m.shortTerm) > m.cfg.ShortTermCap {
		m.consolidate()
	}
	return nil
}

// AddFact stores free text directly in long-term memory.
func (m *SessionMemory) AddFact(fact, category string, importance float64) {
	if category == "" {
		category = CategoryFact
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.longTerm = append(m.longTerm, NewEntry(fact, category, importance))
}

// UpdateProfile sets a user profile key and records the change as a high
// importance long-term fact, so preferences survive consolidation.
func (m *SessionMemory) UpdateProfile(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile[key] = value
	fact := fmt.Sprintf("User preference: %s = %s", key, value)
	m.longTerm = append(m.longTerm, NewEntry(fact, CategoryProfile, 0.8))
}

// RelevantMemories returns up to limit memory contents ranked by
// importance-weighted keyword relevance over short- and long-term memory.
// Returned entries have their access bookkeeping updated.
func (m *SessionMemory) RelevantMemories(query string, limit int) ([]string, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative limit %d", ErrInvalidArgument, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]*Entry, 0, len(m.shortTerm)+len(m.longTerm))
	all = append(all, m.shortTerm...)
	all = append(all, m.longTerm...)

	ranked := rankWeighted(query, all, limit)
	out := make([]string, len(ranked))
	for i, e := range ranked {
		out[i] = e.Content
	}
	return out, nil
}

// Context returns the last nRecent exchanges formatted as alternating
// user/assistant lines. Each included entry is touched.
func (m *SessionMemory) Context(nRecent int) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := len(m.shortTerm) - nRecent
	if start < 0 {
		start = 0
	}

	var parts []string
	for _, e := range m.shortTerm[start:] {
		e.Touch()
		if in, ok := DecodeInteraction(e.Content); ok {
			parts = append(parts, "משתמש: "+in.User)
			parts = append(parts, "עוזר: "+in.Assistant)
		} else {
			parts = append(parts, e.Content)
		}
	}
	return strings.Join(parts, "\n")
}

// Summarize produces a deterministic summary from tracked counters; it makes
// no model call.
func (m *SessionMemory) Summarize() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.shortTerm) == 0 {
		return "לא היו שיחות בסשן זה"
	}

	topics := "כללי"
	if len(m.topics) > 0 {
		start := len(m.topics) - 5
		if start < 0 {
			start = 0
		}
		topics = strings.Join(m.topics[start:], ", ")
	}

	summary := fmt.Sprintf("סשן זה כלל %d אינטראקציות. נושאים עיקריים: %s. ", len(m.shortTerm), topics)
	if len(m.profile) > 0 {
		summary += fmt.Sprintf("פרופיל משתמש: %d העדפות נשמרו.", len(m.profile))
	}
	m.summary = summary
	return summary
}

// Stats reports the session's memory counters.
func (m *SessionMemory) Stats() api.MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return api.MemoryStats{
		SessionID:        m.sessionID,
		ShortTermCount:   len(m.shortTerm),
		LongTermCount:    len(m.longTerm),
		TopicsDiscussed:  append([]string(nil), m.topics...),
		ProfileEntries:   len(m.profile),
		Duration:         time.Since(m.createdAt).Round(time.Second).String(),
		TotalInteraction: len(m.shortTerm),
	}
}

// Export returns a full snapshot of the session's memory.
func (m *SessionMemory) Export() api.MemoryExport {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile := make(map[string]string, len(m.profile))
	for k, v := range m.profile {
		profile[k] = v
	}

	return api.MemoryExport{
		SessionID:       m.sessionID,
		CreatedAt:       m.createdAt,
		ShortTerm:       exportEntries(m.shortTerm),
		LongTerm:        exportEntries(m.longTerm),
		UserProfile:     profile,
		TopicsDiscussed: append([]string(nil), m.topics...),
		Summary:         m.summary,
	}
}

// consolidate promotes important short-term entries to long-term memory and
// truncates the short-term log to its most recent tail. Entries ranked outside
// the promotion set that also fall outside the tail are forgotten unless
// RetainAll is set. Callers must hold m.mu.
func (m *SessionMemory) consolidate() {
	ranked := make([]*Entry, len(m.shortTerm))
	copy(ranked, m.shortTerm)
	// Importance is the primary key, access count the tiebreak.
	sortByImportance(ranked)

	top := m.cfg.PromoteTop
	if top > len(ranked) {
		top = len(ranked)
	}
	promoted := make(map[*Entry]bool, top)
	for _, e := range ranked[:top] {
		if e.Importance > 0.6 || e.AccessCount > 2 {
			m.longTerm = append(m.longTerm, e)
			promoted[e] = true
		}
	}

	cut := len(m.shortTerm) - m.cfg.ConsolidateKeep
	if cut < 0 {
		cut = 0
	}

	if m.cfg.RetainAll {
		for _, e := range m.shortTerm[:cut] {
			if !promoted[e] {
				m.longTerm = append(m.longTerm, e)
			}
		}
	}

	m.shortTerm = append([]*Entry(nil), m.shortTerm[cut:]...)
}

func sortByImportance(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Importance != entries[j].Importance {
			return entries[i].Importance > entries[j].Importance
		}
		return entries[i].AccessCount > entries[j].AccessCount
	})
}

func exportEntries(entries []*Entry) []api.MemoryEntry {
	out := make([]api.MemoryEntry, len(entries))
	for i, e := range entries {
		out[i] = api.MemoryEntry{
			ID:             e.ID,
			Content:        e.Content,
			Category:       e.Category,
			Importance:     e.Importance,
			CreatedAt:      e.CreatedAt,
			AccessCount:    e.AccessCount,
			LastAccessedAt: e.LastAccessedAt,
			ExpiresAt:      e.ExpiresAt,
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
