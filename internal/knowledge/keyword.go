package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/noovy/concierge/internal/memory"
	"github.com/noovy/concierge/pkg/api"
)

// record is the stored form of an item.
type record struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags,omitempty"`
}

// KeywordStore is the default knowledge base: items held in memory, scored by
// keyword overlap against queries. A JSON snapshot is written alongside the
// data dir on mutation; loading it back is best-effort.
type KeywordStore struct {
	mu         sync.RWMutex
	records    []record
	seq        int
	persistDir string // empty for in-memory
}

// NewKeywordStore creates a KeywordStore persisting snapshots under dataDir.
// An existing snapshot is loaded; a missing or corrupt one starts empty.
func NewKeywordStore(dataDir string) *KeywordStore {
	s := &KeywordStore{persistDir: dataDir}
	s.loadSnapshot()
	return s
}

// NewKeywordStoreInMemory creates a KeywordStore without persistence.
func NewKeywordStoreInMemory() *KeywordStore {
	return &KeywordStore{}
}

// Add stores an item. Ids are "{category}_{seq}" with a counter that never
// reuses a number for the life of the store, so deletions cannot cause
// collisions.
func (s *KeywordStore) Add(ctx context.Context, item Item) (string, error) {
	if item.Content == "" {
		return "", fmt.Errorf("knowledge item has no content")
	}

	s.mu.Lock()
	id := fmt.Sprintf("%s_%d", item.Category, s.seq)
	s.seq++
	s.records = append(s.records, record{
		ID:       id,
		Title:    item.Title,
		Content:  item.Content,
		Category: item.Category,
		Tags:     item.Tags,
	})
	s.mu.Unlock()

	s.saveSnapshot()
	return id, nil
}

// Search scores every item by keyword overlap with the query, weighted over
// title, content and tags. Zero-relevance items are excluded; ties keep
// insertion order.
func (s *KeywordStore) Search(ctx context.Context, query string, limit int) ([]api.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	queryWords := memory.Tokenize(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		rec       record
		relevance float64
	}
	candidates := make([]scored, 0, len(s.records))
	for _, r := range s.records {
		haystack := r.Title + " " + r.Content + " " + strings.Join(r.Tags, " ")
		rel := memory.BaseRelevance(queryWords, haystack)
		if rel == 0 {
			continue
		}
		candidates = append(candidates, scored{rec: r, relevance: rel})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].relevance > candidates[j].relevance
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]api.SearchResult, len(candidates))
	for i, c := range candidates {
		results[i] = api.SearchResult{
			Content: c.rec.Content,
			Metadata: api.SearchMetadata{
				Title:    c.rec.Title,
				Category: c.rec.Category,
				Tags:     strings.Join(c.rec.Tags, ","),
			},
			Distance: 1 - c.relevance,
		}
	}
	return results, nil
}

// Count returns the number of stored items.
func (s *KeywordStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Reset drops every record. The id counter is kept so pre-reset ids are not
// reused.
func (s *KeywordStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()

	s.saveSnapshot()
	return nil
}

func (s *KeywordStore) Close() error {
	s.saveSnapshot()
	return nil
}

// Snapshot persistence, best-effort JSON like the memory index file.

type snapshot struct {
	Seq     int      `json:"seq"`
	Records []record `json:"records"`
}

func (s *KeywordStore) snapshotPath() string {
	if s.persistDir == "" {
		return ""
	}
	return filepath.Join(s.persistDir, "knowledge.json")
}

func (s *KeywordStore) saveSnapshot() {
	path := s.snapshotPath()
	if path == "" {
		return
	}

	s.mu.RLock()
	data, err := json.Marshal(snapshot{Seq: s.seq, Records: s.records})
	s.mu.RUnlock()
	if err != nil {
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("knowledge: snapshot write failed: %v", err)
	}
}

func (s *KeywordStore) loadSnapshot() {
	path := s.snapshotPath()
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("knowledge: snapshot at %s is corrupt, starting empty: %v", path, err)
		return
	}

	s.mu.Lock()
	s.records = snap.Records
	s.seq = snap.Seq
	s.mu.Unlock()
}
