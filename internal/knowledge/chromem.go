package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/noovy/concierge/internal/memory"
	"github.com/noovy/concierge/pkg/api"
)

const collectionName = "hotel_management_kb"

// EmbedFunc produces an embedding vector for a text.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// ChromemStore is the embedding-backed knowledge base. Search blends semantic
// similarity with keyword overlap so exact product terms still rank well even
// with a weak embedding model.
type ChromemStore struct {
	db         *chromem.DB
	embed      EmbedFunc
	collection *chromem.Collection

	mu  sync.Mutex
	seq int
}

// NewChromemStore creates a ChromemStore persisted under dataDir.
func NewChromemStore(dataDir string, embed EmbedFunc) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(dataDir, false)
	if err != nil {
		return nil, fmt.Errorf("create persistent DB: %w", err)
	}
	return newChromemStore(db, embed)
}

// NewChromemStoreInMemory creates a ChromemStore without persistence.
func NewChromemStoreInMemory(embed EmbedFunc) (*ChromemStore, error) {
	return newChromemStore(chromem.NewDB(), embed)
}

func newChromemStore(db *chromem.DB, embed EmbedFunc) (*ChromemStore, error) {
	col, err := db.GetOrCreateCollection(collectionName, nil, chromem.EmbeddingFunc(embed))
	if err != nil {
		return nil, fmt.Errorf("get or create collection: %w", err)
	}
	return &ChromemStore{
		db:         db,
		embed:      embed,
		collection: col,
		seq:        col.Count(),
	}, nil
}

func (s *ChromemStore) Add(ctx context.Context, item Item) (string, error) {
	if item.Content == "" {
		return "", fmt.Errorf("knowledge item has no content")
	}

	s.mu.Lock()
	id := fmt.Sprintf("%s_%d", item.Category, s.seq)
	s.seq++
	s.mu.Unlock()

	doc := chromem.Document{
		ID:      id,
		Content: item.Content,
		Metadata: map[string]string{
			"title":    item.Title,
			"category": item.Category,
			"tags":     strings.Join(item.Tags, ","),
		},
	}
	if err := s.collection.AddDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}
	return id, nil
}

func (s *ChromemStore) Search(ctx context.Context, query string, limit int) ([]api.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := s.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	queryWords := memory.Tokenize(query)
	out := make([]api.SearchResult, 0, len(results))
	for _, r := range results {
		// 70% semantic, 30% keyword.
		kw := memory.BaseRelevance(queryWords, r.Content)
		combined := 0.7*float64(r.Similarity) + 0.3*kw

		out = append(out, api.SearchResult{
			Content: r.Content,
			Metadata: api.SearchMetadata{
				Title:    r.Metadata["title"],
				Category: r.Metadata["category"],
				Tags:     r.Metadata["tags"],
			},
			Distance: 1 - combined,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out, nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// Reset drops and recreates the collection. The id counter is kept so
// pre-reset ids are not reused.
func (s *ChromemStore) Reset(ctx context.Context) error {
	if err := s.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	col, err := s.db.GetOrCreateCollection(collectionName, nil, chromem.EmbeddingFunc(s.embed))
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Close() error {
	return nil
}
