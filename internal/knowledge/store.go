// Package knowledge holds the support knowledge base: articles about the
// hotel-management product, searchable by keyword relevance or, with the
// chromem-backed store, by embedding similarity.
package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/noovy/concierge/pkg/api"
)

// Item is an article to store.
type Item struct {
	Title    string
	Content  string
	Category string
	Tags     []string
}

// Store is the knowledge base interface. KeywordStore is the default
// implementation; ChromemStore swaps in embedding search behind the same
// contract.
type Store interface {
	// Add stores an item and returns its id.
	Add(ctx context.Context, item Item) (string, error)
	// Search returns up to limit results ordered by ascending distance,
	// where distance is 1 - relevance.
	Search(ctx context.Context, query string, limit int) ([]api.SearchResult, error)
	// Count returns the number of stored items.
	Count() int
	// Reset removes every stored item. Id counters keep advancing so ids
	// from before the reset are never reused.
	Reset(ctx context.Context) error
	Close() error
}

// ContextForQuery renders the top search results as a numbered context block
// for prompting.
func ContextForQuery(ctx context.Context, s Store, query string, maxResults int) (string, error) {
	if maxResults <= 0 {
		maxResults = 3
	}
	results, err := s.Search(ctx, query, maxResults)
	if err != nil {
		return "", fmt.Errorf("search knowledge: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(results))
	for i, r := range results {
		title := r.Metadata.Title
		if title == "" {
			title = "ללא כותרת"
		}
		parts = append(parts, fmt.Sprintf("%d. %s\n%s\n", i+1, title, r.Content))
	}
	return strings.Join(parts, "\n"), nil
}
