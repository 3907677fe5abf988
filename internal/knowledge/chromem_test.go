package knowledge

import (
	"context"
	"strings"
	"testing"
)

// stubEmbed maps known words onto axis-aligned vectors so similarity is
// predictable without a real embedding model.
func stubEmbed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, 3)
	for i, word := range []string{"סיסמה", "הזמנה", "דוח"} {
		if strings.Contains(text, word) {
			vec[i] = 1
		}
	}
	if vec[0] == 0 && vec[1] == 0 && vec[2] == 0 {
		vec[0] = 0.01
	}
	return vec, nil
}

func TestChromemStoreAddAndSearch(t *testing.T) {
	s, err := NewChromemStoreInMemory(stubEmbed)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := s.Add(ctx, Item{Title: "איפוס סיסמה", Content: "איך מאפסים סיסמה", Category: "support"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(ctx, Item{Title: "יצירת הזמנה", Content: "איך יוצרים הזמנה", Category: "reservations"}); err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(ctx, "סיסמה", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Metadata.Title != "איפוס סיסמה" {
		t.Errorf("expected the password article first, got %q", results[0].Metadata.Title)
	}
	if results[0].Distance >= results[1].Distance {
		t.Error("results should be ordered by ascending distance")
	}
}

func TestChromemStoreIDs(t *testing.T) {
	s, err := NewChromemStoreInMemory(stubEmbed)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	id, err := s.Add(ctx, Item{Title: "א", Content: "דוח תפוסה", Category: "reports"})
	if err != nil {
		t.Fatal(err)
	}
	if id != "reports_0" {
		t.Errorf("expected reports_0, got %q", id)
	}
	if s.Count() != 1 {
		t.Errorf("expected count 1, got %d", s.Count())
	}
}

func TestChromemStoreEmptySearch(t *testing.T) {
	s, err := NewChromemStoreInMemory(stubEmbed)
	if err != nil {
		t.Fatal(err)
	}
	results, err := s.Search(context.Background(), "משהו", 5)
	if err != nil {
		t.Fatal(err)
	}
	if results != nil {
		t.Errorf("expected nil results on an empty store, got %v", results)
	}
}
