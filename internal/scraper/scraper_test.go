package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/noovy/concierge/internal/knowledge"
)

func TestScrapeURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>מדריך הזמנות</title><style>p{}</style></head>
			<body><script>var x=1;</script><p>תוכן המדריך על הזמנות</p>
			<a href="/page2">עוד</a><a href="https://other.example/x">חיצוני</a>
			<a href="#anchor">עוגן</a><a href="mailto:a@b.c">מייל</a></body></html>`)
	}))
	defer srv.Close()

	kb := knowledge.NewKeywordStoreInMemory()
	s := New(kb)

	page, err := s.ScrapeURL(context.Background(), srv.URL, "docs")
	if err != nil {
		t.Fatal(err)
	}

	if page.Title != "מדריך הזמנות" {
		t.Errorf("unexpected title %q", page.Title)
	}
	if strings.Contains(page.Content, "var x=1") {
		t.Error("script content must be stripped")
	}
	if page.Language != "he" {
		t.Errorf("expected Hebrew detection, got %s", page.Language)
	}
	if len(page.Links) != 1 || page.Links[0] != srv.URL+"/page2" {
		t.Errorf("expected one same-domain link, got %v", page.Links)
	}
	if kb.Count() != 1 {
		t.Errorf("page should be added to the knowledge base, got %d items", kb.Count())
	}

	results, err := kb.Search(context.Background(), "הזמנות", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].Metadata.Category != "docs" {
		t.Errorf("scraped item should be searchable under its category, got %v", results)
	}
}

func TestScrapeURLUnchangedContentNotReadded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>t</title></head><body>same content</body></html>`)
	}))
	defer srv.Close()

	kb := knowledge.NewKeywordStoreInMemory()
	s := New(kb)
	ctx := context.Background()

	if _, err := s.ScrapeURL(ctx, srv.URL, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ScrapeURL(ctx, srv.URL, ""); err != nil {
		t.Fatal(err)
	}
	if kb.Count() != 1 {
		t.Errorf("unchanged page must not be re-added, got %d items", kb.Count())
	}
}

func TestScrapeURLHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := New(knowledge.NewKeywordStoreInMemory())
	if _, err := s.ScrapeURL(context.Background(), srv.URL, ""); err == nil {
		t.Error("404 should be an error")
	}
}

func TestSplitChunks(t *testing.T) {
	text := strings.Repeat("word ", 1000)
	chunks := splitChunks(text, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 105 {
			t.Errorf("chunk %d too long: %d", i, len(c))
		}
	}
	rejoined := strings.Join(chunks, " ")
	if rejoined != strings.TrimSpace(text) {
		t.Error("chunks should reassemble to the original text")
	}
}

func TestLongPageIsChunked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>long</title></head><body>%s</body></html>`,
			strings.Repeat("word ", 2000))
	}))
	defer srv.Close()

	kb := knowledge.NewKeywordStoreInMemory()
	s := New(kb)
	if _, err := s.ScrapeURL(context.Background(), srv.URL, ""); err != nil {
		t.Fatal(err)
	}
	if kb.Count() < 2 {
		t.Errorf("long page should be stored in chunks, got %d items", kb.Count())
	}
}

func TestCrawlFollowsSameDomainLinks(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>root</title></head><body>root page
			<a href="%s/a">a</a></body></html>`, srv.URL)
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>a</title></head><body>leaf page</body></html>`)
	})

	s := New(knowledge.NewKeywordStoreInMemory())
	pages, err := s.Crawl(context.Background(), srv.URL, 5, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Errorf("expected 2 pages, got %d", len(pages))
	}

	total, words, langs := s.Stats()
	if total != 2 || words == 0 {
		t.Errorf("unexpected stats total=%d words=%d", total, words)
	}
	if langs["en"] != 2 {
		t.Errorf("expected 2 english pages, got %v", langs)
	}
}

func TestCrawlRespectsMaxPages(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>p</title></head><body>page %s
			<a href="%s%sx">next</a></body></html>`, r.URL.Path, srv.URL, r.URL.Path)
	})

	s := New(knowledge.NewKeywordStoreInMemory())
	pages, err := s.Crawl(context.Background(), srv.URL, 3, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 3 {
		t.Errorf("expected exactly 3 pages, got %d", len(pages))
	}
}

func TestDetectLanguage(t *testing.T) {
	if got := detectLanguage("שלום עולם hello"); got != "he" {
		t.Errorf("expected he, got %s", got)
	}
	if got := detectLanguage("hello world שלום"); got != "en" {
		t.Errorf("expected en, got %s", got)
	}
}
