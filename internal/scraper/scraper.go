// Package scraper fetches web pages and feeds their text into the knowledge
// base, with same-domain crawling and content-hash change detection.
package scraper

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/noovy/concierge/internal/knowledge"
)

const (
	userAgent    = "Mozilla/5.0 (compatible; HotelAIBot/1.0)"
	maxChunkSize = 2000
	crawlDelay   = 500 * time.Millisecond
)

// Page is one scraped page.
type Page struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Links       []string  `json:"links"`
	ScrapedAt   time.Time `json:"scraped_at"`
	ContentHash string    `json:"content_hash"`
	WordCount   int       `json:"word_count"`
	Language    string    `json:"language"`
}

// Scraper fetches pages and stores their text as knowledge items.
type Scraper struct {
	kb     knowledge.Store
	client *http.Client

	mu      sync.Mutex
	scraped map[string]Page
}

// New creates a Scraper feeding the given store.
func New(kb knowledge.Store) *Scraper {
	return &Scraper{
		kb:      kb,
		client:  &http.Client{Timeout: 30 * time.Second},
		scraped: make(map[string]Page),
	}
}

// ScrapeURL fetches one page. Unchanged content (same hash as the last visit)
// is returned without re-adding it to the knowledge base.
func (s *Scraper) ScrapeURL(ctx context.Context, pageURL, category string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	page := pageFromDocument(doc, pageURL)

	s.mu.Lock()
	prev, seen := s.scraped[pageURL]
	if seen && prev.ContentHash == page.ContentHash {
		s.mu.Unlock()
		return &prev, nil
	}
	s.scraped[pageURL] = page
	s.mu.Unlock()

	if err := s.addToKnowledge(ctx, page, category); err != nil {
		return nil, err
	}
	return &page, nil
}

func pageFromDocument(doc *goquery.Document, pageURL string) Page {
	doc.Find("script, style, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = "ללא כותרת"
	}

	content := strings.Join(strings.Fields(doc.Find("body").Text()), " ")

	return Page{
		URL:         pageURL,
		Title:       title,
		Content:     content,
		Links:       extractLinks(doc, pageURL),
		ScrapedAt:   time.Now(),
		ContentHash: contentHash(content),
		WordCount:   len(strings.Fields(content)),
		Language:    detectLanguage(content),
	}
}

// extractLinks returns absolute same-domain links, deduplicated.
func extractLinks(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Host != base.Host {
			return
		}
		full := abs.String()
		if !seen[full] {
			seen[full] = true
			links = append(links, full)
		}
	})
	return links
}

// detectLanguage counts Hebrew vs Latin letters.
func detectLanguage(text string) string {
	hebrew, english := 0, 0
	for _, r := range text {
		switch {
		case r >= 0x0590 && r <= 0x05FF:
			hebrew++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			english++
		}
	}
	if hebrew > english {
		return "he"
	}
	return "en"
}

func contentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// addToKnowledge stores a page, split into word chunks when long.
func (s *Scraper) addToKnowledge(ctx context.Context, page Page, category string) error {
	if category == "" {
		category = "scraped"
	}
	host := ""
	if u, err := url.Parse(page.URL); err == nil {
		host = u.Host
	}
	tags := []string{"scraped", page.Language, host}

	chunks := splitChunks(page.Content, maxChunkSize)
	if len(chunks) == 1 {
		_, err := s.kb.Add(ctx, knowledge.Item{
			Title:    page.Title,
			Content:  page.Content,
			Category: category,
			Tags:     tags,
		})
		return err
	}

	for i, chunk := range chunks {
		_, err := s.kb.Add(ctx, knowledge.Item{
			Title:    fmt.Sprintf("%s (חלק %d)", page.Title, i+1),
			Content:  chunk,
			Category: category,
			Tags:     tags,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// splitChunks splits text on word boundaries into chunks of at most size
// characters.
func splitChunks(text string, size int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var chunks []string
	var current []string
	currentSize := 0
	for _, w := range words {
		if currentSize+len(w) > size && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			currentSize = 0
		}
		current = append(current, w)
		currentSize += len(w) + 1
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// Crawl scrapes startURL and follows same-domain links breadth-first up to
// maxPages pages. Failed pages are skipped.
func (s *Scraper) Crawl(ctx context.Context, startURL string, maxPages int, category string) ([]Page, error) {
	if maxPages <= 0 {
		maxPages = 20
	}

	queue := []string{startURL}
	visited := make(map[string]bool)
	var pages []Page

	for len(queue) > 0 && len(pages) < maxPages {
		pageURL := queue[0]
		queue = queue[1:]
		if visited[pageURL] {
			continue
		}
		visited[pageURL] = true

		page, err := s.ScrapeURL(ctx, pageURL, category)
		if err != nil {
			continue
		}
		pages = append(pages, *page)

		for _, link := range page.Links {
			if !visited[link] {
				queue = append(queue, link)
			}
		}

		select {
		case <-ctx.Done():
			return pages, ctx.Err()
		case <-time.After(crawlDelay):
		}
	}
	return pages, nil
}

// ScrapedURLs summarizes every scraped page.
func (s *Scraper) ScrapedURLs() []Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Page, 0, len(s.scraped))
	for _, p := range s.scraped {
		out = append(out, p)
	}
	return out
}

// Stats reports scrape counters.
func (s *Scraper) Stats() (totalURLs, totalWords int, languages map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	languages = make(map[string]int)
	for _, p := range s.scraped {
		totalURLs++
		totalWords += p.WordCount
		languages[p.Language]++
	}
	return totalURLs, totalWords, languages
}
