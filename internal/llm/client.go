// Package llm talks to an OpenAI-compatible chat completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/noovy/concierge/pkg/api"
)

// ErrUnavailable is returned when no upstream is configured or the upstream
// cannot be reached.
var ErrUnavailable = errors.New("llm service unavailable")

// systemPrompt frames the assistant as Hebrew-first hotel-management support.
const systemPrompt = `אתה עוזר AI לתמיכה טכנית במערכות ניהול לבתי מלון.

תפקידך:
1. לענות על שאלות טכניות בנוגע למערכות ניהול בתי מלון
2. לעזור בפתרון בעיות ותקלות
3. להדריך משתמשים בשימוש במערכת
4. לספק מידע מדויק ומועיל

הנחיות:
- תמיד היה מקצועי ואדיב
- תן תשובות ברורות ומפורטות
- אם אתה לא בטוח במשהו, אמר זאת בבירור
- השתמש במידע מ-Knowledge Base כשזמין
- תן דוגמאות מעשיות כשרלוונטי
- תמיד ענה בעברית אלא אם התבקש אחרת`

// Generator produces assistant replies. The chat orchestrator depends on this
// interface so tests can substitute a stub.
type Generator interface {
	// Generate returns a reply to the conversation. kbContext, when non-empty,
	// is appended to the system prompt as knowledge-base grounding.
	Generate(ctx context.Context, messages []api.Message, kbContext string) (string, error)
	// Summarize condenses a conversation into a short Hebrew summary.
	Summarize(ctx context.Context, messages []api.Message) (string, error)
	// Available reports whether an upstream is configured.
	Available() bool
}

// Options configure a Client.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client is the HTTP Generator. A Client without an API key is valid but
// reports unavailable and fails Generate with ErrUnavailable.
type Client struct {
	opts Options
	http *http.Client
}

// New creates a Client with defaults filled in.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	if opts.Model == "" {
		opts.Model = "gpt-4-turbo-preview"
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1500
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Client{
		opts: opts,
		http: &http.Client{Timeout: opts.Timeout},
	}
}

func (c *Client) Available() bool {
	return c.opts.APIKey != ""
}

func (c *Client) Generate(ctx context.Context, messages []api.Message, kbContext string) (string, error) {
	system := systemPrompt
	if kbContext != "" {
		system += "\n\nמידע רלוונטי מבסיס הידע:\n" + kbContext
	}

	full := make([]api.Message, 0, len(messages)+1)
	full = append(full, api.Message{Role: "system", Content: system})
	full = append(full, messages...)

	return c.complete(ctx, full, c.opts.Temperature, c.opts.MaxTokens)
}

func (c *Client) Summarize(ctx context.Context, messages []api.Message) (string, error) {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	return c.complete(ctx, []api.Message{
		{Role: "system", Content: "סכם את השיחה הבאה בצורה תמציתית וברורה:"},
		{Role: "user", Content: strings.TrimRight(b.String(), "\n")},
	}, 0.3, 200)
}

func (c *Client) complete(ctx context.Context, messages []api.Message, temperature float64, maxTokens int) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}

	body, err := json.Marshal(api.ChatCompletionRequest{
		Model:       c.opts.Model,
		Messages:    messages,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.opts.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("chat completion status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var cr api.ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return cr.Choices[0].Message.Content, nil
}
