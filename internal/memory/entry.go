package memory

import (
	"crypto/rand"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// Entry categories. Callers may supply their own category strings.
const (
	CategoryInteraction = "interaction"
	CategoryFact        = "fact"
	CategoryProfile     = "user_profile"
)

// Entry is a single timestamped, scored unit of remembered text.
type Entry struct {
	ID             string     `json:"id"`
	Content        string     `json:"content"`
	Category       string     `json:"category"`
	Importance     float64    `json:"importance"`
	CreatedAt      time.Time  `json:"created_at"`
	AccessCount    int        `json:"access_count"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// NewEntry creates an Entry with a fresh ULID and timestamps.
// Importance outside [0,1] is clamped.
func NewEntry(content, category string, importance float64) *Entry {
	if importance < 0 {
		importance = 0
	} else if importance > 1 {
		importance = 1
	}
	now := time.Now()
	return &Entry{
		ID:             ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Content:        content,
		Category:       category,
		Importance:     importance,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
}

// Touch records an access: bumps the counter and refreshes the access time.
func (e *Entry) Touch() {
	e.AccessCount++
	e.LastAccessedAt = time.Now()
}

// Expired reports whether the entry's expiry has passed. Entries without an
// expiry never expire.
func (e *Entry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && e.ExpiresAt.Before(now)
}

// Interaction is one user/assistant exchange. It is serialized as JSON into
// the Content of an interaction entry.
type Interaction struct {
	User      string            `json:"user"`
	Assistant string            `json:"assistant"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// EncodeInteraction serializes an Interaction for storage in an Entry.
func EncodeInteraction(in Interaction) (string, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeInteraction parses an interaction entry's content. Returns false when
// the content is not an interaction (e.g. a plain fact).
func DecodeInteraction(content string) (Interaction, bool) {
	var in Interaction
	if err := json.Unmarshal([]byte(content), &in); err != nil {
		return Interaction{}, false
	}
	return in, true
}
