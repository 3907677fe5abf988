package api

import "time"

// Message represents a chat message in OpenAI wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatMessage is a transcript entry with its timestamp.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatRequest is the request for POST /api/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// Source describes a knowledge item that informed a reply.
type Source struct {
	Title     string  `json:"title"`
	Category  string  `json:"category"`
	Relevance float64 `json:"relevance"`
}

// ChatResponse is the response for POST /api/chat.
type ChatResponse struct {
	Response    string      `json:"response"`
	SessionID   string      `json:"session_id"`
	Sources     []Source    `json:"sources,omitempty"`
	SkillsUsed  []string    `json:"skills_used,omitempty"`
	MemoryStats MemoryStats `json:"memory_stats"`
}

// HistoryResponse is the response for GET /api/chat/history/{session}.
type HistoryResponse struct {
	SessionID string        `json:"session_id"`
	Messages  []ChatMessage `json:"messages"`
}

// Knowledge base types

// KnowledgeItem is the request body for POST /api/knowledge/add.
type KnowledgeItem struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags,omitempty"`
}

// AddKnowledgeResponse is returned after adding a knowledge item.
type AddKnowledgeResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// SearchMetadata is the per-result metadata block.
type SearchMetadata struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Tags     string `json:"tags"`
}

// SearchResult is one knowledge search hit. Distance is 1 - relevance:
// 0 means a perfect keyword match.
type SearchResult struct {
	Content  string         `json:"content"`
	Metadata SearchMetadata `json:"metadata"`
	Distance float64        `json:"distance"`
}

// SearchResponse is the response for GET /api/knowledge/search.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// Memory types

// MemoryStats summarizes a session's memory state.
type MemoryStats struct {
	SessionID        string   `json:"session_id"`
	ShortTermCount   int      `json:"short_term_count"`
	LongTermCount    int      `json:"long_term_count"`
	TopicsDiscussed  []string `json:"topics_discussed"`
	ProfileEntries   int      `json:"user_profile_entries"`
	Duration         string   `json:"conversation_duration"`
	TotalInteraction int      `json:"total_interactions"`
}

// MemoryEntry is the wire form of a single memory entry.
type MemoryEntry struct {
	ID             string     `json:"id"`
	Content        string     `json:"content"`
	Category       string     `json:"category"`
	Importance     float64    `json:"importance"`
	CreatedAt      time.Time  `json:"created_at"`
	AccessCount    int        `json:"access_count"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// MemoryExport is the full snapshot of a session's memory.
type MemoryExport struct {
	SessionID       string            `json:"session_id"`
	CreatedAt       time.Time         `json:"created_at"`
	ShortTerm       []MemoryEntry     `json:"short_term_memory"`
	LongTerm        []MemoryEntry     `json:"long_term_memory"`
	UserProfile     map[string]string `json:"user_profile"`
	TopicsDiscussed []string          `json:"topics_discussed"`
	Summary         string            `json:"conversation_summary"`
}

// Skills

// SkillInfo describes an available skill.
type SkillInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Enabled     bool   `json:"enabled"`
}

// SkillListResponse is the response for GET /api/skills.
type SkillListResponse struct {
	Skills []SkillInfo `json:"skills"`
}

// Admin

// AdminLoginRequest is the request for POST /api/admin/login.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLoginResponse carries the bearer token for admin endpoints.
type AdminLoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
}

// AdminStats is the response for GET /api/admin/stats.
type AdminStats struct {
	TotalSessions       int    `json:"total_sessions"`
	ActiveSessions      int    `json:"active_sessions"`
	TotalMessages       int    `json:"total_messages"`
	TotalKnowledgeItems int    `json:"total_knowledge_items"`
	AvailableSkills     int    `json:"available_skills"`
	Uptime              string `json:"uptime"`
}

// SessionInfo summarizes a session for the admin session list.
type SessionInfo struct {
	SessionID       string    `json:"session_id"`
	MessageCount    int       `json:"message_count"`
	CreatedAt       time.Time `json:"created_at"`
	TopicsDiscussed []string  `json:"topics_discussed"`
}

// CleanupResponse is the response for POST /api/admin/cleanup.
type CleanupResponse struct {
	Success         bool `json:"success"`
	DeletedSessions int  `json:"deleted_sessions"`
}

// Feedback

// FeedbackRequest is the request for POST /api/feedback.
type FeedbackRequest struct {
	SessionID string `json:"session_id"`
	Rating    int    `json:"rating"`
	Feedback  string `json:"feedback,omitempty"`
}

// Upload

// UploadResponse is the response for POST /api/knowledge/upload.
type UploadResponse struct {
	Success   bool     `json:"success"`
	FileID    string   `json:"file_id,omitempty"`
	Filename  string   `json:"filename,omitempty"`
	ItemID    string   `json:"item_id,omitempty"`
	Duplicate bool     `json:"duplicate,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// FileInfo describes a processed upload.
type FileInfo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Extension  string    `json:"extension"`
	Size       int       `json:"size"`
	Category   string    `json:"category"`
	UploadedAt time.Time `json:"uploaded_at"`
	TextLength int       `json:"text_length"`
}

// Scraper

// ScrapeRequest is the request for POST /api/admin/scrape.
type ScrapeRequest struct {
	URL      string `json:"url"`
	MaxPages int    `json:"max_pages,omitempty"`
}

// ScrapeResponse is the response for POST /api/admin/scrape.
type ScrapeResponse struct {
	Success    bool `json:"success"`
	PagesAdded int  `json:"pages_added"`
}

// WebSocket

// WSMessage is the envelope for messages on /ws and /ws/admin.
type WSMessage struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// WSStats is the response for GET /api/ws/stats.
type WSStats struct {
	TotalSessions        int `json:"total_sessions"`
	TotalConnections     int `json:"total_connections"`
	AdminConnections     int `json:"admin_connections"`
	BroadcastConnections int `json:"broadcast_connections"`
}

// Errors

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// LLM wire types (OpenAI chat completions subset)

// ChatCompletionRequest matches the OpenAI chat completions request schema.
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

// ChatCompletionResponse matches the OpenAI chat completions response schema.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// Choice is a single completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}
