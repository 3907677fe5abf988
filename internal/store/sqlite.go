// Package store persists sessions, transcripts, knowledge items and feedback
// in SQLite. Persistence is an audit trail beside the in-memory state, not the
// source of truth for live sessions.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	last_activity TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	metadata TEXT DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	metadata TEXT DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS knowledge_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	category TEXT,
	tags TEXT DEFAULT '[]',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT,
	rating INTEGER,
	comment TEXT,
	timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
CREATE INDEX IF NOT EXISTS idx_sessions_activity ON sessions(last_activity);
`

// DB wraps the SQLite handle.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Parent directories are created.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// CreateSession inserts a session row; an existing id is refreshed instead.
func (d *DB) CreateSession(sessionID, userID string) error {
	_, err := d.db.Exec(`
		INSERT INTO sessions (id, user_id) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET last_activity = CURRENT_TIMESTAMP`,
		sessionID, userID)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// TouchSession refreshes a session's last activity.
func (d *DB) TouchSession(sessionID string) error {
	_, err := d.db.Exec(`UPDATE sessions SET last_activity = CURRENT_TIMESTAMP WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// DeleteSession removes a session and its messages.
func (d *DB) DeleteSession(sessionID string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return tx.Commit()
}

// CleanupSessions deletes sessions idle for more than maxAge, with their
// messages, and returns how many sessions were removed.
func (d *DB) CleanupSessions(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).UTC().Format("2006-01-02 15:04:05")

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM messages WHERE session_id IN
		(SELECT id FROM sessions WHERE last_activity < ?)`, cutoff); err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM sessions WHERE last_activity < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(n), nil
}

// AddMessage appends a transcript message.
func (d *DB) AddMessage(sessionID, role, content string, metadata map[string]string) error {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if _, err := d.db.Exec(`
		INSERT INTO messages (session_id, role, content, metadata) VALUES (?, ?, ?, ?)`,
		sessionID, role, content, string(meta)); err != nil {
		return fmt.Errorf("add message: %w", err)
	}
	return nil
}

// StoredMessage is a persisted transcript row.
type StoredMessage struct {
	ID        int64
	SessionID string
	Role      string
	Content   string
}

// Messages returns a session's messages in insertion order.
func (d *DB) Messages(sessionID string) ([]StoredMessage, error) {
	rows, err := d.db.Query(`
		SELECT id, session_id, role, content FROM messages
		WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []StoredMessage
	for rows.Next() {
		var m StoredMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AddKnowledgeItem persists a knowledge item snapshot.
func (d *DB) AddKnowledgeItem(title, content, category string, tags []string) error {
	tagData, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	if _, err := d.db.Exec(`
		INSERT INTO knowledge_items (title, content, category, tags) VALUES (?, ?, ?, ?)`,
		title, content, category, string(tagData)); err != nil {
		return fmt.Errorf("add knowledge item: %w", err)
	}
	return nil
}

// AddFeedback persists a satisfaction rating.
func (d *DB) AddFeedback(sessionID string, rating int, comment string) error {
	if _, err := d.db.Exec(`
		INSERT INTO feedback (session_id, rating, comment) VALUES (?, ?, ?)`,
		sessionID, rating, comment); err != nil {
		return fmt.Errorf("add feedback: %w", err)
	}
	return nil
}

// Stats holds row counts and the average feedback rating.
type Stats struct {
	TotalSessions       int
	TotalMessages       int
	TotalKnowledgeItems int
	AverageRating       float64
}

// Statistics aggregates counters across all tables.
func (d *DB) Statistics() (Stats, error) {
	var s Stats
	row := d.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM messages),
			(SELECT COUNT(*) FROM knowledge_items),
			(SELECT COALESCE(AVG(rating), 0) FROM feedback)`)
	if err := row.Scan(&s.TotalSessions, &s.TotalMessages, &s.TotalKnowledgeItems, &s.AverageRating); err != nil {
		return Stats{}, fmt.Errorf("statistics: %w", err)
	}
	return s, nil
}
