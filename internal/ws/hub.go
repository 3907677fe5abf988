// Package ws pushes real-time notifications to chat sessions and admin
// dashboards over WebSocket.
package ws

import (
	"log"
	"sync"
	"time"

	"github.com/noovy/concierge/pkg/api"
)

// Conn is the subset of a websocket connection the hub needs. It is satisfied
// by *gorilla/websocket.Conn and by test fakes.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Hub tracks session, admin and broadcast connections.
type Hub struct {
	mu        sync.Mutex
	sessions  map[string][]Conn
	admins    map[Conn]bool
	broadcast map[Conn]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		sessions:  make(map[string][]Conn),
		admins:    make(map[Conn]bool),
		broadcast: make(map[Conn]bool),
	}
}

// Connect registers a connection. With a session id it joins that session;
// without, it joins the broadcast pool. Admins are notified either way.
func (h *Hub) Connect(c Conn, sessionID string) {
	h.mu.Lock()
	if sessionID != "" {
		h.sessions[sessionID] = append(h.sessions[sessionID], c)
	} else {
		h.broadcast[c] = true
	}
	h.mu.Unlock()

	h.NotifyAdmins(api.WSMessage{
		Type: "connection",
		Data: map[string]any{
			"action":     "connected",
			"session_id": sessionID,
		},
		Timestamp: time.Now(),
	})
}

// ConnectAdmin registers an admin connection and sends it a welcome with the
// current connection stats.
func (h *Hub) ConnectAdmin(c Conn) {
	h.mu.Lock()
	h.admins[c] = true
	stats := h.statsLocked()
	h.mu.Unlock()

	h.send(c, api.WSMessage{
		Type: "welcome",
		Data: map[string]any{
			"message":            "Connected to admin notifications",
			"active_sessions":    stats.TotalSessions,
			"active_connections": stats.TotalConnections,
		},
		Timestamp: time.Now(),
	})
}

// Disconnect removes a connection from all pools.
func (h *Hub) Disconnect(c Conn, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.sessions[sessionID]; ok {
		kept := conns[:0]
		for _, other := range conns {
			if other != c {
				kept = append(kept, other)
			}
		}
		if len(kept) == 0 {
			delete(h.sessions, sessionID)
		} else {
			h.sessions[sessionID] = kept
		}
	}
	delete(h.broadcast, c)
	delete(h.admins, c)
}

func (h *Hub) send(c Conn, msg api.WSMessage) {
	if err := c.WriteJSON(msg); err != nil {
		log.Printf("ws send: %v", err)
	}
}

// SendToSession delivers a message to every connection of a session.
func (h *Hub) SendToSession(sessionID string, msg api.WSMessage) {
	h.mu.Lock()
	conns := append([]Conn(nil), h.sessions[sessionID]...)
	h.mu.Unlock()

	for _, c := range conns {
		h.send(c, msg)
	}
}

// Broadcast delivers a message to every session and broadcast connection.
func (h *Hub) Broadcast(msg api.WSMessage) {
	h.mu.Lock()
	var conns []Conn
	for c := range h.broadcast {
		conns = append(conns, c)
	}
	for _, sc := range h.sessions {
		conns = append(conns, sc...)
	}
	h.mu.Unlock()

	for _, c := range conns {
		h.send(c, msg)
	}
}

// NotifyAdmins delivers a message to admin connections, dropping ones that
// fail to write.
func (h *Hub) NotifyAdmins(msg api.WSMessage) {
	h.mu.Lock()
	var conns []Conn
	for c := range h.admins {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSON(msg); err != nil {
			h.mu.Lock()
			delete(h.admins, c)
			h.mu.Unlock()
		}
	}
}

// NotifyTyping pushes a typing indicator to a session.
func (h *Hub) NotifyTyping(sessionID string, isTyping bool) {
	h.SendToSession(sessionID, api.WSMessage{
		Type:      "typing",
		Data:      map[string]any{"is_typing": isTyping},
		Timestamp: time.Now(),
	})
}

// NotifyMessage pushes a new chat message event to a session.
func (h *Hub) NotifyMessage(sessionID string, data map[string]any) {
	h.SendToSession(sessionID, api.WSMessage{
		Type:      "message",
		Data:      data,
		Timestamp: time.Now(),
	})
}

// NotifySkillActivated pushes a skill activation event to a session.
func (h *Hub) NotifySkillActivated(sessionID, skillName string) {
	h.SendToSession(sessionID, api.WSMessage{
		Type:      "skill_activated",
		Data:      map[string]any{"skill": skillName},
		Timestamp: time.Now(),
	})
}

// NotifySystemUpdate broadcasts a system update to everyone including admins.
func (h *Hub) NotifySystemUpdate(updateType string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	msg := api.WSMessage{
		Type:      "system_update",
		Data:      map[string]any{"update_type": updateType, "data": data},
		Timestamp: time.Now(),
	}
	h.Broadcast(msg)
	h.NotifyAdmins(msg)
}

// Stats reports connection counts.
func (h *Hub) Stats() api.WSStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.statsLocked()
}

func (h *Hub) statsLocked() api.WSStats {
	total := 0
	for _, conns := range h.sessions {
		total += len(conns)
	}
	return api.WSStats{
		TotalSessions:        len(h.sessions),
		TotalConnections:     total,
		AdminConnections:     len(h.admins),
		BroadcastConnections: len(h.broadcast),
	}
}

// ActiveSessions lists sessions with at least one live connection.
func (h *Hub) ActiveSessions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	return ids
}
