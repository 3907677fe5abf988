package ws

import (
	"sync"
	"time"

	"github.com/noovy/concierge/pkg/api"
)

const (
	maxQueuedNotifications  = 100
	trimQueuedNotifications = 50
)

// Notifier is the high-level notification surface over a Hub. It keeps a
// bounded queue of recent notifications for the admin UI.
type Notifier struct {
	hub *Hub

	mu    sync.Mutex
	queue []api.WSMessage
}

// NewNotifier creates a Notifier over the hub.
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// Notify sends a titled notification to one session, or broadcasts it when
// sessionID is empty.
func (n *Notifier) Notify(title, message, notificationType, sessionID string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	msg := api.WSMessage{
		Type: "notification",
		Data: map[string]any{
			"notification_type": notificationType,
			"title":             title,
			"message":           message,
			"data":              data,
		},
		Timestamp: time.Now(),
	}

	if sessionID != "" {
		n.hub.SendToSession(sessionID, msg)
	} else {
		n.hub.Broadcast(msg)
	}

	n.mu.Lock()
	n.queue = append(n.queue, msg)
	if len(n.queue) > maxQueuedNotifications {
		n.queue = append([]api.WSMessage(nil), n.queue[len(n.queue)-trimQueuedNotifications:]...)
	}
	n.mu.Unlock()
}

// Alert sends a leveled alert to admins only.
func (n *Notifier) Alert(message, level string) {
	n.hub.NotifyAdmins(api.WSMessage{
		Type: "alert",
		Data: map[string]any{
			"level":   level,
			"message": message,
		},
		Timestamp: time.Now(),
	})
}

// Progress pushes a progress update to a session.
func (n *Notifier) Progress(sessionID string, progress int, message string) {
	n.hub.SendToSession(sessionID, api.WSMessage{
		Type: "progress",
		Data: map[string]any{
			"progress": progress,
			"message":  message,
		},
		Timestamp: time.Now(),
	})
}

// Recent returns the last `limit` notifications, oldest first.
func (n *Notifier) Recent(limit int) []api.WSMessage {
	if limit <= 0 {
		limit = 10
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	start := len(n.queue) - limit
	if start < 0 {
		start = 0
	}
	return append([]api.WSMessage(nil), n.queue[start:]...)
}
