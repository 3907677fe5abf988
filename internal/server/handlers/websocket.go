package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/noovy/concierge/internal/security"
	"github.com/noovy/concierge/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is served cross-origin from the dashboard.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades HTTP requests into hub connections.
type WSHandler struct {
	Hub    *ws.Hub
	Tokens *security.TokenManager
}

// Session handles GET /ws. A session_id query parameter joins that session's
// notification stream; without one the connection joins the broadcast pool.
func (h *WSHandler) Session(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID != "" && !security.ValidSessionID(sessionID) {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed session id")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}

	h.Hub.Connect(conn, sessionID)
	go h.readLoop(conn, sessionID)
}

// Admin handles GET /ws/admin. The admin token is passed as a query parameter
// because browsers cannot set headers on websocket upgrades.
func (h *WSHandler) Admin(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	claims, err := h.Tokens.Verify(token)
	if err != nil || claims.Role != "admin" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "valid admin token required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}

	h.Hub.ConnectAdmin(conn)
	go h.readLoop(conn, "")
}

// readLoop drains incoming frames until the peer goes away, then detaches the
// connection from the hub.
func (h *WSHandler) readLoop(conn *websocket.Conn, sessionID string) {
	defer h.Hub.Disconnect(conn, sessionID)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Stats handles GET /api/ws/stats.
func (h *WSHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Hub.Stats())
}
