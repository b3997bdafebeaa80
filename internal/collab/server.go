package collab

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/drschille/CRDT-Server/internal/auth"
	"github.com/drschille/CRDT-Server/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browsers connect from arbitrary dev origins; access control
		// happens per document, not per origin.
		return true
	},
}

// Server upgrades HTTP requests to WebSocket sessions on the hub.
type Server struct {
	hub *Hub
}

// NewServer creates the WebSocket endpoint handler.
func NewServer(hub *Hub) *Server {
	return &Server{hub: hub}
}

// HandleWebSocket derives the user identity, upgrades the connection, and
// starts the session pumps.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := auth.Identify(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("failed to upgrade websocket: %v", err)
		return
	}

	session := newSession(s.hub, conn, userID)
	s.hub.Attach(session)

	go session.writePump()
	go session.readPump()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.HandleWebSocket(w, r)
}
