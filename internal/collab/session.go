package collab

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/drschille/CRDT-Server/internal/crdt"
	"github.com/drschille/CRDT-Server/internal/logger"
	"github.com/drschille/CRDT-Server/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512KB

	// Outbound frames buffered per connection before drops kick in
	sendBufferSize = 256
)

// subscription is the per-(connection, document) sync bookkeeping. The
// registry carries no sync state: it is snapshot-only by design.
type subscription struct {
	state *crdt.SyncState
}

// Session is one WebSocket connection: its identity, its subscription set,
// and its outbound queue. The subscription set is guarded by the hub mutex;
// the limiter is consulted before the hub lock is taken (rate.Limiter
// synchronizes itself), and the remaining fields are fixed at creation.
type Session struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	userID  string
	subs    map[models.DocKey]*subscription
	limiter *rate.Limiter

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(hub *Hub, conn *websocket.Conn, userID string) *Session {
	return &Session{
		id:      uuid.NewString(),
		hub:     hub,
		conn:    conn,
		userID:  userID,
		subs:    make(map[models.DocKey]*subscription),
		limiter: newFrameLimiter(),
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
	}
}

// UserID returns the identity derived at upgrade time.
func (s *Session) UserID() string { return s.userID }

// enqueue serializes a frame onto the outbound queue. A full queue drops
// the frame; the client recovers via request_full_state or the next
// broadcast.
func (s *Session) enqueue(msg models.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("marshal %s frame: %v", msg.Type, err)
		return
	}
	select {
	case <-s.done:
	case s.send <- data:
	default:
		logger.Warn("send buffer full for %s, dropping %s frame", s.userID, msg.Type)
	}
}

// close tears the connection down once; readPump's deferred Detach releases
// all subscriptions.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// readPump reads frames from the socket and hands them to the hub.
func (s *Session) readPump() {
	defer func() {
		s.hub.Detach(s)
		s.close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket error for %s: %v", s.userID, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			s.enqueue(models.ErrorFrame(models.BadRequest("frames must be JSON text")))
			continue
		}
		s.hub.Handle(s, message)
	}
}

// writePump drains the outbound queue and keeps the connection alive.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
