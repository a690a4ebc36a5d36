package relay

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session is one live client connection: its identity plus room membership.
// Reads happen on the session's ReadLoop goroutine; all writes to the
// connection happen on the WriteLoop goroutine, fed by a buffered send
// channel so a slow client never blocks a broadcaster.
type Session struct {
	// ID is the connection id, unique per session.
	ID string

	// UserID identifies the user behind the connection. Cursor updates are
	// attributed to it.
	UserID string

	// UserName is the display name announced to peers.
	UserName string

	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	closed atomic.Bool

	relay  *Relay
	config *Config
	logger *slog.Logger

	createdAt time.Time
}

func newSession(conn *websocket.Conn, userID, userName string, r *Relay) *Session {
	id := uuid.NewString()
	if userID == "" {
		userID = id
	}
	return &Session{
		ID:        id,
		UserID:    userID,
		UserName:  userName,
		conn:      conn,
		send:      make(chan []byte, r.config.SendBuffer),
		done:      make(chan struct{}),
		relay:     r,
		config:    r.config,
		logger:    r.logger.With("session_id", id, "user_id", userID),
		createdAt: time.Now(),
	}
}

// Send queues an encoded event for delivery. It never blocks: when the
// session's buffer is full or the session is closed the event is dropped
// and a SessionError wrapping ErrSessionClosed or ErrSendBufferFull is
// returned so the caller can count the drop and name the session.
func (s *Session) Send(data []byte) error {
	if s.closed.Load() {
		return NewSessionError(s.ID, "send", ErrSessionClosed)
	}
	select {
	case s.send <- data:
		return nil
	default:
		return NewSessionError(s.ID, "send", ErrSendBufferFull)
	}
}

// ReadLoop continuously reads messages from the WebSocket connection and
// hands them to the relay. It blocks until the connection is closed or an
// error occurs.
func (s *Session) ReadLoop() {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		return nil
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		s.relay.handleMessage(s, msg)
	}
}

// WriteLoop drains the send channel and emits heartbeat pings. All writes
// to the connection happen here. It runs until the session is closed.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Error("write error", "error", err)
				s.Close()
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}

		case <-s.done:
			return
		}
	}
}

// Close tears the session down exactly once: the connection is closed, the
// loops stop, and the relay deregisters the session from its room. Safe to
// call from any goroutine, any number of times.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	close(s.done)
	s.conn.Close()
	s.relay.handleDisconnect(s)
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	return s.closed.Load()
}
