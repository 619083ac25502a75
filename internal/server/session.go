package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nowfit/chat/internal/protocol"
)

const (
	// Maximum inbound frame size.
	maxMessageSize = 16 * 1024

	// Outbound queue depth per connection.
	sendQueueSize = 64
)

// clientSession tracks per-connection state and outbound delivery. The id is
// stable for the lifetime of the transport connection and never reissued to
// a reconnecting peer.
type clientSession struct {
	id        string
	conn      *websocket.Conn
	sendCh    chan protocol.Envelope
	boundUser string

	mu     sync.Mutex
	closed bool
}

func newClientSession(conn *websocket.Conn, boundUser string) *clientSession {
	return &clientSession{
		id:        uuid.NewString(),
		conn:      conn,
		sendCh:    make(chan protocol.Envelope, sendQueueSize),
		boundUser: boundUser,
	}
}

// send queues an envelope for delivery, dropping it if the session is gone
// or its queue is full.
func (s *clientSession) send(env protocol.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.sendCh <- env:
	default:
	}
}

// readPump consumes inbound frames and hands each envelope to the
// dispatcher. It returns when the peer goes away; the caller runs
// disconnect cleanup.
func (s *clientSession) readPump(a *App, readTimeout time.Duration) error {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		var env protocol.Envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return err
			}
			return nil
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
		a.dispatch(s, env)
	}
}

// writePump drains the outbound queue onto the wire and keeps the
// connection alive with pings.
func (s *clientSession) writePump(writeTimeout time.Duration, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case env, ok := <-s.sendCh:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close shuts the outbound queue, which lets writePump send a close frame
// and release the transport. Safe to call more than once.
func (s *clientSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.sendCh)
}
