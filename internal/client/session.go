package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nowfit/chat/internal/config"
	"github.com/nowfit/chat/internal/protocol"
)

// Session manages the client's HTTP login and websocket channel.
type Session struct {
	cfg    config.ClientConfig
	conn   *websocket.Conn
	events chan protocol.Envelope

	Token  string
	UserID string
	Role   string
}

// NewSession initializes a session with configuration.
func NewSession(cfg config.ClientConfig) *Session {
	return &Session{
		cfg:    cfg,
		events: make(chan protocol.Envelope, 64),
	}
}

// Login exchanges credentials for a token at the server's login endpoint.
func (s *Session) Login(username, password string) error {
	body, err := json.Marshal(protocol.LoginRequest{Username: username, Password: password})
	if err != nil {
		return err
	}
	resp, err := http.Post(s.cfg.ServerURL+"/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login rejected (%d)", resp.StatusCode)
	}

	var login protocol.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return err
	}
	s.Token = login.Token
	s.UserID = login.UserID
	s.Role = login.Role
	return nil
}

// Connect dials the websocket endpoint, carrying the token when one was
// obtained, and starts pumping inbound envelopes.
func (s *Session) Connect() error {
	if s.conn != nil {
		return errors.New("already connected")
	}
	url := "ws" + strings.TrimPrefix(s.cfg.ServerURL, "http") + "/ws"
	if s.Token != "" {
		url += "?token=" + s.Token
	}
	dialer := &websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return err
	}
	s.conn = conn
	go s.readLoop()
	return nil
}

// Close terminates the websocket, if open.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Connected reports whether the websocket channel is up.
func (s *Session) Connected() bool {
	return s.conn != nil
}

// Emit dispatches an event envelope to the server.
func (s *Session) Emit(event protocol.EventName, payload interface{}) error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	return s.conn.WriteJSON(protocol.Envelope{
		ID:        uuid.NewString(),
		Event:     event,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// Events exposes the inbound envelope stream. The channel closes when the
// server goes away.
func (s *Session) Events() <-chan protocol.Envelope {
	return s.events
}

// Clients fetches the coach's assigned client roster.
func (s *Session) Clients() ([]RosterEntry, error) {
	req, err := http.NewRequest(http.MethodGet, s.cfg.ServerURL+"/clients", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roster unavailable (%d)", resp.StatusCode)
	}
	var entries []RosterEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// RosterEntry is one assigned client in the coach's roster.
type RosterEntry struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

func (s *Session) readLoop() {
	defer close(s.events)
	for {
		var env protocol.Envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			return
		}
		select {
		case s.events <- env:
		default:
		}
	}
}
