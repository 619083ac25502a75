package server

import (
	"sort"
	"strings"
	"sync"

	"github.com/nowfit/chat/internal/protocol"
)

// roomSeparator joins the two participant ids into a room key. Identities
// containing it are rejected at registration so distinct pairs can never
// collide.
const roomSeparator = "_"

// RoomID derives the canonical room key for two participants. Symmetric by
// construction: RoomID(a, b) == RoomID(b, a).
func RoomID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, roomSeparator)
}

// validIdentity rejects ids that are empty or would corrupt a room key.
func validIdentity(id string) bool {
	return id != "" && !strings.Contains(id, roomSeparator)
}

// Broadcaster is the fan-out surface the dispatcher emits through. The
// in-process RoomHub is the only implementation; a pub/sub backed one is the
// extension point for running more than one server process.
type Broadcaster interface {
	Broadcast(room string, env protocol.Envelope)
	BroadcastAll(env protocol.Envelope)
}

// RoomHub tracks connection membership per room and dispatches envelopes.
type RoomHub struct {
	mu    sync.RWMutex
	conns map[string]chan protocol.Envelope
	rooms map[string]map[string]struct{}
}

// NewRoomHub initializes an empty hub.
func NewRoomHub() *RoomHub {
	return &RoomHub{
		conns: make(map[string]chan protocol.Envelope),
		rooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers a connection's outbound channel with the hub.
func (h *RoomHub) Attach(connID string, ch chan protocol.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[connID] = ch
}

// Detach removes the connection from the hub and from every room.
func (h *RoomHub) Detach(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
	for room, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Join subscribes the connection to the room. Joining twice has no
// additional effect.
func (h *RoomHub) Join(room, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[connID]; !ok {
		return
	}
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[string]struct{})
	}
	h.rooms[room][connID] = struct{}{}
}

// Leave removes the connection from the room if present.
func (h *RoomHub) Leave(room, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Members returns the connection ids currently subscribed to the room.
func (h *RoomHub) Members(room string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := make([]string, 0, len(h.rooms[room]))
	for connID := range h.rooms[room] {
		members = append(members, connID)
	}
	sort.Strings(members)
	return members
}

// Broadcast pushes the envelope to every subscriber of the room, the sender
// included. A subscriber with a full outbound queue misses the frame rather
// than stalling the hub.
func (h *RoomHub) Broadcast(room string, env protocol.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.rooms[room] {
		ch, ok := h.conns[connID]
		if !ok {
			continue
		}
		select {
		case ch <- env:
		default:
		}
	}
}

// BroadcastAll pushes the envelope to every attached connection.
func (h *RoomHub) BroadcastAll(env protocol.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.conns {
		select {
		case ch <- env:
		default:
		}
	}
}
