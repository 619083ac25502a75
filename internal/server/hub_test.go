package server

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nowfit/chat/internal/protocol"
)

func TestRoomIDSymmetric(t *testing.T) {
	req := require.New(t)
	req.Equal(RoomID("coach1", "client9"), RoomID("client9", "coach1"))
	req.Equal("client9_coach1", RoomID("coach1", "client9"))
	req.Equal("a_a", RoomID("a", "a"))
}

func TestRoomIDDistinctPairsDoNotCollide(t *testing.T) {
	req := require.New(t)
	pairs := [][2]string{
		{"a", "b"},
		{"a", "c"},
		{"b", "c"},
		{"coach1", "client9"},
		{"coach1", "client10"},
	}
	seen := make(map[string][2]string)
	for _, pair := range pairs {
		id := RoomID(pair[0], pair[1])
		prev, dup := seen[id]
		req.Falsef(dup, "pair %v collides with %v", pair, prev)
		seen[id] = pair
	}
}

func TestValidIdentityRejectsSeparator(t *testing.T) {
	req := require.New(t)
	req.True(validIdentity("coach1"))
	req.False(validIdentity(""))
	req.False(validIdentity("a_b"))
}

func TestHubJoinIsIdempotent(t *testing.T) {
	req := require.New(t)
	hub := NewRoomHub()
	ch := make(chan protocol.Envelope, 4)
	hub.Attach("c1", ch)

	room := RoomID("a", "b")
	hub.Join(room, "c1")
	hub.Join(room, "c1")
	req.Equal([]string{"c1"}, hub.Members(room))

	hub.Broadcast(room, protocol.Envelope{Event: protocol.EventTyping})
	req.Len(ch, 1)
}

func TestHubBroadcastIncludesSenderAndExcludesOutsiders(t *testing.T) {
	req := require.New(t)
	hub := NewRoomHub()
	inside1 := make(chan protocol.Envelope, 4)
	inside2 := make(chan protocol.Envelope, 4)
	outside := make(chan protocol.Envelope, 4)
	hub.Attach("in1", inside1)
	hub.Attach("in2", inside2)
	hub.Attach("out", outside)

	room := RoomID("a", "b")
	hub.Join(room, "in1")
	hub.Join(room, "in2")

	hub.Broadcast(room, protocol.Envelope{Event: protocol.EventReceiveMessage})
	req.Len(inside1, 1)
	req.Len(inside2, 1)
	req.Empty(outside)
}

func TestHubDetachRemovesFromEveryRoom(t *testing.T) {
	req := require.New(t)
	hub := NewRoomHub()
	ch := make(chan protocol.Envelope, 4)
	hub.Attach("c1", ch)
	hub.Join(RoomID("a", "b"), "c1")
	hub.Join(RoomID("a", "c"), "c1")

	hub.Detach("c1")
	req.Empty(hub.Members(RoomID("a", "b")))
	req.Empty(hub.Members(RoomID("a", "c")))

	hub.BroadcastAll(protocol.Envelope{Event: protocol.EventOnlineStatus})
	req.Empty(ch)
}

func TestHubLeaveSingleRoom(t *testing.T) {
	req := require.New(t)
	hub := NewRoomHub()
	ch := make(chan protocol.Envelope, 4)
	hub.Attach("c1", ch)
	hub.Join(RoomID("a", "b"), "c1")
	hub.Join(RoomID("a", "c"), "c1")

	hub.Leave(RoomID("a", "b"), "c1")
	req.Empty(hub.Members(RoomID("a", "b")))
	req.Equal([]string{"c1"}, hub.Members(RoomID("a", "c")))

	// Leaving a room never joined is a no-op.
	hub.Leave(RoomID("x", "y"), "c1")
}

func TestHubJoinUnknownConnectionIsIgnored(t *testing.T) {
	hub := NewRoomHub()
	hub.Join(RoomID("a", "b"), "ghost")
	require.Empty(t, hub.Members(RoomID("a", "b")))
}
