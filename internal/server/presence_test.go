package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresenceRegisterAndLookup(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	_, superseded := presence.Register("u1", "c1")
	req.False(superseded)

	connID, ok := presence.Lookup("u1")
	req.True(ok)
	req.Equal("c1", connID)
	req.True(presence.Online("u1"))
}

func TestPresenceUnregisterMissIsNoOp(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	userID, ok := presence.Unregister("never-seen")
	req.False(ok)
	req.Empty(userID)
}

func TestPresenceLastRegistrationWins(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	presence.Register("u1", "c1")
	prev, superseded := presence.Register("u1", "c2")
	req.True(superseded)
	req.Equal("c1", prev)

	connID, ok := presence.Lookup("u1")
	req.True(ok)
	req.Equal("c2", connID)

	// The stale connection left no trace: its disconnect is a silent no-op
	// and must not take down the fresh registration.
	_, ok = presence.Unregister("c1")
	req.False(ok)
	req.True(presence.Online("u1"))
}

func TestPresenceReRegisterSameConnection(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	presence.Register("u1", "c1")
	prev, superseded := presence.Register("u1", "c1")
	req.False(superseded)
	req.Empty(prev)

	userID, ok := presence.Unregister("c1")
	req.True(ok)
	req.Equal("u1", userID)
	req.False(presence.Online("u1"))
}

func TestPresenceConnectionSwitchingIdentity(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	presence.Register("u1", "c1")
	presence.Register("u2", "c1")

	req.False(presence.Online("u1"))
	req.True(presence.Online("u2"))

	userID, ok := presence.Unregister("c1")
	req.True(ok)
	req.Equal("u2", userID)
}

func TestPresenceSnapshotAndClear(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	presence.Register("u1", "c1")
	presence.Register("u2", "c2")

	snapshot := presence.Snapshot()
	req.Equal(map[string]string{"u1": "c1", "u2": "c2"}, snapshot)

	// Mutating the snapshot must not leak into the registry.
	snapshot["u3"] = "c3"
	req.False(presence.Online("u3"))

	presence.Clear()
	req.Empty(presence.Snapshot())
}
