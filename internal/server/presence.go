package server

import "sync"

// PresenceRegistry maps each user identity to its currently active
// connection. It is constructed per server instance and injected into the
// dispatcher; registration is last-one-wins, so a user reconnecting from a
// new connection silently supersedes the old mapping.
type PresenceRegistry struct {
	mu     sync.Mutex
	byUser map[string]string
	byConn map[string]string
}

// NewPresenceRegistry initializes an empty registry.
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		byUser: make(map[string]string),
		byConn: make(map[string]string),
	}
}

// Register binds userID to connID, overwriting any prior mapping for either
// side. It returns the superseded connection id, if a different connection
// previously spoke for this user, so the caller can evict it.
func (p *PresenceRegistry) Register(userID, connID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev, superseded := p.byUser[userID]
	if superseded && prev != connID {
		delete(p.byConn, prev)
	} else {
		prev, superseded = "", false
	}

	// A connection re-registering under a new identity releases the old one.
	if old, ok := p.byConn[connID]; ok && old != userID {
		delete(p.byUser, old)
	}

	p.byUser[userID] = connID
	p.byConn[connID] = userID
	return prev, superseded
}

// Unregister removes the entry owned by connID and returns the user it spoke
// for. A miss is not an error: the connection may never have registered, or
// may have been the stale side of a last-registration-wins overwrite.
func (p *PresenceRegistry) Unregister(connID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	userID, ok := p.byConn[connID]
	if !ok {
		return "", false
	}
	delete(p.byConn, connID)
	if p.byUser[userID] == connID {
		delete(p.byUser, userID)
	}
	return userID, true
}

// Lookup returns the connection currently registered for userID.
func (p *PresenceRegistry) Lookup(userID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	connID, ok := p.byUser[userID]
	return connID, ok
}

// Online reports whether userID has an active registration.
func (p *PresenceRegistry) Online(userID string) bool {
	_, ok := p.Lookup(userID)
	return ok
}

// Snapshot copies the current user-to-connection mapping.
func (p *PresenceRegistry) Snapshot() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot := make(map[string]string, len(p.byUser))
	for userID, connID := range p.byUser {
		snapshot[userID] = connID
	}
	return snapshot
}

// Clear drops every entry. Called on server teardown.
func (p *PresenceRegistry) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byUser = make(map[string]string)
	p.byConn = make(map[string]string)
}
