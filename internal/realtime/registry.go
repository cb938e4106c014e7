package realtime

import "sync"

// Registry maps a user identifier to the identifier of their single live
// connection. A later registration for the same user overwrites the earlier
// one; there is no multi-device fan-out. Entries live only in memory, so every
// user appears offline after a process restart until they reconnect.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]string
	byConn map[string]string
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]string),
		byConn: make(map[string]string),
	}
}

// Set records connID as the live connection for userID, unconditionally
// replacing any prior entry for that user.
func (r *Registry) Set(userID, connID string) {
	if userID == "" || connID == "" {
		return
	}
	r.mu.Lock()
	if previous, ok := r.byUser[userID]; ok {
		delete(r.byConn, previous)
	}
	r.byUser[userID] = connID
	r.byConn[connID] = userID
	r.mu.Unlock()
}

// Get returns the live connection identifier for userID, if any.
func (r *Registry) Get(userID string) (string, bool) {
	r.mu.RLock()
	connID, ok := r.byUser[userID]
	r.mu.RUnlock()
	return connID, ok
}

// Remove clears whatever entry currently maps to connID. Disconnect events
// carry only the connection identifier, so removal is a reverse lookup. A
// stale disconnect must not evict a newer connection registered by the same
// user, hence the equality check on the forward entry.
func (r *Registry) Remove(connID string) {
	if connID == "" {
		return
	}
	r.mu.Lock()
	if userID, ok := r.byConn[connID]; ok {
		if current, ok := r.byUser[userID]; ok && current == connID {
			delete(r.byUser, userID)
		}
		delete(r.byConn, connID)
	}
	r.mu.Unlock()
}

// Len reports the number of registered users, primarily for observability.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
