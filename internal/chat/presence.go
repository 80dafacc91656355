package chat

import (
	"sync"

	"github.com/google/uuid"
)

// Registry maps a user to their active connection. It is the only shared
// mutable state on the realtime path; every access goes through the mutex.
//
// Single-device model: a later announce for the same user overwrites the
// earlier mapping. Clear matches by connection identity, so a slow close of
// a replaced connection never evicts the newer one.
type Registry struct {
	mu     sync.RWMutex
	online map[uuid.UUID]*Conn
}

func NewRegistry() *Registry {
	return &Registry{online: make(map[uuid.UUID]*Conn)}
}

func (r *Registry) SetOnline(userID uuid.UUID, conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online[userID] = conn
}

func (r *Registry) Lookup(userID uuid.UUID) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.online[userID]
	return conn, ok
}

// Clear removes every mapping whose value is this exact connection.
func (r *Registry) Clear(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, c := range r.online {
		if c == conn {
			delete(r.online, userID)
		}
	}
}

func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.online)
}
