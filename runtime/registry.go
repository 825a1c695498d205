package runtime

import (
	"campus-assistant/contract"
	"campus-assistant/domain"
	"sync"
)

type Set map[string]struct{}

// Registry maps sessions to the connections currently displaying them.
// A session may be open in several tabs or terminals at once.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]contract.EventSink // map connection -> Sink
	sessions    map[domain.SessionID]Set      // map session to connections
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]contract.EventSink),
		sessions:    make(map[domain.SessionID]Set),
	}
}

// GetSinksForSession retrieves all active sinks of a session.
// Returns nil if nobody is connected.
func (r *Registry) GetSinksForSession(session domain.SessionID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.sessions[session]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for connectionID := range members {
		if sink, exists := r.connections[connectionID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Subscribe registers a connection and attaches it to a session.
func (r *Registry) Subscribe(connectionID string, session domain.SessionID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connections[connectionID] = sink

	if _, ok := r.sessions[session]; !ok {
		r.sessions[session] = make(Set)
	}
	r.sessions[session][connectionID] = struct{}{}
}

// Unsubscribe removes a connection. Sessions left without connections are
// dropped from the map.
func (r *Registry) Unsubscribe(connectionID string, session domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.connections, connectionID)

	if members, ok := r.sessions[session]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(r.sessions, session)
		}
	}
}

// Connections returns the number of live connections.
func (r *Registry) Connections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}
