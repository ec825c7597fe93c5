package relay

import (
	"sync"

	"github.com/radarjoki/backend/pkg/logger"
)

// Registry tracks the set of currently connected sessions and is the only
// component allowed to iterate it. One mutex guards the map; it is held for
// insert/remove/snapshot only, never across a network wait.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	sendBuffer int
	logger     *logger.Logger
}

// NewRegistry creates an empty registry. sendBuffer sizes each session's
// outbound queue.
func NewRegistry(sendBuffer int, log *logger.Logger) *Registry {
	return &Registry{
		sessions:   make(map[string]*Session),
		sendBuffer: sendBuffer,
		logger:     log.WithComponent("registry"),
	}
}

// Register allocates and stores a fresh session. It acquires no external
// resource and cannot fail.
func (r *Registry) Register() *Session {
	s := newSession(r.sendBuffer)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Debug("session registered", "session", s.ID)
	return s
}

// Unregister removes the session if present. Absent sessions are a no-op;
// disconnect events may race or double-fire.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()

	if ok {
		s.close()
		r.logger.Debug("session unregistered", "session", sessionID)
	}
}

// BroadcastAll sends the named event to every session registered at call
// time. The session set is snapshotted under the lock and delivery happens
// outside it: best-effort, at-most-once, no ordering guarantee relative to
// concurrent connect/disconnect. Sessions whose buffer is full are evicted
// as slow consumers.
func (r *Registry) BroadcastAll(event string, data any) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		r.logger.Error("dropping broadcast", "event", event, "error", err)
		return
	}

	r.mu.RLock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		snapshot = append(snapshot, s)
	}
	r.mu.RUnlock()

	for _, s := range snapshot {
		if !s.push(frame) {
			r.logger.Warn("session buffer full, evicting", "session", s.ID, "event", event)
			go r.Unregister(s.ID)
		}
	}
}

// SendToOne delivers the event to a single session. A false return means the
// session is gone or too slow; callers treat that as a normal best-effort
// miss, never a hard failure.
func (r *Registry) SendToOne(sessionID, event string, data any) bool {
	frame, err := encodeFrame(event, data)
	if err != nil {
		r.logger.Error("dropping send", "event", event, "error", err)
		return false
	}

	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if !ok {
		return false
	}
	return s.push(frame)
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
