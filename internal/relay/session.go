package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one live realtime connection. Sessions are owned exclusively by
// the Registry; everything else refers to them by ID.
type Session struct {
	ID          string
	ConnectedAt time.Time

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newSession(buffer int) *Session {
	if buffer <= 0 {
		buffer = 256
	}
	return &Session{
		ID:          uuid.New().String(),
		ConnectedAt: time.Now(),
		send:        make(chan []byte, buffer),
		done:        make(chan struct{}),
	}
}

// Outbound returns the channel the transport write pump drains.
func (s *Session) Outbound() <-chan []byte {
	return s.send
}

// Done is closed when the session is unregistered.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// close is idempotent; unregister may race or double-fire.
func (s *Session) close() {
	s.once.Do(func() { close(s.done) })
}

// push queues a frame without blocking. Returns false when the buffer is
// full, which marks the session as a slow consumer.
func (s *Session) push(frame []byte) bool {
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}
