package relay

import (
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radarjoki/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLoggerWithWriter(logger.LogLevelError, io.Discard)
}

// drainFrames returns every frame currently queued for the session.
func drainFrames(t *testing.T, s *Session) []Envelope {
	t.Helper()
	var frames []Envelope
	for {
		select {
		case raw := <-s.Outbound():
			var env Envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			frames = append(frames, env)
		default:
			return frames
		}
	}
}

func TestRegistryBroadcastReachesExactlyLiveSessions(t *testing.T) {
	r := NewRegistry(16, testLogger())

	a := r.Register()
	b := r.Register()
	c := r.Register()
	require.Equal(t, 3, r.Count())

	r.Unregister(b.ID)
	require.Equal(t, 2, r.Count())

	r.BroadcastAll("new_project", map[string]string{"id": "p1"})

	assert.Len(t, drainFrames(t, a), 1)
	assert.Len(t, drainFrames(t, b), 0, "unregistered session must not receive broadcasts")
	assert.Len(t, drainFrames(t, c), 1)
}

func TestRegistrySessionIDsAreUnique(t *testing.T) {
	r := NewRegistry(16, testLogger())

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := r.Register()
		assert.False(t, seen[s.ID], "duplicate session id %s", s.ID)
		seen[s.ID] = true
	}
}

func TestSendToOneMissingSessionIsNotAnError(t *testing.T) {
	r := NewRegistry(16, testLogger())

	assert.False(t, r.SendToOne("never-registered", EventError, ErrorPayload{Message: "x"}))

	s := r.Register()
	r.Unregister(s.ID)
	assert.False(t, r.SendToOne(s.ID, EventError, ErrorPayload{Message: "x"}))
}

func TestSendToOneDeliversToLiveSession(t *testing.T) {
	r := NewRegistry(16, testLogger())
	s := r.Register()

	require.True(t, r.SendToOne(s.ID, EventError, ErrorPayload{Message: "boom"}))

	frames := drainFrames(t, s)
	require.Len(t, frames, 1)
	assert.Equal(t, EventError, frames[0].Event)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(frames[0].Data, &payload))
	assert.Equal(t, "boom", payload.Message)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	r := NewRegistry(16, testLogger())
	s := r.Register()

	r.Unregister(s.ID)
	require.NotPanics(t, func() { r.Unregister(s.ID) })
	assert.Equal(t, 0, r.Count())

	select {
	case <-s.Done():
	default:
		t.Fatal("done channel should be closed after unregister")
	}
}

func TestBroadcastEvictsSlowConsumer(t *testing.T) {
	r := NewRegistry(1, testLogger())
	slow := r.Register()

	r.BroadcastAll("new_bid", map[string]int{"n": 1}) // fills the buffer
	r.BroadcastAll("new_bid", map[string]int{"n": 2}) // overflows, evicts

	// Eviction is asynchronous; wait for the done signal.
	<-slow.Done()
	assert.Equal(t, 0, r.Count())
}

func TestRegistryConcurrentChurnDuringBroadcast(t *testing.T) {
	r := NewRegistry(64, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s := r.Register()
				r.BroadcastAll(EventDiscordMessage, map[string]int{"j": j})
				r.Unregister(s.ID)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.Count(), "all sessions unregistered-and-not-ghosted")
}
