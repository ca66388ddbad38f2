package hub

import (
	"encoding/json"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/erilali/roomrelay/internal/names"
	"github.com/stretchr/testify/require"
)

// fakeConn records every frame sent to it.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (f *fakeConn) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrConnectionClosed
	}
	f.frames = append(f.frames, append([]byte(nil), payload...))
	return nil
}

func (f *fakeConn) Open() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) envelopes(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, frame := range f.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(frame, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeConn) types(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, m := range f.envelopes(t) {
		out = append(out, m["type"].(string))
	}
	return out
}

func (f *fakeConn) ofType(t *testing.T, kind string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, m := range f.envelopes(t) {
		if m["type"] == kind {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeConn) last(t *testing.T, kind string) map[string]any {
	t.Helper()
	all := f.ofType(t, kind)
	require.NotEmpty(t, all, "no %s frame", kind)
	return all[len(all)-1]
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	f.frames = nil
	f.mu.Unlock()
}

func (f *fakeConn) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func users(t *testing.T, m map[string]any) []string {
	t.Helper()
	raw, ok := m["users"].([]any)
	require.True(t, ok, "users field missing: %v", m)
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		out = append(out, u.(string))
	}
	return out
}

// recordingPublisher keeps every mirrored event.
type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []Event
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	p.mu.Lock()
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, e)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) count(kind string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Event == kind {
			n++
		}
	}
	return n
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event)
	}
	return out
}

// pick always chooses index i (modulo n).
type pick struct{ i int }

func (p pick) IntN(n int) int { return p.i % n }

type hubOption func(*Options)

func withStatus(d time.Duration) hubOption {
	return func(o *Options) { o.StatusDuration = d }
}

func withPick(i int) hubOption {
	return func(o *Options) { o.Rand = pick{i} }
}

func withAllocator(a *names.Allocator) hubOption {
	return func(o *Options) { o.Names = a }
}

func excludingRequester() hubOption {
	return func(o *Options) { o.ExcludeRequester = true }
}

func newTestHub(t *testing.T, opts ...hubOption) (*Hub, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	o := Options{
		Names:     names.Default(rand.New(rand.NewPCG(1, 2))),
		Rand:      pick{0},
		Publisher: pub,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return NewHub(o), pub
}

func mustJoin(t *testing.T, h *Hub, code, clientID string) (*Session, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	s, err := h.Join(conn, code, clientID, false)
	require.NoError(t, err)
	return s, conn
}

// checkInvariants verifies every live room: usernames unique and reserved,
// at most one special-status holder, and the holder carries the label.
func checkInvariants(t *testing.T, h *Hub) {
	t.Helper()
	for _, room := range h.registry.Rooms() {
		room.mu.Lock()
		if room.closed.Load() {
			room.mu.Unlock()
			continue
		}
		require.NotEmpty(t, room.members, "live room %s is empty", room.Code)
		require.Len(t, room.order, len(room.members))
		require.Len(t, room.usernames, len(room.members))

		seen := make(map[string]bool)
		for _, id := range room.order {
			s := room.members[id]
			require.NotNil(t, s)
			require.False(t, seen[s.username], "duplicate username %s in %s", s.username, room.Code)
			seen[s.username] = true
			require.Equal(t, id, room.usernames[s.originalUsername])
			if id == room.status.holder {
				require.Equal(t, h.statusLabel, s.username)
			} else {
				require.Equal(t, s.originalUsername, s.username)
			}
		}
		if room.status.holder != "" {
			require.Contains(t, room.members, room.status.holder)
		}
		room.mu.Unlock()
	}
}
