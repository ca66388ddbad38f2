package hub

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/erilali/roomrelay/internal/message"
	"github.com/erilali/roomrelay/internal/names"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abc", "ABC"},
		{"  room-1 ", "ROOM-1"},
		{"", DefaultRoomCode},
		{"   ", DefaultRoomCode},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCode(tt.in))
		})
	}
}

func TestEventSubject(t *testing.T) {
	tests := []struct {
		room, want string
	}{
		{"ABC", "rooms.ABC.joined"},
		{"A.B C*", "rooms.A_B_C_.joined"},
		{"CAFÉ>", "rooms.CAF__.joined"},
	}
	for _, tt := range tests {
		t.Run(tt.room, func(t *testing.T) {
			assert.Equal(t, tt.want, newEvent(EventJoined, tt.room).Subject())
		})
	}
}

func TestSnapshotAndStats(t *testing.T) {
	h, _ := newTestHub(t, withPick(0))
	alice, _ := mustJoin(t, h, "beta", "c1")
	mustJoin(t, h, "beta", "c2")
	mustJoin(t, h, "alpha", "c3")
	require.NoError(t, h.RequestSpecialStatus(alice))

	rooms := h.Snapshot()
	require.Len(t, rooms, 2)
	assert.Equal(t, "ALPHA", rooms[0].Code)
	assert.Equal(t, "BETA", rooms[1].Code)
	assert.False(t, rooms[0].SpecialStatusActive)
	assert.True(t, rooms[1].SpecialStatusActive)
	require.Len(t, rooms[1].Members, 2)
	assert.Equal(t, "c1", rooms[1].Members[0].ClientID)
	assert.Equal(t, "Wildcard", rooms[1].Members[0].Username)

	assert.Equal(t, map[string]int{"rooms": 2, "sessions": 3, "connections": 0}, h.Stats())
}

func TestNewHub_Defaults(t *testing.T) {
	h := NewHub(Options{})
	assert.Equal(t, defaultStatusDuration, h.statusDuration)
	assert.Equal(t, defaultStatusLabel, h.statusLabel)
	assert.Equal(t, defaultPingInterval, h.pingInterval)
	assert.Equal(t, int64(defaultMaxFrameBytes), h.maxFrameBytes)
	assert.Equal(t, defaultSendBuffer, h.sendBuffer)
	assert.False(t, h.excludeRequester)
	assert.NotNil(t, h.names)
	assert.NotNil(t, h.rand)
}

// Many clients join, talk, request status and leave across a few rooms at
// once. Afterwards every room must be gone and every invariant must have held.
func TestHub_ConcurrentLifecycle(t *testing.T) {
	h := NewHub(Options{
		Names:          names.Default(nil),
		StatusDuration: 2 * time.Millisecond,
		Publisher:      &recordingPublisher{},
	})

	const clients = 60
	rooms := []string{"red", "green", "blue", "GENERAL"}

	var wg sync.WaitGroup
	for i := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := &fakeConn{}
			c := h.NewConn(conn)
			id := fmt.Sprintf("client-%d", i)
			code := rooms[i%len(rooms)]

			h.HandleClientMessage(c, &message.JoinRoom{Code: code, ClientID: id})
			for j := range 5 {
				h.HandleClientMessage(c, &message.Text{ClientID: id, MessageID: fmt.Sprintf("%s-%d", id, j), Message: "hello"})
				if j%2 == 0 {
					h.HandleClientMessage(c, &message.StatusRequest{ClientID: id})
				}
			}
			if i%3 == 0 {
				h.HandleClientMessage(c, &message.LeaveRoom{ClientID: id})
			}
			h.Close(c)
		}()
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	for running := true; running; {
		select {
		case <-finished:
			running = false
		default:
			checkInvariants(t, h)
			time.Sleep(time.Millisecond)
		}
	}

	// Wait out any timer that was armed before its room closed.
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, h.registry.Len())
	assert.Empty(t, h.Snapshot())
	assert.Equal(t, 0, h.Stats()["sessions"])
}
