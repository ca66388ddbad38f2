// internal/hub/hub.go
// The Hub owns the room registry and every live connection, and implements the
// join / leave / relay / special-status operations on top of them.
package hub

import (
	"context"
	"sync"
	"time"

	"github.com/erilali/roomrelay/internal/logger"
	"github.com/erilali/roomrelay/internal/names"
	"github.com/samber/lo"
)

const (
	defaultStatusDuration = 60 * time.Second
	defaultStatusLabel    = "Wildcard"
	defaultPingInterval   = 30 * time.Second
	defaultMaxFrameBytes  = 6 << 20
	defaultSendBuffer     = 256
)

// Options configures a Hub. Zero values fall back to defaults.
type Options struct {
	Names          *names.Allocator
	Rand           names.Source // picks the special-status holder
	StatusDuration time.Duration
	StatusLabel    string
	Publisher      Publisher
	Logger         *logger.Logger

	// ExcludeRequester keeps a special-status requester out of the draw.
	ExcludeRequester bool

	PingInterval  time.Duration
	MaxFrameBytes int64
	SendBuffer    int
}

// Hub is the room/session coordinator.
type Hub struct {
	registry         *Registry
	names            *names.Allocator
	rand             names.Source
	statusDuration   time.Duration
	statusLabel      string
	excludeRequester bool
	publisher        Publisher
	logger           *logger.Logger

	pingInterval  time.Duration
	maxFrameBytes int64
	sendBuffer    int

	mu           sync.Mutex
	clients      map[*Client]struct{}
	shuttingDown bool
	wg           sync.WaitGroup
	StartTime    time.Time
}

// NewHub creates a Hub with an empty registry.
func NewHub(opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Names == nil {
		opts.Names = names.Default(opts.Rand)
	}
	if opts.Rand == nil {
		opts.Rand = names.Global
	}
	if opts.StatusDuration <= 0 {
		opts.StatusDuration = defaultStatusDuration
	}
	if opts.StatusLabel == "" {
		opts.StatusLabel = defaultStatusLabel
	}
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	if opts.MaxFrameBytes <= 0 {
		opts.MaxFrameBytes = defaultMaxFrameBytes
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}

	return &Hub{
		registry:         NewRegistry(opts.Logger),
		names:            opts.Names,
		rand:             opts.Rand,
		statusDuration:   opts.StatusDuration,
		statusLabel:      opts.StatusLabel,
		excludeRequester: opts.ExcludeRequester,
		publisher:        opts.Publisher,
		logger:           opts.Logger,
		pingInterval:     opts.PingInterval,
		maxFrameBytes:    opts.MaxFrameBytes,
		sendBuffer:       opts.SendBuffer,
		clients:          make(map[*Client]struct{}),
		StartTime:        time.Now(),
	}
}

// MemberInfo describes one room member.
type MemberInfo struct {
	ClientID string    `json:"clientId"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}

// RoomInfo is a point-in-time view of one room.
type RoomInfo struct {
	Code                string       `json:"code"`
	CreatedAt           time.Time    `json:"createdAt"`
	Members             []MemberInfo `json:"members"`
	SpecialStatusActive bool         `json:"specialStatusActive"`
}

// Snapshot lists every live room. Each room is read under its own lock.
func (h *Hub) Snapshot() []RoomInfo {
	rooms := h.registry.Rooms()
	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		room.mu.Lock()
		if room.closed.Load() {
			room.mu.Unlock()
			continue
		}
		infos = append(infos, RoomInfo{
			Code:      room.Code,
			CreatedAt: room.CreatedAt,
			Members: lo.Map(room.order, func(id string, _ int) MemberInfo {
				s := room.members[id]
				return MemberInfo{ClientID: s.ID, Username: s.username, JoinedAt: s.JoinedAt}
			}),
			SpecialStatusActive: room.status.holder != "",
		})
		room.mu.Unlock()
	}
	return infos
}

// Stats reports room, session and connection counts.
func (h *Hub) Stats() map[string]int {
	infos := h.Snapshot()
	h.mu.Lock()
	connections := len(h.clients)
	h.mu.Unlock()
	return map[string]int{
		"rooms":       len(infos),
		"sessions":    lo.SumBy(infos, func(r RoomInfo) int { return len(r.Members) }),
		"connections": connections,
	}
}

// Users returns the display names in room code, in join order, or nil when the
// room does not exist.
func (h *Hub) Users(code string) []string {
	room := h.registry.Get(NormalizeCode(code))
	if room == nil {
		return nil
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.userList()
}

// track registers c unless shutdown has started. The wait group is only
// incremented under h.mu while the hub still accepts connections.
func (h *Hub) track(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.shuttingDown {
		return false
	}
	h.clients[c] = struct{}{}
	h.wg.Add(1)
	return true
}

// Accepting reports whether new connections are still admitted.
func (h *Hub) Accepting() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.shuttingDown
}

func (h *Hub) untrack(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	h.wg.Done()
}

// Shutdown closes every websocket connection, letting each run its disconnect
// cleanup, and waits for them to finish or for ctx to expire. Connections
// arriving after Shutdown starts are refused.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.shuttingDown = true
	clients := lo.Keys(h.clients)
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		h.logger.Infof("Hub stopped, %d connections closed", len(clients))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
