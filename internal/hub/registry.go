// internal/hub/registry.go
// Room registry: lazily created rooms, removed as soon as their last member leaves.
package hub

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erilali/roomrelay/internal/logger"
	"github.com/samber/lo"
)

// DefaultRoomCode is used when a join carries no code.
const DefaultRoomCode = "GENERAL"

// NormalizeCode trims and uppercases a room code.
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultRoomCode
	}
	return code
}

// specialStatus is the per-room holder record. generation increases on every
// grant so a timer can tell whether the grant it was armed for is still current.
type specialStatus struct {
	holder     string
	original   string
	timer      *time.Timer
	generation uint64
}

// Room is one live room. mu serializes every read-modify-write on members,
// usernames and status; closed is set under mu when the last member leaves and
// never cleared.
type Room struct {
	Code      string
	CreatedAt time.Time

	mu        sync.Mutex
	members   map[string]*Session
	order     []string
	usernames map[string]string // reserved username -> session id
	status    specialStatus
	closed    atomic.Bool
	logger    *logger.Logger
}

func newRoom(code string, log *logger.Logger) *Room {
	return &Room{
		Code:      code,
		CreatedAt: time.Now(),
		members:   make(map[string]*Session),
		usernames: make(map[string]string),
		logger:    log.WithField("room", code),
	}
}

// addMember registers s and reserves its username. Caller holds r.mu.
func (r *Room) addMember(s *Session) {
	r.members[s.ID] = s
	r.order = append(r.order, s.ID)
	r.usernames[s.originalUsername] = s.ID
}

// removeMember drops the session and its reservation together. Caller holds r.mu.
func (r *Room) removeMember(id string) (*Session, bool) {
	s, ok := r.members[id]
	if !ok {
		return nil, false
	}
	delete(r.members, id)
	delete(r.usernames, s.originalUsername)
	r.order = lo.Without(r.order, id)
	return s, true
}

// userList returns display names in join order. Caller holds r.mu.
func (r *Room) userList() []string {
	return lo.Map(r.order, func(id string, _ int) string {
		return r.members[id].username
	})
}

// Registry maps room codes to live rooms.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	logger *logger.Logger
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		logger: log,
	}
}

// Ensure returns the live room for code, creating it when absent or when the
// mapped room has already closed. created reports whether a new room was made.
func (g *Registry) Ensure(code string) (room *Room, created bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if room, ok := g.rooms[code]; ok && !room.closed.Load() {
		return room, false
	}
	room = newRoom(code, g.logger)
	g.rooms[code] = room
	return room, true
}

// Get returns the live room for code, or nil.
func (g *Registry) Get(code string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[code]
	if !ok || room.closed.Load() {
		return nil
	}
	return room
}

// drop removes a closed room if it is still the one mapped under its code.
// Must be called without holding room.mu.
func (g *Registry) drop(room *Room) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if current, ok := g.rooms[room.Code]; ok && current == room {
		delete(g.rooms, room.Code)
		return true
	}
	return false
}

// Rooms returns the live rooms ordered by code.
func (g *Registry) Rooms() []*Room {
	g.mu.Lock()
	rooms := lo.Filter(lo.Values(g.rooms), func(r *Room, _ int) bool {
		return !r.closed.Load()
	})
	g.mu.Unlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Code < rooms[j].Code })
	return rooms
}

// Len returns the number of rooms currently mapped.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}
