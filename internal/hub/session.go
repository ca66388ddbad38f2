// internal/hub/session.go
package hub

import (
	"time"
)

// Sender is the outbound half of a transport connection. Send must not block:
// it either queues the frame or reports why it could not. Close drops the
// transport; the owner's disconnect cleanup still runs.
type Sender interface {
	Send(payload []byte) error
	Open() bool
	Close()
}

// Session is one connection's identity inside a room. The room pointer is fixed
// at join time; every other mutable field is guarded by that room's lock.
type Session struct {
	ID       string
	JoinedAt time.Time

	conn             Sender
	room             *Room
	username         string
	originalUsername string
	left             bool
}

// RoomCode returns the code of the room the session is in, or "" once it left.
func (s *Session) RoomCode() string {
	s.room.mu.Lock()
	defer s.room.mu.Unlock()
	if s.left {
		return ""
	}
	return s.room.Code
}

// Username returns the session's current display name.
func (s *Session) Username() string {
	s.room.mu.Lock()
	defer s.room.mu.Unlock()
	return s.username
}

// OriginalUsername returns the name assigned at join, regardless of any
// special status currently applied.
func (s *Session) OriginalUsername() string {
	s.room.mu.Lock()
	defer s.room.mu.Unlock()
	return s.originalUsername
}
