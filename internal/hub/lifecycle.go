// internal/hub/lifecycle.go
package hub

import (
	"errors"
	"fmt"
	"time"

	"github.com/erilali/roomrelay/internal/message"
	"github.com/erilali/roomrelay/internal/names"
)

// Join allocates a username for clientID in room code and registers the session.
// The joiner receives username-assigned, the room receives a fresh user-list,
// and unless quiet everyone else is told who joined. A refused join is reported
// to conn as a room-status message. A session already registered under clientID
// in the room is replaced.
func (h *Hub) Join(conn Sender, code, clientID string, quiet bool) (*Session, error) {
	code = NormalizeCode(code)

	for {
		room, created := h.registry.Ensure(code)
		room.mu.Lock()
		if room.closed.Load() {
			// Emptied between Ensure and Lock; the next Ensure replaces it.
			room.mu.Unlock()
			continue
		}

		var events []Event
		if created {
			events = append(events, newEvent(EventRoomCreated, code))
		}

		// A client id already in the room belongs to a connection that died
		// without leaving; the new join replaces it.
		var stale Sender
		if old, dup := room.members[clientID]; dup {
			stale = old.conn
			events = append(events, h.evictLocked(room, old)...)
		}

		username, err := h.names.Generate(func(name string) bool {
			_, reserved := room.usernames[name]
			return reserved || name == h.statusLabel
		})
		if err != nil {
			if stale != nil && len(room.members) > 0 {
				room.broadcast(message.NewUserList(room.userList()), "")
			}
			h.refuseJoinLocked(room, conn, "Room is full: no usernames left", events)
			closeSender(stale)
			return nil, fmt.Errorf("join %s: %w", code, err)
		}

		s := &Session{
			ID:               clientID,
			JoinedAt:         time.Now(),
			conn:             conn,
			room:             room,
			username:         username,
			originalUsername: username,
		}
		room.addMember(s)
		room.sendTo(s, message.NewUsernameAssigned(username))
		room.broadcast(message.NewUserList(room.userList()), "")
		if !quiet {
			room.broadcast(message.NewRoomStatus(fmt.Sprintf("%s joined room %s", username, code)), s.ID)
		}
		room.mu.Unlock()
		closeSender(stale)

		joined := newEvent(EventJoined, code)
		joined.ClientID = clientID
		joined.Username = username
		h.emit(append(events, joined))
		return s, nil
	}
}

// evictLocked removes a stale session without a departure notice, reverting its
// special status first. The caller broadcasts the updated user-list. Caller
// holds room.mu.
func (h *Hub) evictLocked(room *Room, old *Session) []Event {
	var events []Event
	if room.status.holder == old.ID {
		events = append(events, h.revertLocked(room))
	}
	old.left = true
	room.removeMember(old.ID)

	left := newEvent(EventLeft, room.Code)
	left.ClientID = old.ID
	left.Username = old.username
	h.logger.LogEvent("info", "session_replaced", room.Code, old.username, old.ID)
	return append(events, left)
}

// refuseJoinLocked tells conn why its join failed, closes the room if it is
// left empty, and releases room.mu. events already gathered by the join are
// emitted, followed by room-closed when the room goes away.
func (h *Hub) refuseJoinLocked(room *Room, conn Sender, reason string, events []Event) {
	empty := len(room.members) == 0
	if empty {
		room.closed.Store(true)
	}
	room.mu.Unlock()
	if empty && h.registry.drop(room) {
		events = append(events, newEvent(EventRoomClosed, room.Code))
	}
	h.sendDirect(conn, message.NewRoomStatus(reason))
	h.emit(events)
}

// closeSender drops a replaced session's transport. Its own disconnect cleanup
// then finds the session already gone.
func closeSender(conn Sender) {
	if conn != nil {
		conn.Close()
	}
}

// Leave removes s from its room. A held special status is reverted first. notify
// controls the "<name> left room" notice. Calling Leave again is a no-op.
func (h *Hub) Leave(s *Session, notify bool) {
	if s == nil || s.room == nil {
		return
	}
	room := s.room

	room.mu.Lock()
	if s.left {
		room.mu.Unlock()
		return
	}
	s.left = true

	var events []Event
	if room.status.holder == s.ID {
		events = append(events, h.revertLocked(room))
	}

	room.removeMember(s.ID)
	empty := len(room.members) == 0
	if empty {
		room.closed.Store(true)
	} else {
		if notify {
			room.broadcast(message.NewRoomStatus(fmt.Sprintf("%s left room %s", s.username, room.Code)), s.ID)
		}
		room.broadcast(message.NewUserList(room.userList()), "")
	}
	left := newEvent(EventLeft, room.Code)
	left.ClientID = s.ID
	left.Username = s.username
	events = append(events, left)
	room.mu.Unlock()

	if empty && h.registry.drop(room) {
		events = append(events, newEvent(EventRoomClosed, room.Code))
	}
	h.emit(events)
}

// Disconnect runs the cleanup for a transport-level close.
func (h *Hub) Disconnect(s *Session) {
	h.Leave(s, true)
}

// Relay forwards a content envelope from s to the rest of its room, stamped with
// s's current display name. Envelopes from sessions that are not in a room are
// dropped.
func (h *Hub) Relay(s *Session, in message.Inbound) {
	if s == nil || s.room == nil {
		return
	}
	room := s.room

	room.mu.Lock()
	defer room.mu.Unlock()
	if s.left {
		return
	}

	switch m := in.(type) {
	case *message.Text:
		room.broadcast(m.Echo(s.username), s.ID)
	case *message.Image:
		room.broadcast(m.Echo(s.username), s.ID)
	case *message.Voice:
		room.broadcast(m.Echo(s.username), s.ID)
	case *message.Reply:
		room.broadcast(m.Echo(s.username), s.ID)
	case *message.ReactionRequest:
		room.broadcast(m.Echo(s.username), s.ID)
	default:
		h.logger.Debugf("Relay ignoring %s envelope", in.Kind())
	}
}

// isExhausted reports whether err means the room ran out of usernames.
func isExhausted(err error) bool {
	return errors.Is(err, names.ErrNamespaceExhausted)
}
