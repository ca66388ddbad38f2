// internal/hub/status.go
// Special status: one randomly chosen member per room is renamed for a fixed
// duration, then restored.
package hub

import (
	"fmt"
	"time"

	"github.com/erilali/roomrelay/internal/message"
	"github.com/samber/lo"
)

const (
	statusHeldNotice     = "Another user already holds special status in this room"
	statusNoOtherNotice  = "Nobody else is in the room to receive special status"
	statusNotJoinedError = "special status requested outside a room"
)

// RequestSpecialStatus grants the room's special status to a random member when
// nobody holds it. The requester is told with a room-status notice when the
// status is already held or when no member is eligible.
func (h *Hub) RequestSpecialStatus(s *Session) error {
	if s == nil || s.room == nil {
		return fmt.Errorf("%s: %w", statusNotJoinedError, ErrNotJoined)
	}
	room := s.room

	room.mu.Lock()
	if s.left {
		room.mu.Unlock()
		return fmt.Errorf("%s: %w", statusNotJoinedError, ErrNotJoined)
	}
	if room.status.holder != "" {
		name := s.username
		room.sendTo(s, message.NewRoomStatus(statusHeldNotice))
		room.mu.Unlock()
		h.logger.LogEvent("debug", "special_status_rejected", room.Code, name, "already held")
		return fmt.Errorf("room %s: %w", room.Code, ErrStatusActive)
	}

	candidates := room.order
	if h.excludeRequester {
		candidates = lo.Without(room.order, s.ID)
	}
	if len(candidates) == 0 {
		room.sendTo(s, message.NewRoomStatus(statusNoOtherNotice))
		room.mu.Unlock()
		return fmt.Errorf("room %s: %w", room.Code, ErrNoCandidate)
	}

	target := room.members[candidates[h.rand.IntN(len(candidates))]]
	original := target.username
	target.originalUsername = original
	target.username = h.statusLabel

	room.status.generation++
	generation := room.status.generation
	room.status.holder = target.ID
	room.status.original = original
	room.status.timer = time.AfterFunc(h.statusDuration, func() {
		h.expireStatus(room, target.ID, generation)
	})

	room.broadcast(message.NewStatusGrant(target.ID, original), "")
	room.broadcast(message.NewUserList(room.userList()), "")

	grant := newEvent(EventStatusGrant, room.Code)
	grant.ClientID = target.ID
	grant.Username = h.statusLabel
	grant.OriginalUsername = original
	room.mu.Unlock()

	h.emit([]Event{grant})
	return nil
}

// expireStatus is the revert timer body. It acts only if the room is still live
// and the grant it was armed for is still the current one.
func (h *Hub) expireStatus(room *Room, holderID string, generation uint64) {
	room.mu.Lock()
	if room.closed.Load() || room.status.holder != holderID || room.status.generation != generation {
		room.mu.Unlock()
		h.logger.LogEvent("debug", "special_status_timer_stale", room.Code, "", holderID)
		return
	}
	revert := h.revertLocked(room)
	room.mu.Unlock()

	h.emit([]Event{revert})
}

// revertLocked ends the active special status: stops the timer, restores the
// holder's original name and announces it. Caller holds room.mu and has checked
// that a holder is set.
func (h *Hub) revertLocked(room *Room) Event {
	st := room.status
	if st.timer != nil {
		st.timer.Stop()
	}
	if holder, ok := room.members[st.holder]; ok {
		holder.username = st.original
		holder.originalUsername = st.original
	}
	room.status = specialStatus{generation: st.generation}

	room.broadcast(message.NewStatusRevert(st.holder, st.original), "")
	room.broadcast(message.NewUserList(room.userList()), "")

	revert := newEvent(EventStatusRevert, room.Code)
	revert.ClientID = st.holder
	revert.OriginalUsername = st.original
	return revert
}

// SpecialStatusHolder returns the client id holding special status in room
// code, or "".
func (h *Hub) SpecialStatusHolder(code string) string {
	room := h.registry.Get(NormalizeCode(code))
	if room == nil {
		return ""
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.status.holder
}
