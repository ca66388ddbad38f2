// internal/hub/broadcast.go
package hub

import (
	"encoding/json"
)

// broadcast delivers v to every open member except exclude. A failed delivery is
// logged and skipped. Caller holds r.mu, which keeps per-recipient order equal
// to the order of critical sections.
func (r *Room) broadcast(v any, exclude string) {
	payload, err := json.Marshal(v)
	if err != nil {
		r.logger.WithError(err).Error("Failed to marshal broadcast envelope")
		return
	}
	for _, id := range r.order {
		if id == exclude {
			continue
		}
		r.deliver(r.members[id], payload)
	}
}

// sendTo delivers v to a single member. Caller holds r.mu.
func (r *Room) sendTo(s *Session, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		r.logger.WithError(err).Error("Failed to marshal envelope")
		return
	}
	r.deliver(s, payload)
}

func (r *Room) deliver(s *Session, payload []byte) {
	if s == nil || !s.conn.Open() {
		return
	}
	if err := s.conn.Send(payload); err != nil {
		r.logger.WithField("client_id", s.ID).Warnf("Dropped frame for %s: %v", s.username, err)
	}
}

// sendDirect writes to a connection that has no room yet.
func (h *Hub) sendDirect(conn Sender, v any) {
	if conn == nil || !conn.Open() {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal envelope")
		return
	}
	if err := conn.Send(payload); err != nil {
		h.logger.Warnf("Dropped direct frame: %v", err)
	}
}
