// internal/hub/messaging.go
package hub

import (
	"github.com/erilali/roomrelay/internal/logger"
	"github.com/erilali/roomrelay/internal/message"
	"github.com/google/uuid"
)

// Conn is the lifecycle state of one transport connection: Unjoined until a
// join succeeds, Joined while it has a session, Done after it leaves. Its
// methods are called from the connection's single reader, so it needs no lock.
type Conn struct {
	ID      string
	sender  Sender
	session *Session
	done    bool
	logger  *logger.Logger
}

// NewConn wraps a transport sender in a fresh Unjoined connection.
func (h *Hub) NewConn(sender Sender) *Conn {
	id := uuid.NewString()
	return &Conn{
		ID:     id,
		sender: sender,
		logger: h.logger.WithField("conn_id", id),
	}
}

// Session returns the connection's current session, or nil.
func (c *Conn) Session() *Session {
	return c.session
}

// HandleFrame decodes one inbound text frame and routes it. Malformed frames
// are logged and dropped; the connection stays open.
func (h *Hub) HandleFrame(c *Conn, frame []byte) {
	in, err := message.Decode(frame)
	if err != nil {
		c.logger.WithError(err).Warn("Dropping inbound frame")
		return
	}
	h.HandleClientMessage(c, in)
}

// HandleClientMessage routes a decoded envelope according to the connection's
// lifecycle state.
func (h *Hub) HandleClientMessage(c *Conn, in message.Inbound) {
	if join, ok := in.(*message.JoinRoom); ok {
		h.handleJoin(c, join)
		return
	}

	if c.session == nil {
		c.logger.Debugf("Dropping %s from unjoined connection", in.Kind())
		return
	}
	if sender := in.Sender(); sender != "" && sender != c.session.ID {
		c.logger.WithError(ErrClientMismatch).Warnf("Dropping %s claiming client %s", in.Kind(), sender)
		return
	}

	switch m := in.(type) {
	case *message.LeaveRoom:
		h.Leave(c.session, !m.PreventNotification)
		c.session = nil
		c.done = true
	case *message.StatusRequest:
		if err := h.RequestSpecialStatus(c.session); err != nil {
			c.logger.Debugf("Special status request refused: %v", err)
		}
	default:
		h.Relay(c.session, in)
	}
}

func (h *Hub) handleJoin(c *Conn, join *message.JoinRoom) {
	switch {
	case c.done:
		c.logger.WithError(ErrConnectionDone).Warn("Ignoring join on finished connection")
		return
	case c.session != nil:
		c.logger.WithError(ErrAlreadyJoined).Warnf("Ignoring join to %s", join.Code)
		return
	}

	s, err := h.Join(c.sender, join.Code, join.ClientID, join.PreventNotification)
	if err != nil {
		if isExhausted(err) {
			c.logger.Warnf("Join refused: %v", err)
		} else {
			c.logger.Errorf("Join failed: %v", err)
		}
		return
	}
	c.session = s
	c.logger = c.logger.WithField("client_id", s.ID)
}

// Close runs disconnect cleanup for the connection. Safe to call more than once.
func (h *Hub) Close(c *Conn) {
	if c.session != nil {
		h.Disconnect(c.session)
		c.session = nil
	}
	c.done = true
}
