// internal/hub/client.go
package hub

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection. It implements Sender over a buffered
// outbox drained by its write pump.
type Client struct {
	conn  *websocket.Conn
	state *Conn
	send  chan []byte

	mu     sync.Mutex
	closed bool

	// alive is cleared before each ping and set again by the pong handler.
	alive      atomic.Bool
	lastActive atomic.Int64
}

func newClient(conn *websocket.Conn, buffer int) *Client {
	c := &Client{
		conn: conn,
		send: make(chan []byte, buffer),
	}
	c.alive.Store(true)
	c.touch()
	return c
}

// Send queues payload without blocking.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrOutboxFull
	}
}

// Open reports whether the outbox still accepts frames.
func (c *Client) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// LastActive is the time of the last frame or pong received.
func (c *Client) LastActive() time.Time {
	return time.Unix(0, c.lastActive.Load())
}

func (c *Client) touch() {
	c.lastActive.Store(time.Now().UnixNano())
}

// closeOutbox stops accepting frames and lets the write pump finish.
func (c *Client) closeOutbox() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Close sends a going-away close frame and drops the socket, which ends the
// read pump and so runs disconnect cleanup. Safe to call more than once.
func (c *Client) Close() {
	deadline := time.Now().Add(time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "connection closed by server"), deadline)
	_ = c.conn.Close()
}
