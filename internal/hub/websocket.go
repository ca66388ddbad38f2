// internal/hub/websocket.go
package hub

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const webSocketWriteDeadline = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The browser client is served from the same listener; any origin may connect.
		return true
	},
}

// ServeWs upgrades the HTTP connection to a websocket and starts its pumps.
// The connection starts Unjoined; the client must send join-room.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	if !h.Accepting() {
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade error: %v", err)
		return
	}

	client := newClient(conn, h.sendBuffer)
	client.state = h.NewConn(client)
	if !h.track(client) {
		// Shutdown started during the upgrade.
		client.Close()
		return
	}
	h.logger.LogEvent("debug", "client_connected", "", "", client.state.ID)

	go h.WritePump(client)
	go h.ReadPump(client)
}

// ReadPump reads frames in arrival order and dispatches them. When the socket
// fails or closes it runs the disconnect cleanup.
func (h *Hub) ReadPump(client *Client) {
	defer func() {
		h.Close(client.state)
		client.closeOutbox()
		client.conn.Close()
		h.untrack(client)
		h.logger.LogEvent("debug", "client_disconnected", "", "", client.state.ID)
	}()

	readDeadline := 2 * h.pingInterval
	client.conn.SetReadLimit(h.maxFrameBytes)
	client.conn.SetReadDeadline(time.Now().Add(readDeadline))
	client.conn.SetPongHandler(func(string) error {
		client.alive.Store(true)
		client.touch()
		return client.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		messageType, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				h.logger.LogEvent("warn", "read_error", "", "", err.Error())
			}
			return
		}
		client.touch()
		client.conn.SetReadDeadline(time.Now().Add(readDeadline))
		if messageType != websocket.TextMessage {
			continue
		}
		h.HandleFrame(client.state, data)
	}
}

// WritePump drains the outbox one frame per message and probes liveness. A
// client that has not answered the previous ping by the next tick is closed.
func (h *Hub) WritePump(client *Client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(webSocketWriteDeadline))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			if !client.alive.Swap(false) {
				h.logger.Infof("Terminating inactive client %s, last active %s ago",
					client.state.ID, time.Since(client.LastActive()).Round(time.Millisecond))
				return
			}
			client.conn.SetWriteDeadline(time.Now().Add(webSocketWriteDeadline))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
