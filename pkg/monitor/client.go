package monitor

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

// Liveness deadlines for viewer connections.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// readLimit bounds inbound traffic. Viewers never send data frames,
// so anything past pong-sized noise marks a broken client.
const readLimit = 512

// client is one viewer connection on a feed. The hub owns the out
// channel and closes it to disconnect; the write loop is the only
// goroutine touching the wire.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	out  chan Message
}

// Attach hands a fresh websocket connection to the hub and blocks
// until the viewer goes away. Call it from the websocket handler,
// which owns the connection lifetime.
func (h *Hub) Attach(conn *websocket.Conn) {
	c := &client{hub: h, conn: conn, out: make(chan Message, 256)}
	h.register <- c
	go c.writeLoop()
	c.readLoop()
}

// readLoop discards viewer input. It exists to surface disconnects
// and to rearm the read deadline on every pong.
func (c *client) readLoop() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop forwards hub messages and pings on a timer to keep the
// read deadline fed.
func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.out:
			if !ok {
				// Hub dropped us.
				c.write(websocket.CloseMessage, nil)
				return
			}
			kind := websocket.TextMessage
			if msg.Type == BinaryMessage {
				kind = websocket.BinaryMessage
			}
			if err := c.write(kind, msg.Data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) write(kind int, payload []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, payload)
}
