package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client is one live socket connection. Outbound frames go through a
// buffered channel drained by writePump; pushes never block the caller.
type Client struct {
	conn *websocket.Conn
	send chan Event

	closeOnce sync.Once
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan Event, sendBuffer),
	}
}

// enqueue hands an event to the write pump. Returns false when the buffer is
// full; delivery is best effort either way. Callers must hold the hub lock
// so enqueue cannot race Close.
func (c *Client) enqueue(ev Event) bool {
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Close stops the write pump. Call only after the client has been removed
// from (or replaced in) the hub, so no push can still reach the channel.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// writePump serializes all writes to the connection and keeps it alive with
// protocol pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Printf("ws: write %s: %v", ev.Event, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
