package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event names carried on the socket, matching the gateway.
const (
	eventJoin            = "join"
	eventSendMessage     = "send-message"
	eventReceiveMessage  = "receive-message"
	eventNewNotification = "new-notification"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type sendMessagePayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
}

// Connector maintains the socket to the realtime gateway: it joins as
// UserID on connect, routes pushes to the callbacks, and re-dials with the
// configured Backoff after every drop. The gateway never retries toward the
// device; reconnect is entirely the connector's job.
type Connector struct {
	// URL is the ws:// or wss:// endpoint.
	URL    string
	UserID string

	// Backoff defaults to Fixed{} (2s between attempts).
	Backoff Backoff
	Dialer  *websocket.Dialer

	OnMessage      func(Message)
	OnNotification func(Notification)
	// OnConnect fires after the join event is sent, once per (re)connect.
	OnConnect func()

	mu   sync.Mutex
	conn *websocket.Conn
}

// Run dials and reads until ctx is cancelled, reconnecting after every
// transport drop. It returns ctx.Err() on cancellation.
func (c *Connector) Run(ctx context.Context) error {
	backoff := c.Backoff
	if backoff == nil {
		backoff = Fixed{}
	}
	dialer := c.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		attempt++
		conn, _, err := dialer.DialContext(ctx, c.URL, nil)
		if err != nil {
			log.Printf("client: dial %s: %v", c.URL, err)
			if !sleep(ctx, backoff.Next(attempt)) {
				return ctx.Err()
			}
			continue
		}
		attempt = 0

		if err := c.handleConn(ctx, conn); err != nil {
			log.Printf("client: connection lost: %v", err)
		}
		if !sleep(ctx, backoff.Next(1)) {
			return ctx.Err()
		}
	}
}

// SendMessage fires a send-message event over the current connection.
func (c *Connector) SendMessage(receiverID, text string) error {
	payload, err := json.Marshal(sendMessagePayload{
		SenderID:   c.UserID,
		ReceiverID: receiverID,
		Text:       text,
	})
	if err != nil {
		return err
	}
	return c.write(envelope{Event: eventSendMessage, Data: payload})
}

func (c *Connector) handleConn(ctx context.Context, conn *websocket.Conn) error {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		conn.Close()
	}()

	// Close the transport when ctx ends so the read loop unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	id, err := json.Marshal(c.UserID)
	if err != nil {
		return err
	}
	if err := c.write(envelope{Event: eventJoin, Data: id}); err != nil {
		return err
	}
	if c.OnConnect != nil {
		c.OnConnect()
	}

	for {
		var ev envelope
		if err := conn.ReadJSON(&ev); err != nil {
			return err
		}
		switch ev.Event {
		case eventReceiveMessage:
			var msg Message
			if err := json.Unmarshal(ev.Data, &msg); err != nil {
				log.Printf("client: bad receive-message payload: %v", err)
				continue
			}
			if c.OnMessage != nil {
				c.OnMessage(msg)
			}
		case eventNewNotification:
			var n Notification
			if err := json.Unmarshal(ev.Data, &n); err != nil {
				log.Printf("client: bad new-notification payload: %v", err)
				continue
			}
			if c.OnNotification != nil {
				c.OnNotification(n)
			}
		default:
			log.Printf("client: unknown event %q", ev.Event)
		}
	}
}

// write serializes frames; gorilla permits one concurrent writer only.
func (c *Connector) write(ev envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
