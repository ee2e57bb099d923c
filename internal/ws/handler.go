package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"gramline/internal/domain"
	"gramline/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The join handshake, not the transport, attributes the connection to a
	// user, and mobile clients connect without an Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// MakeHandler returns the /ws endpoint. Connection lifecycle:
// upgrade -> unbound -> "join" binds a user id and registers presence ->
// transport drop unregisters. Inbound send-message events are dispatched
// with the self-declared sender even before join completes; only the
// receiver's presence matters for push.
func MakeHandler(hub *Hub, msgSvc *service.MessageService, persistTimeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client := newClient(conn)
		go client.writePump()

		// userID is owned by this goroutine; the hub keys presence on it.
		var userID string
		defer func() {
			if userID != "" {
				hub.Unregister(userID, client)
			}
			client.Close()
			conn.Close()
		}()

		conn.SetReadLimit(maxMessageSize)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("ws: read: %v", err)
				}
				return
			}

			var ev Event
			if err := json.Unmarshal(raw, &ev); err != nil {
				log.Printf("ws: bad frame from %q: %v", userID, err)
				continue
			}

			switch ev.Event {
			case EventJoin:
				var id string
				if err := json.Unmarshal(ev.Data, &id); err != nil || domain.ValidateUserID(id) != nil {
					log.Printf("ws: join with invalid user id")
					continue
				}
				if userID != "" && userID != id {
					hub.Unregister(userID, client)
				}
				userID = id
				hub.Register(userID, client)

			case EventSendMessage:
				var p sendMessagePayload
				if err := json.Unmarshal(ev.Data, &p); err != nil {
					log.Printf("ws: bad send-message payload from %q: %v", userID, err)
					continue
				}
				// Not derived from the request context: the connection
				// outlives any request deadline, and an expired deadline
				// would silently fail every persist for the rest of the
				// connection's life.
				ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
				_, err := msgSvc.Send(ctx, p.SenderID, p.ReceiverID, p.Text)
				cancel()
				if err != nil && !errors.Is(err, context.DeadlineExceeded) {
					log.Printf("ws: send-message from %q: %v", p.SenderID, err)
				} else if err != nil {
					log.Printf("ws: send-message from %q timed out", p.SenderID)
				}

			default:
				log.Printf("ws: unknown event %q from %q", ev.Event, userID)
			}
		}
	}
}
