package ws

import "encoding/json"

// Event names carried on the socket, both directions.
const (
	EventJoin            = "join"
	EventSendMessage     = "send-message"
	EventReceiveMessage  = "receive-message"
	EventNewNotification = "new-notification"
)

// Event is the wire envelope for every socket frame.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewEvent wraps payload into an envelope with the given event name.
func NewEvent(name string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Event: name, Data: data}, nil
}

// sendMessagePayload is the inbound body of a send-message event. The sender
// is self-declared so a client may fire join and send-message back to back
// without waiting for the join to bind.
type sendMessagePayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
}
