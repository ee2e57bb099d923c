package ws

import (
	"log"
	"sync"
)

// Hub is the presence registry: at most one live client per user id. It is
// shared mutable state touched by every connection handler and by the HTTP
// dispatch path, so all access goes through the mutex. Entries are process
// local; a restart drops all presence and clients re-join on reconnect.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register binds the client to the user id. Last join wins: a prior client
// for the same user is superseded and closed.
func (h *Hub) Register(userID string, c *Client) {
	h.mu.Lock()
	old := h.clients[userID]
	h.clients[userID] = c
	h.mu.Unlock()

	if old != nil && old != c {
		old.Close()
		log.Printf("ws: superseded connection for user %s", userID)
	}
}

// Unregister removes the user's presence entry, but only when it still
// points at c. A handle already superseded by a newer join is left alone.
func (h *Hub) Unregister(userID string, c *Client) {
	h.mu.Lock()
	if h.clients[userID] == c {
		delete(h.clients, userID)
	}
	h.mu.Unlock()
}

// Online reports whether the user currently has a live connection.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Push delivers a single event to the user's live connection, if any.
// Fire and forget: no ack, no retry, no queueing for offline users.
func (h *Hub) Push(userID, event string, payload any) bool {
	ev, err := NewEvent(event, payload)
	if err != nil {
		log.Printf("ws: encode %s for user %s: %v", event, userID, err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[userID]
	if !ok {
		return false
	}
	if !c.enqueue(ev) {
		log.Printf("ws: dropped %s for user %s (slow consumer)", event, userID)
		return false
	}
	return true
}
