package service

// Pusher delivers a single fire-and-forget event to one user's live
// connection, if any. Implementations must be safe for concurrent use from
// HTTP handlers and socket handlers alike. The ws hub implements it.
type Pusher interface {
	Push(userID, event string, payload any) bool
}
