package domain

import (
	"context"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// ChatRepository defines persistence operations for chats. Chats are keyed
// by the canonical pair key of their participants; the uniqueness of the
// unordered pair is enforced by that key.
type ChatRepository interface {
	// FindOrCreate returns the chat between the two users, creating it with
	// an empty last-message snapshot and zeroed unread counters when absent.
	// Idempotent and safe under concurrent callers; created reports whether
	// this call inserted the chat.
	FindOrCreate(ctx context.Context, userA, userB string) (chat *Chat, created bool, err error)
	GetByID(ctx context.Context, id string) (*Chat, error)
	// ListForUser returns the user's chats ordered by LastMessageAt descending.
	ListForUser(ctx context.Context, userID string) ([]*Chat, error)
	// MarkRead resets the user's unread counter for the chat. Idempotent.
	MarkRead(ctx context.Context, chatID, userID string) error
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	// Append inserts the message and, in the same transaction, updates the
	// chat's last-message snapshot and increments the receiver's unread
	// counter. No observer sees one without the other.
	Append(ctx context.Context, m *Message) error
	// ListForChat returns the chat's messages in non-decreasing CreatedAt order.
	ListForChat(ctx context.Context, chatID string) ([]*Message, error)
}

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	// ListForUser returns at most limit notifications addressed to the user,
	// newest first.
	ListForUser(ctx context.Context, toUser string, limit int) ([]*Notification, error)
}

// PostRepository exposes the post records notifications reference.
type PostRepository interface {
	Create(ctx context.Context, p *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)
}

// Repositories bundles the store implementations handed to the router.
type Repositories struct {
	Users         UserRepository
	Chats         ChatRepository
	Messages      MessageRepository
	Notifications NotificationRepository
	Posts         PostRepository
}
