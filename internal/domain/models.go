package domain

import "time"

// User represents an application user. Only the fields the chat and
// notification paths need are modeled here; profile editing lives elsewhere.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	ProfileImage   string    `json:"profileImage,omitempty"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Chat is a two-party conversation. Its id is the canonical pair key of the
// participants (see PairKey), so at most one chat can exist per unordered
// pair and both sides derive the same id without a round trip.
type Chat struct {
	ID            string
	Participants  [2]string // sorted, Participants[0] < Participants[1]
	LastMessage   string    // text snapshot, empty until the first message
	LastMessageAt time.Time
	Unread        map[string]int // participant id -> unread messages
	CreatedAt     time.Time
}

// Message is a single chat message. Immutable once created.
type Message struct {
	ID         string
	ChatID     string
	SenderID   string
	ReceiverID string // may be empty on legacy records
	Text       string
	CreatedAt  time.Time
}

// NotificationType enumerates the social events that produce notifications.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationFollow:
		return true
	}
	return false
}

// Notification records a social event addressed to a single user.
type Notification struct {
	ID        string
	Type      NotificationType
	FromUser  string
	ToUser    string
	PostID    *string // set for like/comment, nil for follow
	CreatedAt time.Time
}

// Post is a collaborator entity: notifications reference posts and push
// payloads carry a snapshot of the post's public fields.
type Post struct {
	ID        string
	UserID    string
	Caption   string
	ImageURL  string
	VideoURL  string
	MediaType string
	CreatedAt time.Time
}

// WireTimeFormat is the timestamp layout used on the wire and in HTTP
// responses: UTC, millisecond precision, matching Date.toISOString().
const WireTimeFormat = "2006-01-02T15:04:05.000Z"

// FormatWireTime renders t in WireTimeFormat.
func FormatWireTime(t time.Time) string {
	return t.UTC().Format(WireTimeFormat)
}
