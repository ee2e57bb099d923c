// Package client is the device-side counterpart of the realtime gateway:
// a socket connector with reconnect, plus local sync state that mirrors
// chats and messages between pushes and full fetches.
package client

import "time"

// Message mirrors the receive-message wire payload. Pending marks a local
// optimistic entry not yet confirmed by the server.
type Message struct {
	ID         string    `json:"id"`
	ChatID     string    `json:"chatId"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId,omitempty"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`

	Pending bool `json:"-"`
}

type Participant struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage,omitempty"`
}

type Chat struct {
	ID            string        `json:"id"`
	Participants  []Participant `json:"participants"`
	LastMessage   string        `json:"lastMessage"`
	LastMessageAt time.Time     `json:"lastMessageAt"`
	UnreadCount   int           `json:"unreadCount"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type Post struct {
	ID        string       `json:"id"`
	ImageURL  string       `json:"imageUrl,omitempty"`
	VideoURL  string       `json:"videoUrl,omitempty"`
	Caption   string       `json:"caption"`
	MediaType string       `json:"mediaType"`
	Date      time.Time    `json:"date"`
	UserID    *Participant `json:"userId,omitempty"`
}

type Notification struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	FromUser  *Participant `json:"fromUser"`
	Post      *Post        `json:"post,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}
