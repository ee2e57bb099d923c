package service

import (
	"context"
	"fmt"

	"gramline/internal/domain"
)

// ChatService manages chat lifecycle: lazy creation on first start-chat,
// listing with caller-scoped unread counts, and mark-read.
type ChatService struct {
	chats domain.ChatRepository
	users domain.UserRepository
}

func NewChatService(chats domain.ChatRepository, users domain.UserRepository) *ChatService {
	return &ChatService{
		chats: chats,
		users: users,
	}
}

// ParticipantView is the denormalized participant entry in chat responses.
type ParticipantView struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// ChatView is a chat as seen by one participant: the unread count is scoped
// to that participant.
type ChatView struct {
	ID            string            `json:"id"`
	Participants  []ParticipantView `json:"participants"`
	LastMessage   string            `json:"lastMessage"`
	LastMessageAt string            `json:"lastMessageAt"`
	UnreadCount   int               `json:"unreadCount"`
	CreatedAt     string            `json:"createdAt"`
}

// StartChat finds or creates the chat between the caller and receiverID.
// Idempotent: both argument orders resolve to the same chat. The created
// flag reports whether this call brought the chat into existence.
func (s *ChatService) StartChat(ctx context.Context, senderID, receiverID string) (*ChatView, bool, error) {
	if err := domain.ValidateUserID(senderID); err != nil {
		return nil, false, fmt.Errorf("sender: %w", err)
	}
	if err := domain.ValidateUserID(receiverID); err != nil {
		return nil, false, fmt.Errorf("receiver: %w", err)
	}
	if senderID == receiverID {
		return nil, false, domain.ErrSelfAction
	}

	// Both users must exist before a chat is created between them.
	for _, id := range []string{senderID, receiverID} {
		if _, err := s.users.GetByID(ctx, id); err != nil {
			return nil, false, fmt.Errorf("participant %s: %w", id, err)
		}
	}

	chat, created, err := s.chats.FindOrCreate(ctx, senderID, receiverID)
	if err != nil {
		return nil, false, fmt.Errorf("find or create chat: %w", err)
	}
	view, err := s.toChatView(ctx, chat, senderID)
	if err != nil {
		return nil, false, err
	}
	return view, created, nil
}

// ListChats returns the user's chats ordered by last activity, newest first,
// with unread counts scoped to that user.
func (s *ChatService) ListChats(ctx context.Context, userID string) ([]*ChatView, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	chats, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}

	views := make([]*ChatView, 0, len(chats))
	for _, chat := range chats {
		v, err := s.toChatView(ctx, chat, userID)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// MarkRead resets the user's unread counter for the chat. Idempotent.
func (s *ChatService) MarkRead(ctx context.Context, chatID, userID string) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}
	return s.chats.MarkRead(ctx, chatID, userID)
}

func (s *ChatService) toChatView(ctx context.Context, chat *domain.Chat, viewerID string) (*ChatView, error) {
	participants := make([]ParticipantView, 0, len(chat.Participants))
	for _, id := range chat.Participants {
		p := ParticipantView{ID: id, Username: id}
		if u, err := s.users.GetByID(ctx, id); err == nil {
			p.Username = u.Username
			p.ProfileImage = u.ProfileImage
		}
		participants = append(participants, p)
	}

	return &ChatView{
		ID:            chat.ID,
		Participants:  participants,
		LastMessage:   chat.LastMessage,
		LastMessageAt: domain.FormatWireTime(chat.LastMessageAt),
		UnreadCount:   chat.Unread[viewerID],
		CreatedAt:     domain.FormatWireTime(chat.CreatedAt),
	}, nil
}
