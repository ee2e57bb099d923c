package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"gramline/internal/domain"
)

// EventReceiveMessage is pushed to the receiver's live connection on send.
const EventReceiveMessage = "receive-message"

// MessageService orchestrates a send: persist the message under the
// canonical pair key, then best-effort push to the receiver. A message that
// persisted but could not be pushed is not an error; the receiver catches up
// on the next pull.
type MessageService struct {
	messages domain.MessageRepository
	presence Pusher
}

func NewMessageService(messages domain.MessageRepository, presence Pusher) *MessageService {
	return &MessageService{
		messages: messages,
		presence: presence,
	}
}

// MessageView is the wire shape of a message: ids as strings, createdAt as
// ISO-8601 with fractional seconds in UTC.
type MessageView struct {
	ID         string `json:"id"`
	ChatID     string `json:"chatId"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId,omitempty"`
	Text       string `json:"text"`
	CreatedAt  string `json:"createdAt"`
}

// DispatchResult reports the outcome of a send to its caller. Delivered only
// says whether a live push reached the receiver; the message is persisted
// either way.
type DispatchResult struct {
	Message   MessageView
	Delivered bool
}

// Send validates, persists, and pushes a direct message.
// Validation failures happen before any side effect; a failed push after a
// successful persist is not rolled back.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, text string) (*DispatchResult, error) {
	if err := domain.ValidateUserID(senderID); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if err := domain.ValidateUserID(receiverID); err != nil {
		return nil, fmt.Errorf("receiver: %w", err)
	}
	if senderID == receiverID {
		return nil, domain.ErrSelfAction
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyText
	}

	msg := &domain.Message{
		ID:         uuid.New().String(),
		ChatID:     domain.PairKey(senderID, receiverID),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	view := toMessageView(msg)
	delivered := s.presence.Push(receiverID, EventReceiveMessage, view)
	if delivered {
		log.Printf("message %s pushed to user %s", msg.ID, receiverID)
	}

	return &DispatchResult{Message: view, Delivered: delivered}, nil
}

// ListBetween returns the conversation between two users in non-decreasing
// CreatedAt order. The chat id is derived, so no chat lookup is needed.
func (s *MessageService) ListBetween(ctx context.Context, userID1, userID2 string) ([]MessageView, error) {
	if err := domain.ValidateUserID(userID1); err != nil {
		return nil, err
	}
	if err := domain.ValidateUserID(userID2); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListForChat(ctx, domain.PairKey(userID1, userID2))
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, toMessageView(m))
	}
	return views, nil
}

func toMessageView(m *domain.Message) MessageView {
	return MessageView{
		ID:         m.ID,
		ChatID:     m.ChatID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Text:       m.Text,
		CreatedAt:  domain.FormatWireTime(m.CreatedAt),
	}
}
