package client

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gramline/internal/domain"
)

// reconcileWindow bounds the content-based fallback match between an
// optimistic local message and its server copy when the ids differ.
const reconcileWindow = 10 * time.Second

// typingDelay is how long the typing indicator survives the last keystroke.
const typingDelay = 3 * time.Second

// SyncState holds the device's view of the active conversation and the chat
// list. It is an optimistic mirror of server state: pushes update it
// immediately, and it may transiently diverge until the next full fetch.
type SyncState struct {
	mu sync.Mutex

	userID   string
	messages []Message
	chats    []Chat

	draft       string
	typing      bool
	typingTimer *time.Timer
}

func NewSyncState(userID string) *SyncState {
	return &SyncState{userID: userID}
}

// Messages returns a copy of the active conversation, oldest first.
func (s *SyncState) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Chats returns a copy of the chat list, most recent activity first.
func (s *SyncState) Chats() []Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Chat, len(s.chats))
	copy(out, s.chats)
	return out
}

// SetMessages replaces the conversation from a full fetch.
func (s *SyncState) SetMessages(msgs []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages[:0:0], msgs...)
	s.sortMessagesLocked()
}

// SetChats replaces the chat list from a full fetch.
func (s *SyncState) SetChats(chats []Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = append(s.chats[:0:0], chats...)
}

// ApplyIncoming merges a pushed or echoed message. Duplicates by id are
// dropped. A pending optimistic entry with the same sender and text inside
// reconcileWindow is replaced by the server copy, so a differing id does
// not surface the message twice. The matching chat's snapshot and the local
// unread counter follow along.
func (s *SyncState) ApplyIncoming(msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].ID == msg.ID {
			return false
		}
	}
	replaced := false
	for i := range s.messages {
		m := &s.messages[i]
		if m.Pending && m.SenderID == msg.SenderID && m.Text == msg.Text &&
			absDuration(msg.CreatedAt.Sub(m.CreatedAt)) <= reconcileWindow {
			*m = msg
			replaced = true
			break
		}
	}
	if !replaced {
		s.messages = append(s.messages, msg)
	}
	s.sortMessagesLocked()
	s.touchChatLocked(msg)
	return true
}

// ApplyOptimisticSend appends a local-only message with a client-generated
// id and clears the compose field. The server echo reconciles it later.
func (s *SyncState) ApplyOptimisticSend(receiverID, text string) (Message, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := Message{
		ID:         uuid.New().String(),
		ChatID:     domain.PairKey(s.userID, receiverID),
		SenderID:   s.userID,
		ReceiverID: receiverID,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
		Pending:    true,
	}
	s.messages = append(s.messages, msg)
	s.sortMessagesLocked()
	s.touchChatLocked(msg)
	s.draft = ""
	s.setTypingLocked(false)
	return msg, true
}

// SetDraft records the compose field and flips the typing indicator on,
// auto-clearing it typingDelay after the last keystroke. UI-only: nothing
// is sent to the peer.
func (s *SyncState) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
	s.setTypingLocked(text != "")
}

func (s *SyncState) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *SyncState) Typing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

// MarkChatRead zeroes the local unread counter for a chat, mirroring the
// server-side mark-read call.
func (s *SyncState) MarkChatRead(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			s.chats[i].UnreadCount = 0
			return
		}
	}
}

func (s *SyncState) setTypingLocked(on bool) {
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	s.typing = on
	if on {
		s.typingTimer = time.AfterFunc(typingDelay, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.typing = false
			s.typingTimer = nil
		})
	}
}

// touchChatLocked mirrors the server-side chat snapshot update: last
// message, last activity, unread when the current user is the receiver,
// and move-to-front ordering.
func (s *SyncState) touchChatLocked(msg Message) {
	for i := range s.chats {
		if s.chats[i].ID != msg.ChatID {
			continue
		}
		s.chats[i].LastMessage = msg.Text
		s.chats[i].LastMessageAt = msg.CreatedAt
		if msg.ReceiverID == s.userID && !msg.Pending {
			s.chats[i].UnreadCount++
		}
		chat := s.chats[i]
		copy(s.chats[1:i+1], s.chats[:i])
		s.chats[0] = chat
		return
	}
}

func (s *SyncState) sortMessagesLocked() {
	sort.SliceStable(s.messages, func(i, j int) bool {
		return s.messages[i].CreatedAt.Before(s.messages[j].CreatedAt)
	})
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
