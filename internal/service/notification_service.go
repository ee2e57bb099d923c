package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"gramline/internal/domain"
)

// EventNewNotification is pushed to the recipient's live connection.
const EventNewNotification = "new-notification"

// NotificationPageSize caps notification retrieval.
const NotificationPageSize = 50

// ErrUnknownNotificationType rejects types outside like/comment/follow.
var ErrUnknownNotificationType = errors.New("unknown notification type")

// NotificationService persists social notifications and pushes them to
// online recipients. Same delivery philosophy as messages: push is best
// effort, offline recipients fetch on demand.
type NotificationService struct {
	notifications domain.NotificationRepository
	posts         domain.PostRepository
	users         domain.UserRepository
	presence      Pusher
}

func NewNotificationService(
	notifications domain.NotificationRepository,
	posts domain.PostRepository,
	users domain.UserRepository,
	presence Pusher,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		posts:         posts,
		users:         users,
		presence:      presence,
	}
}

// PostView is the snapshot of a post's public fields carried in
// notification payloads, resolved at push time rather than cached.
type PostView struct {
	ID        string           `json:"id"`
	ImageURL  string           `json:"imageUrl,omitempty"`
	VideoURL  string           `json:"videoUrl,omitempty"`
	Caption   string           `json:"caption"`
	MediaType string           `json:"mediaType"`
	Date      string           `json:"date"`
	UserID    *ParticipantView `json:"userId,omitempty"`
}

// NotificationView is the wire shape of a notification.
type NotificationView struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	FromUser  *ParticipantView `json:"fromUser"`
	Post      *PostView        `json:"post,omitempty"`
	CreatedAt string           `json:"createdAt"`
}

// Notify records a social event and pushes it when the recipient is online.
// A self-notification is silently dropped: (nil, nil), no persistence, no
// push.
func (s *NotificationService) Notify(ctx context.Context, typ domain.NotificationType, fromUser, toUser string, postID *string) (*NotificationView, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNotificationType, typ)
	}
	if err := domain.ValidateUserID(fromUser); err != nil {
		return nil, fmt.Errorf("fromUser: %w", err)
	}
	if err := domain.ValidateUserID(toUser); err != nil {
		return nil, fmt.Errorf("toUser: %w", err)
	}
	if fromUser == toUser {
		return nil, nil
	}

	n := &domain.Notification{
		ID:        uuid.New().String(),
		Type:      typ,
		FromUser:  fromUser,
		ToUser:    toUser,
		PostID:    postID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	view := s.toView(ctx, n)

	// Push only when the recipient is online; no retry, no queue.
	if s.presence.Push(toUser, EventNewNotification, view) {
		log.Printf("notification %s pushed to user %s", n.ID, toUser)
	}
	return view, nil
}

// ListForUser returns the newest notifications addressed to the user, at
// most NotificationPageSize of them.
func (s *NotificationService) ListForUser(ctx context.Context, userID string) ([]*NotificationView, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	ns, err := s.notifications.ListForUser(ctx, userID, NotificationPageSize)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	views := make([]*NotificationView, 0, len(ns))
	for _, n := range ns {
		views = append(views, s.toView(ctx, n))
	}
	return views, nil
}

// toView denormalizes the actor and referenced post. Lookups are best
// effort: a since-deleted post or user degrades the payload, it does not
// fail the notification.
func (s *NotificationService) toView(ctx context.Context, n *domain.Notification) *NotificationView {
	view := &NotificationView{
		ID:        n.ID,
		Type:      string(n.Type),
		FromUser:  &ParticipantView{ID: n.FromUser, Username: n.FromUser},
		CreatedAt: domain.FormatWireTime(n.CreatedAt),
	}
	if u, err := s.users.GetByID(ctx, n.FromUser); err == nil {
		view.FromUser.Username = u.Username
		view.FromUser.ProfileImage = u.ProfileImage
	}

	if n.PostID != nil {
		post, err := s.posts.GetByID(ctx, *n.PostID)
		if err != nil {
			log.Printf("notification %s: resolve post %s: %v", n.ID, *n.PostID, err)
			return view
		}
		pv := &PostView{
			ID:        post.ID,
			ImageURL:  post.ImageURL,
			VideoURL:  post.VideoURL,
			Caption:   post.Caption,
			MediaType: post.MediaType,
			Date:      domain.FormatWireTime(post.CreatedAt),
		}
		if author, err := s.users.GetByID(ctx, post.UserID); err == nil {
			pv.UserID = &ParticipantView{
				ID:           author.ID,
				Username:     author.Username,
				ProfileImage: author.ProfileImage,
			}
		}
		view.Post = pv
	}
	return view
}
