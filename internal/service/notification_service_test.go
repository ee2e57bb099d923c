package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gramline/internal/domain"
	"gramline/internal/service"
)

func TestNotify(t *testing.T) {
	ctx := context.Background()

	t.Run("PersistsAndPushes", func(t *testing.T) {
		notifs := new(MockNotificationRepo)
		posts := new(MockPostRepo)
		users := new(MockUserRepo)
		pusher := &fakePusher{online: map[string]bool{"bob": true}}
		svc := service.NewNotificationService(notifs, posts, users, pusher)

		notifs.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.Type == domain.NotificationLike && n.FromUser == "alice" && n.ToUser == "bob" && n.ID != ""
		})).Return(nil)
		users.On("GetByID", mock.Anything, "alice").Return(&domain.User{ID: "alice", Username: "alice"}, nil)

		view, err := svc.Notify(ctx, domain.NotificationLike, "alice", "bob", nil)
		assert.NoError(t, err)
		assert.Equal(t, "like", view.Type)
		assert.Equal(t, "alice", view.FromUser.ID)
		assert.Nil(t, view.Post)

		if assert.Len(t, pusher.pushes, 1) {
			assert.Equal(t, "bob", pusher.pushes[0].userID)
			assert.Equal(t, service.EventNewNotification, pusher.pushes[0].event)
		}
		notifs.AssertExpectations(t)
	})

	t.Run("SelfNotifyIsSilentNoOp", func(t *testing.T) {
		notifs := new(MockNotificationRepo)
		pusher := &fakePusher{online: map[string]bool{"alice": true}}
		svc := service.NewNotificationService(notifs, new(MockPostRepo), new(MockUserRepo), pusher)

		view, err := svc.Notify(ctx, domain.NotificationLike, "alice", "alice", nil)
		assert.NoError(t, err)
		assert.Nil(t, view)
		assert.Empty(t, pusher.pushes)
		notifs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("UnknownType", func(t *testing.T) {
		notifs := new(MockNotificationRepo)
		svc := service.NewNotificationService(notifs, new(MockPostRepo), new(MockUserRepo), &fakePusher{})

		_, err := svc.Notify(ctx, "poke", "alice", "bob", nil)
		assert.ErrorIs(t, err, service.ErrUnknownNotificationType)
		notifs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("PostSnapshotResolvedAtPushTime", func(t *testing.T) {
		notifs := new(MockNotificationRepo)
		posts := new(MockPostRepo)
		users := new(MockUserRepo)
		svc := service.NewNotificationService(notifs, posts, users, &fakePusher{})

		postID := "p1"
		notifs.On("Create", mock.Anything, mock.Anything).Return(nil)
		users.On("GetByID", mock.Anything, "alice").Return(&domain.User{ID: "alice", Username: "alice"}, nil)
		users.On("GetByID", mock.Anything, "bob").Return(&domain.User{ID: "bob", Username: "bob"}, nil)
		posts.On("GetByID", mock.Anything, "p1").Return(&domain.Post{
			ID: "p1", Caption: "sunset", MediaType: "image", UserID: "bob", CreatedAt: time.Now().UTC(),
		}, nil)

		view, err := svc.Notify(ctx, domain.NotificationComment, "alice", "bob", &postID)
		assert.NoError(t, err)
		if assert.NotNil(t, view.Post) {
			assert.Equal(t, "sunset", view.Post.Caption)
		}
	})

	t.Run("DeletedPostDegrades", func(t *testing.T) {
		notifs := new(MockNotificationRepo)
		posts := new(MockPostRepo)
		users := new(MockUserRepo)
		svc := service.NewNotificationService(notifs, posts, users, &fakePusher{})

		postID := "gone"
		notifs.On("Create", mock.Anything, mock.Anything).Return(nil)
		users.On("GetByID", mock.Anything, "alice").Return(&domain.User{ID: "alice", Username: "alice"}, nil)
		posts.On("GetByID", mock.Anything, "gone").Return(nil, domain.ErrNotFound)

		view, err := svc.Notify(ctx, domain.NotificationLike, "alice", "bob", &postID)
		assert.NoError(t, err)
		assert.Nil(t, view.Post)
	})
}

func TestListForUser(t *testing.T) {
	ctx := context.Background()

	t.Run("CapsAtPageSize", func(t *testing.T) {
		notifs := new(MockNotificationRepo)
		users := new(MockUserRepo)
		svc := service.NewNotificationService(notifs, new(MockPostRepo), users, &fakePusher{})

		notifs.On("ListForUser", mock.Anything, "bob", service.NotificationPageSize).Return([]*domain.Notification{
			{ID: "n2", Type: domain.NotificationFollow, FromUser: "carol", ToUser: "bob", CreatedAt: time.Now().UTC()},
			{ID: "n1", Type: domain.NotificationLike, FromUser: "alice", ToUser: "bob", CreatedAt: time.Now().UTC().Add(-time.Hour)},
		}, nil)
		users.On("GetByID", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

		views, err := svc.ListForUser(ctx, "bob")
		assert.NoError(t, err)
		if assert.Len(t, views, 2) {
			assert.Equal(t, "n2", views[0].ID)
		}
		notifs.AssertExpectations(t)
	})
}
