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

func TestSend(t *testing.T) {
	ctx := context.Background()

	t.Run("PersistsAndPushesToOnlineReceiver", func(t *testing.T) {
		repo := new(MockMessageRepo)
		pusher := &fakePusher{online: map[string]bool{"bob": true}}
		svc := service.NewMessageService(repo, pusher)

		repo.On("Append", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
			return m.ChatID == "alice_bob" && m.SenderID == "alice" &&
				m.ReceiverID == "bob" && m.Text == "hello" && m.ID != ""
		})).Return(nil)

		res, err := svc.Send(ctx, "alice", "bob", "hello")
		assert.NoError(t, err)
		assert.True(t, res.Delivered)
		assert.Equal(t, "alice_bob", res.Message.ChatID)
		assert.Equal(t, "hello", res.Message.Text)

		if assert.Len(t, pusher.pushes, 1) {
			assert.Equal(t, "bob", pusher.pushes[0].userID)
			assert.Equal(t, service.EventReceiveMessage, pusher.pushes[0].event)
		}
		repo.AssertExpectations(t)
	})

	t.Run("OfflineReceiverStillPersists", func(t *testing.T) {
		repo := new(MockMessageRepo)
		pusher := &fakePusher{}
		svc := service.NewMessageService(repo, pusher)

		repo.On("Append", mock.Anything, mock.Anything).Return(nil)

		res, err := svc.Send(ctx, "alice", "bob", "hello")
		assert.NoError(t, err)
		assert.False(t, res.Delivered)
		repo.AssertExpectations(t)
	})

	t.Run("TrimsText", func(t *testing.T) {
		repo := new(MockMessageRepo)
		svc := service.NewMessageService(repo, &fakePusher{})

		repo.On("Append", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
			return m.Text == "hi"
		})).Return(nil)

		res, err := svc.Send(ctx, "alice", "bob", "  hi  ")
		assert.NoError(t, err)
		assert.Equal(t, "hi", res.Message.Text)
	})

	t.Run("EmptyTextRejectedBeforePersist", func(t *testing.T) {
		repo := new(MockMessageRepo)
		svc := service.NewMessageService(repo, &fakePusher{})

		_, err := svc.Send(ctx, "alice", "bob", "   ")
		assert.ErrorIs(t, err, domain.ErrEmptyText)
		repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("SelfSendRejected", func(t *testing.T) {
		repo := new(MockMessageRepo)
		svc := service.NewMessageService(repo, &fakePusher{})

		_, err := svc.Send(ctx, "alice", "alice", "hi me")
		assert.ErrorIs(t, err, domain.ErrSelfAction)
		repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("InvalidParticipant", func(t *testing.T) {
		repo := new(MockMessageRepo)
		svc := service.NewMessageService(repo, &fakePusher{})

		_, err := svc.Send(ctx, "", "bob", "hi")
		assert.ErrorIs(t, err, domain.ErrInvalidParticipant)

		_, err = svc.Send(ctx, "alice", "has_underscore", "hi")
		assert.ErrorIs(t, err, domain.ErrInvalidParticipant)
		repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("PersistFailureIsNotPushed", func(t *testing.T) {
		repo := new(MockMessageRepo)
		pusher := &fakePusher{online: map[string]bool{"bob": true}}
		svc := service.NewMessageService(repo, pusher)

		repo.On("Append", mock.Anything, mock.Anything).Return(assert.AnError)

		_, err := svc.Send(ctx, "alice", "bob", "hello")
		assert.Error(t, err)
		assert.Empty(t, pusher.pushes)
	})
}

func TestListBetween(t *testing.T) {
	ctx := context.Background()

	t.Run("DerivesChatIDFromEitherOrder", func(t *testing.T) {
		repo := new(MockMessageRepo)
		svc := service.NewMessageService(repo, &fakePusher{})

		now := time.Now().UTC()
		repo.On("ListForChat", mock.Anything, "alice_bob").Return([]*domain.Message{
			{ID: "m1", ChatID: "alice_bob", SenderID: "alice", ReceiverID: "bob", Text: "hi", CreatedAt: now},
		}, nil).Twice()

		for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
			msgs, err := svc.ListBetween(ctx, pair[0], pair[1])
			assert.NoError(t, err)
			if assert.Len(t, msgs, 1) {
				assert.Equal(t, "m1", msgs[0].ID)
			}
		}
		repo.AssertExpectations(t)
	})

	t.Run("EmptyChat", func(t *testing.T) {
		repo := new(MockMessageRepo)
		svc := service.NewMessageService(repo, &fakePusher{})

		repo.On("ListForChat", mock.Anything, "alice_bob").Return([]*domain.Message{}, nil)

		msgs, err := svc.ListBetween(ctx, "alice", "bob")
		assert.NoError(t, err)
		assert.Empty(t, msgs)
	})
}
