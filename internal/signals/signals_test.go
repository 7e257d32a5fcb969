package signals

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"duet/internal/logging"
	"duet/internal/mocks"
	"duet/internal/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newCoordinator(t *testing.T) (*Coordinator, *mocks.MockReadStore, *mocks.MockSignalBroadcaster) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockReadStore(ctrl)
	hub := mocks.NewMockSignalBroadcaster(ctrl)
	return New(store, hub, logging.Discard()), store, hub
}

func typingEvent(senderID string) models.ServerEvent {
	return models.ServerEvent{Event: models.EventTyping, Data: senderID}
}

func stopTypingEvent(senderID string) models.ServerEvent {
	return models.ServerEvent{Event: models.EventStopTyping, Data: senderID}
}

func TestCoordinator_Typing(t *testing.T) {
	t.Run("should notify only the receiver", func(t *testing.T) {
		req := require.New(t)
		c, _, hub := newCoordinator(t)

		hub.EXPECT().BroadcastToUser("bob", typingEvent("alice"))

		req.NoError(c.Typing("alice", "bob"))
		sender, ok := c.TypingTo("bob")
		req.True(ok)
		req.Equal("alice", sender)
	})

	t.Run("should keep one typist per receiver", func(t *testing.T) {
		req := require.New(t)
		c, _, hub := newCoordinator(t)

		hub.EXPECT().BroadcastToUser("bob", typingEvent("alice"))
		hub.EXPECT().BroadcastToUser("bob", typingEvent("carol"))
		hub.EXPECT().BroadcastToUser("bob", stopTypingEvent("alice"))

		req.NoError(c.Typing("alice", "bob"))
		req.NoError(c.Typing("carol", "bob"))

		// A stale stop from alice must not clear carol.
		req.NoError(c.StopTyping("alice", "bob"))
		sender, ok := c.TypingTo("bob")
		req.True(ok)
		req.Equal("carol", sender)
	})

	t.Run("should clear on stop", func(t *testing.T) {
		req := require.New(t)
		c, _, hub := newCoordinator(t)

		hub.EXPECT().BroadcastToUser("bob", typingEvent("alice"))
		hub.EXPECT().BroadcastToUser("bob", stopTypingEvent("alice"))

		req.NoError(c.Typing("alice", "bob"))
		req.NoError(c.StopTyping("alice", "bob"))
		_, ok := c.TypingTo("bob")
		req.False(ok)
	})

	t.Run("should reject typing to yourself", func(t *testing.T) {
		req := require.New(t)
		c, _, hub := newCoordinator(t)

		hub.EXPECT().BroadcastToUser(gomock.Any(), gomock.Any()).Times(0)

		req.ErrorIs(c.Typing("alice", "alice"), models.ErrValidation)
		req.ErrorIs(c.StopTyping("alice", ""), models.ErrValidation)
	})

	t.Run("Reset is silent", func(t *testing.T) {
		req := require.New(t)
		c, _, hub := newCoordinator(t)

		hub.EXPECT().BroadcastToUser("bob", typingEvent("alice"))

		req.NoError(c.Typing("alice", "bob"))
		c.Reset("alice", "bob")
		c.Reset("carol", "dave")
		_, ok := c.TypingTo("bob")
		req.False(ok)
	})
}

func TestCoordinator_ClearTypist(t *testing.T) {
	req := require.New(t)
	c, _, hub := newCoordinator(t)

	hub.EXPECT().BroadcastToUser("bob", typingEvent("alice"))
	hub.EXPECT().BroadcastToUser("carol", typingEvent("alice"))
	hub.EXPECT().BroadcastToUser("alice", typingEvent("bob"))

	req.NoError(c.Typing("alice", "bob"))
	req.NoError(c.Typing("alice", "carol"))
	req.NoError(c.Typing("bob", "alice"))

	hub.EXPECT().BroadcastToUser("bob", stopTypingEvent("alice"))
	hub.EXPECT().BroadcastToUser("carol", stopTypingEvent("alice"))

	c.ClearTypist("alice")

	_, ok := c.TypingTo("bob")
	req.False(ok)
	_, ok = c.TypingTo("carol")
	req.False(ok)
	sender, ok := c.TypingTo("alice")
	req.True(ok)
	req.Equal("bob", sender)

	// Nothing left for alice.
	c.ClearTypist("alice")
}

func TestCoordinator_MarkRead(t *testing.T) {
	ctx := context.Background()

	t.Run("should mark the peer's messages and announce to everyone", func(t *testing.T) {
		req := require.New(t)
		c, store, hub := newCoordinator(t)

		gomock.InOrder(
			store.EXPECT().MarkSeen(gomock.Any(), "alice", "bob").Return(2, nil),
			hub.EXPECT().BroadcastAll(models.ServerEvent{Event: models.EventReadMessage, Data: "bob"}),
		)

		updated, err := c.MarkRead(ctx, "bob", "alice")
		req.NoError(err)
		req.Equal(2, updated)
	})

	t.Run("should announce even when nothing changed", func(t *testing.T) {
		req := require.New(t)
		c, store, hub := newCoordinator(t)

		store.EXPECT().MarkSeen(gomock.Any(), "alice", "bob").Return(0, nil)
		hub.EXPECT().BroadcastAll(models.ServerEvent{Event: models.EventReadMessage, Data: "bob"})

		updated, err := c.MarkRead(ctx, "bob", "alice")
		req.NoError(err)
		req.Zero(updated)
	})

	t.Run("should not announce when the store fails", func(t *testing.T) {
		req := require.New(t)
		c, store, hub := newCoordinator(t)

		store.EXPECT().MarkSeen(gomock.Any(), "alice", "bob").Return(0, errors.New("boom"))
		hub.EXPECT().BroadcastAll(gomock.Any()).Times(0)

		_, err := c.MarkRead(ctx, "bob", "alice")
		req.ErrorIs(err, models.ErrPersistence)
	})
}

func TestCoordinator_Handlers(t *testing.T) {
	ctx := context.Background()

	t.Run("typing and stopTyping use the session owner", func(t *testing.T) {
		req := require.New(t)
		c, _, hub := newCoordinator(t)

		hub.EXPECT().BroadcastToUser("bob", typingEvent("alice"))
		hub.EXPECT().BroadcastToUser("bob", stopTypingEvent("alice"))

		data := json.RawMessage(`{"receiverId":"bob","senderId":"mallory"}`)
		req.NoError(c.HandleTyping(ctx, "alice", data))
		req.NoError(c.HandleStopTyping(ctx, "alice", data))
	})

	t.Run("readMessage", func(t *testing.T) {
		req := require.New(t)
		c, store, hub := newCoordinator(t)

		store.EXPECT().MarkSeen(gomock.Any(), "alice", "bob").Return(1, nil)
		hub.EXPECT().BroadcastAll(gomock.Any())

		req.NoError(c.HandleReadMessage(ctx, "bob", json.RawMessage(`{"receiverId":"alice"}`)))
	})

	t.Run("missing receiver", func(t *testing.T) {
		req := require.New(t)
		c, store, _ := newCoordinator(t)

		store.EXPECT().MarkSeen(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		req.ErrorIs(c.HandleTyping(ctx, "alice", json.RawMessage(`{}`)), models.ErrValidation)
		req.ErrorIs(c.HandleReadMessage(ctx, "alice", nil), models.ErrValidation)
	})
}
