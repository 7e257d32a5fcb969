//go:generate go run go.uber.org/mock/mockgen -source=signals.go -destination=../mocks/mock_signals.go -package=mocks -mock_names=Broadcaster=MockSignalBroadcaster
package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"duet/internal/content"
	"duet/internal/models"
)

// ReadStore flips the seen flag of a conversation direction.
type ReadStore interface {
	MarkSeen(ctx context.Context, senderID, receiverID string) (int, error)
}

type Broadcaster interface {
	BroadcastToUser(userID string, event models.ServerEvent)
	BroadcastAll(event models.ServerEvent)
}

// Coordinator relays typing indicators and read receipts. Typing state is kept
// in memory only: receiverID -> senderID currently typing to them.
type Coordinator struct {
	store ReadStore
	hub   Broadcaster
	log   *slog.Logger

	mu     sync.Mutex
	typing map[string]string
}

func New(store ReadStore, hub Broadcaster, log *slog.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		hub:    hub,
		log:    log,
		typing: make(map[string]string),
	}
}

// Typing records senderID as typing to receiverID and tells the receiver's
// sessions. The sender's own sessions are not notified.
func (c *Coordinator) Typing(senderID, receiverID string) error {
	if err := checkPeers(senderID, receiverID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.typing[receiverID] = senderID
	c.hub.BroadcastToUser(receiverID, models.ServerEvent{Event: models.EventTyping, Data: senderID})
	return nil
}

// StopTyping clears the receiver's typing state if it points at senderID and
// tells the receiver's sessions.
func (c *Coordinator) StopTyping(senderID, receiverID string) error {
	if err := checkPeers(senderID, receiverID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.typing[receiverID] == senderID {
		delete(c.typing, receiverID)
	}
	c.hub.BroadcastToUser(receiverID, models.ServerEvent{Event: models.EventStopTyping, Data: senderID})
	return nil
}

// Reset silently clears senderID -> receiverID typing state. The relay calls
// it after a message is sent; the message itself ends the indicator.
func (c *Coordinator) Reset(senderID, receiverID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.typing[receiverID] == senderID {
		delete(c.typing, receiverID)
	}
}

// ClearTypist drops every typing entry where userID is the typing party and
// sends stopTyping to the affected receivers. Runs on disconnect.
func (c *Coordinator) ClearTypist(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for receiverID, senderID := range c.typing {
		if senderID != userID {
			continue
		}
		delete(c.typing, receiverID)
		c.hub.BroadcastToUser(receiverID, models.ServerEvent{Event: models.EventStopTyping, Data: userID})
	}
}

// TypingTo returns who is currently typing to receiverID.
func (c *Coordinator) TypingTo(receiverID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	senderID, ok := c.typing[receiverID]
	return senderID, ok
}

// MarkRead marks every unseen message from peerID to readerID as seen and
// announces readMessage(readerID) to all sessions. Read receipts are scoped to
// the reader's identity, so every device of every user gets them.
func (c *Coordinator) MarkRead(ctx context.Context, readerID, peerID string) (int, error) {
	if err := checkPeers(readerID, peerID); err != nil {
		return 0, err
	}

	updated, err := c.store.MarkSeen(ctx, peerID, readerID)
	if err != nil {
		return 0, fmt.Errorf("%w: mark seen: %v", models.ErrPersistence, err)
	}

	c.hub.BroadcastAll(models.ServerEvent{Event: models.EventReadMessage, Data: readerID})
	c.log.Debug("messages read", "reader_id", readerID, "peer_id", peerID, "updated", updated)
	return updated, nil
}

func (c *Coordinator) HandleTyping(_ context.Context, userID string, data json.RawMessage) error {
	var payload models.PeerPayload
	if err := content.DecodePayload(data, &payload); err != nil {
		return err
	}
	return c.Typing(userID, payload.ReceiverID)
}

func (c *Coordinator) HandleStopTyping(_ context.Context, userID string, data json.RawMessage) error {
	var payload models.PeerPayload
	if err := content.DecodePayload(data, &payload); err != nil {
		return err
	}
	return c.StopTyping(userID, payload.ReceiverID)
}

func (c *Coordinator) HandleReadMessage(ctx context.Context, userID string, data json.RawMessage) error {
	var payload models.PeerPayload
	if err := content.DecodePayload(data, &payload); err != nil {
		return err
	}
	_, err := c.MarkRead(ctx, userID, payload.ReceiverID)
	return err
}

func checkPeers(userID, peerID string) error {
	if userID == "" || peerID == "" {
		return fmt.Errorf("%w: both peers are required", models.ErrValidation)
	}
	if userID == peerID {
		return fmt.Errorf("%w: peer must be another user", models.ErrValidation)
	}
	return nil
}
