//go:generate go run go.uber.org/mock/mockgen -source=relay.go -destination=../mocks/mock_relay.go -package=mocks
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"duet/internal/content"
	"duet/internal/models"
)

// MessageStore persists new messages.
type MessageStore interface {
	CreateMessage(ctx context.Context, senderID, receiverID, content string) (models.Message, error)
}

// Broadcaster fans an event out to every live session of the given users.
type Broadcaster interface {
	BroadcastToUsers(userIDs []string, event models.ServerEvent)
}

// TypingResetter forgets that senderID is typing to receiverID.
type TypingResetter interface {
	Reset(senderID, receiverID string)
}

type Config struct {
	MaxContentLength int
}

// Relay validates, persists and fans out direct messages.
type Relay struct {
	store  MessageStore
	hub    Broadcaster
	typing TypingResetter
	log    *slog.Logger
	config Config

	pairs pairLocks
}

// pairLocks hands out one mutex per sender -> receiver direction. Entries are
// dropped once nobody holds or waits for them.
type pairLocks struct {
	mu    sync.Mutex
	locks map[string]*pairLock
}

type pairLock struct {
	sync.Mutex
	refs int
}

func (p *pairLocks) lock(senderID, receiverID string) func() {
	key := strconv.Itoa(len(senderID)) + ":" + senderID + receiverID

	p.mu.Lock()
	if p.locks == nil {
		p.locks = make(map[string]*pairLock)
	}
	l, ok := p.locks[key]
	if !ok {
		l = &pairLock{}
		p.locks[key] = l
	}
	l.refs++
	p.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, key)
		}
		p.mu.Unlock()
	}
}

func New(store MessageStore, hub Broadcaster, typing TypingResetter, log *slog.Logger, config Config) *Relay {
	return &Relay{
		store:  store,
		hub:    hub,
		typing: typing,
		log:    log,
		config: config,
	}
}

// Send persists one message and echoes it to both participants. Nothing is
// broadcast unless the store accepted the write. Persist and broadcast run
// under the pair's lock, so live sessions see one direction's messages in
// persisted order even when the sender writes from several sessions.
func (r *Relay) Send(ctx context.Context, senderID, receiverID, text string) (models.Message, error) {
	if senderID == "" || receiverID == "" {
		return models.Message{}, fmt.Errorf("%w: sender and receiver are required", models.ErrValidation)
	}
	if senderID == receiverID {
		return models.Message{}, fmt.Errorf("%w: cannot message yourself", models.ErrValidation)
	}

	normalized, err := content.NormalizeMessage(text, r.config.MaxContentLength)
	if err != nil {
		return models.Message{}, err
	}

	unlock := r.pairs.lock(senderID, receiverID)
	defer unlock()

	msg, err := r.store.CreateMessage(ctx, senderID, receiverID, normalized)
	if err != nil {
		return models.Message{}, fmt.Errorf("%w: create message: %v", models.ErrPersistence, err)
	}

	if r.typing != nil {
		r.typing.Reset(senderID, receiverID)
	}

	r.hub.BroadcastToUsers([]string{senderID, receiverID}, models.ServerEvent{
		Event: models.EventReceiveMessage,
		Data:  msg,
	})

	r.log.Debug("message relayed", "message_id", msg.ID, "sender_id", senderID, "receiver_id", receiverID)
	return msg, nil
}

// HandleSendMessage is the sendMessage event handler.
func (r *Relay) HandleSendMessage(ctx context.Context, userID string, data json.RawMessage) error {
	var payload models.SendMessagePayload
	if err := content.DecodePayload(data, &payload); err != nil {
		return err
	}
	_, err := r.Send(ctx, userID, payload.ReceiverID, payload.Content)
	return err
}
