package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"duet/internal/models"
)

type wsConnection interface {
	Close() error
	WriteJSON(v any) error
	ReadMessage() (messageType int, p []byte, err error)
}

type messageHub interface {
	Join(userID string) *Session
	Leave(s *Session)
	Dispatch(ctx context.Context, s *Session, event models.ClientEvent)
	ReportError(s *Session, event models.EventName, err error)
}

// Connection pumps frames between one websocket and its hub session.
// Inbound events of the session are handled one at a time, in arrival order.
type Connection struct {
	ws         wsConnection
	hub        messageHub
	session    *Session
	log        *slog.Logger
	fromClient chan models.ClientEvent
	errorCh    chan error
}

func NewConnection(
	hub messageHub,
	ws wsConnection,
	userID string,
	log *slog.Logger,
) *Connection {
	session := hub.Join(userID)
	return &Connection{
		ws:         ws,
		hub:        hub,
		session:    session,
		log:        log.With("user_id", userID, "session_id", session.ID),
		fromClient: make(chan models.ClientEvent),
		errorCh:    make(chan error, 2),
	}
}

func (c *Connection) Session() *Session {
	return c.session
}

func (c *Connection) Handle(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		close(c.fromClient)
		close(c.errorCh)
		c.hub.Leave(c.session)
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		c.errorCh <- c.pumpMessages(ctx)
		cancel()
	})

	wg.Go(func() {
		c.errorCh <- c.mainLoop(ctx)
		cancel()
	})

	var err error
	select {
	case err = <-c.errorCh:
	case <-ctx.Done():
	}
	_ = c.ws.Close()
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func (c *Connection) pumpMessages(ctx context.Context) error {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}

		var event models.ClientEvent
		if err := json.Unmarshal(data, &event); err != nil {
			// A malformed frame fails on its own; the connection stays up.
			c.hub.ReportError(c.session, "", fmt.Errorf("%w: %v", models.ErrValidation, err))
			continue
		}

		select {
		case c.fromClient <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Connection) mainLoop(ctx context.Context) error {
	events := c.session.Events()
	for {
		select {
		case event := <-c.fromClient:
			c.log.Debug("inbound event", "event", event.Event)
			c.hub.Dispatch(ctx, c.session, event)
		case event, ok := <-events:
			if !ok {
				// The hub closed the session.
				return nil
			}
			if err := c.ws.WriteJSON(event); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}
