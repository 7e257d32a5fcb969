package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"duet/internal/models"
	"duet/internal/presence"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const defaultSessionBuffer = 100

// HandlerFunc handles one inbound event. userID is the authenticated owner of
// the originating session and is the only sender identity handlers may use.
type HandlerFunc func(ctx context.Context, userID string, data json.RawMessage) error

// Session is one live, authenticated connection.
type Session struct {
	ID          string
	UserID      string
	ConnectedAt time.Time

	send chan models.ServerEvent
}

// Events returns the outbound queue of the session. It is closed when the
// session leaves the hub.
func (s *Session) Events() <-chan models.ServerEvent {
	return s.send
}

// Hub routes events between live sessions. It owns the session tables and the
// presence registry.
type Hub struct {
	// Map of sessionID -> Session
	sessions map[string]*Session

	// Map of userID -> sessionID -> Session
	byUser map[string]map[string]*Session

	handlers     map[models.EventName]HandlerFunc
	onDisconnect []func(userID string)

	presence   *presence.Registry
	bufferSize int
	log        *slog.Logger
	now        func() time.Time

	mu sync.RWMutex
}

func NewHub(log *slog.Logger, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultSessionBuffer
	}
	h := &Hub{
		sessions:   make(map[string]*Session),
		byUser:     make(map[string]map[string]*Session),
		handlers:   make(map[models.EventName]HandlerFunc),
		bufferSize: bufferSize,
		log:        log,
		now:        time.Now,
	}
	h.presence = presence.NewRegistry(h)
	return h
}

// Handle registers the handler for an inbound event kind.
func (h *Hub) Handle(event models.EventName, fn HandlerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[event] = fn
}

// OnDisconnect registers a hook run after every session of userID closes.
func (h *Hub) OnDisconnect(fn func(userID string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDisconnect = append(h.onDisconnect, fn)
}

// Join creates a session for an already verified user, subscribes it to the
// user's delivery group and registers it with presence. The new session gets
// the current online roster as its first event.
func (h *Hub) Join(userID string) *Session {
	s := &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		ConnectedAt: h.now(),
		send:        make(chan models.ServerEvent, h.bufferSize),
	}

	h.mu.Lock()
	h.sessions[s.ID] = s
	group, ok := h.byUser[userID]
	if !ok {
		group = make(map[string]*Session)
		h.byUser[userID] = group
	}
	group[s.ID] = s
	h.mu.Unlock()

	online := h.presence.Register(userID, s.ID)
	h.SendToSession(s, models.ServerEvent{Event: models.EventOnlineUsers, Data: online})

	h.log.Info("session joined", "user_id", userID, "session_id", s.ID)
	return s
}

// Leave tears a session down. It is safe to call more than once.
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s.ID)
	if group, ok := h.byUser[s.UserID]; ok {
		delete(group, s.ID)
		if len(group) == 0 {
			delete(h.byUser, s.UserID)
		}
	}
	close(s.send)
	hooks := append([]func(string){}, h.onDisconnect...)
	h.mu.Unlock()

	h.presence.Unregister(s.UserID, s.ID)
	for _, hook := range hooks {
		hook(s.UserID)
	}

	h.log.Info("session left", "user_id", s.UserID, "session_id", s.ID,
		"duration", h.now().Sub(s.ConnectedAt).Round(time.Second))
}

// Dispatch routes one inbound event of s to its handler, with the session
// owner injected as the trusted sender. Unknown events are logged and ignored;
// handler failures are reported to s only.
func (h *Hub) Dispatch(ctx context.Context, s *Session, event models.ClientEvent) {
	h.mu.RLock()
	fn, ok := h.handlers[event.Event]
	h.mu.RUnlock()

	if !ok {
		h.log.Warn("unknown event ignored", "event", event.Event, "user_id", s.UserID, "session_id", s.ID)
		return
	}

	// A disconnect must not abort work that already started.
	if err := fn(context.WithoutCancel(ctx), s.UserID, event.Data); err != nil {
		h.ReportError(s, event.Event, err)
	}
}

// ReportError sends an error event for a failed inbound event to s only.
func (h *Hub) ReportError(s *Session, event models.EventName, err error) {
	msg := "internal error"
	switch {
	case errors.Is(err, models.ErrValidation):
		msg = err.Error()
		h.log.Warn("event rejected", "event", event, "user_id", s.UserID, "error", err)
	case errors.Is(err, models.ErrPersistence):
		msg = models.ErrPersistence.Error()
		h.log.Error("event failed", "event", event, "user_id", s.UserID, "error", err)
	default:
		h.log.Error("event failed", "event", event, "user_id", s.UserID, "error", err)
	}

	h.SendToSession(s, models.ServerEvent{
		Event: models.EventError,
		Data:  models.ErrorPayload{Event: event, Message: msg},
	})
}

// SendToSession delivers to a single session if it is still live.
func (h *Hub) SendToSession(s *Session, event models.ServerEvent) {
	h.mu.RLock()
	var slow []*Session
	if _, ok := h.sessions[s.ID]; ok && !h.offer(s, event) {
		slow = append(slow, s)
	}
	h.mu.RUnlock()
	h.evict(slow)
}

// BroadcastToUser delivers to every live session owned by userID.
// A user without sessions is a silent no-op.
func (h *Hub) BroadcastToUser(userID string, event models.ServerEvent) {
	h.BroadcastToUsers([]string{userID}, event)
}

// BroadcastToUsers delivers once to every session in the union of the users'
// delivery groups.
func (h *Hub) BroadcastToUsers(userIDs []string, event models.ServerEvent) {
	h.mu.RLock()
	var slow []*Session
	for _, userID := range lo.Uniq(userIDs) {
		for _, s := range h.byUser[userID] {
			if !h.offer(s, event) {
				slow = append(slow, s)
			}
		}
	}
	h.mu.RUnlock()
	h.evict(slow)
}

// BroadcastAll delivers to every connected session.
func (h *Hub) BroadcastAll(event models.ServerEvent) {
	h.mu.RLock()
	var slow []*Session
	for _, s := range h.sessions {
		if !h.offer(s, event) {
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()
	h.evict(slow)
}

// IsOnline reports whether userID has at least one live session.
func (h *Hub) IsOnline(userID string) bool {
	return h.presence.IsOnline(userID)
}

// OnlineUsers returns the sorted IDs of online users.
func (h *Hub) OnlineUsers() []string {
	return h.presence.ListOnline()
}

// Presence returns online users with their session counts.
func (h *Hub) Presence() []models.PresenceEntry {
	return h.presence.Entries()
}

// SessionCount returns the number of live sessions across all users.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close disconnects every session.
func (h *Hub) Close() {
	h.mu.RLock()
	sessions := lo.Values(h.sessions)
	h.mu.RUnlock()

	for _, s := range sessions {
		h.Leave(s)
	}
	h.log.Info("hub closed", "sessions", len(sessions))
}

// offer must be called with h.mu held for reading. It never blocks.
func (h *Hub) offer(s *Session, event models.ServerEvent) bool {
	select {
	case s.send <- event:
		return true
	default:
		return false
	}
}

// evict disconnects sessions whose outbound queue is full. It runs the
// regular leave path on its own goroutine because callers may be holding the
// presence or typing locks that Leave needs.
func (h *Hub) evict(slow []*Session) {
	for _, s := range slow {
		h.log.Warn("evicting slow session", "user_id", s.UserID, "session_id", s.ID)
		go h.Leave(s)
	}
}
