package models

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("authentication failed")
	ErrValidation      = errors.New("invalid payload")
	ErrPersistence     = errors.New("persistence failure")
)

// User represents a user in the system.
type User struct {
	ID        string    `json:"id"`
	UserName  string    `json:"username"`
	Status    string    `json:"status"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Online    bool      `json:"online"` // computed from live sessions, never stored
	CreatedAt time.Time `json:"createdAt"`
}

// Message represents a direct message between two users.
// Seen is only ever flipped by the read-receipt path.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	Seen       bool      `json:"seen"`
	CreatedAt  time.Time `json:"createdAt"`
}

type EventName string

const (
	// Inbound.
	EventSendMessage EventName = "sendMessage"
	EventTyping      EventName = "typing"
	EventStopTyping  EventName = "stopTyping"
	EventReadMessage EventName = "readMessage"

	// Outbound.
	EventReceiveMessage   EventName = "receiveMessage"
	EventUserConnected    EventName = "userConnected"
	EventUserDisconnected EventName = "userDisconnected"
	EventOnlineUsers      EventName = "onlineUsers"
	EventNewUser          EventName = "newUser"
	EventUpdateUser       EventName = "updateUser"
	EventError            EventName = "error"
)

// ClientEvent represents a frame sent from the client to the server.
type ClientEvent struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServerEvent represents a frame sent to the client.
type ServerEvent struct {
	Event EventName `json:"event"`
	Data  any       `json:"data,omitempty"`
}

// SendMessagePayload is the data of a sendMessage event. Any sender field a
// client adds is dropped on decode; the sender is always the session owner.
type SendMessagePayload struct {
	ReceiverID string `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

// PeerPayload is the data of typing, stopTyping and readMessage events.
type PeerPayload struct {
	ReceiverID string `json:"receiverId" validate:"required"`
}

type ErrorPayload struct {
	Event   EventName `json:"event"`
	Message string    `json:"message"`
}

// PresenceEntry is a user with the number of sessions it has open.
type PresenceEntry struct {
	UserID   string `json:"userId"`
	Sessions int    `json:"sessions"`
}

type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
