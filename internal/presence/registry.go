// Package presence derives per-user online state from the set of live
// sessions each user has open.
package presence

import (
	"sort"
	"sync"

	"duet/internal/models"
)

// Notifier receives roster-wide presence announcements.
type Notifier interface {
	BroadcastAll(event models.ServerEvent)
}

// Registry maps user IDs to their open sessions. A user is online iff it has
// at least one session; users with none are not kept in the map.
//
// Transitions are announced while the registry lock is held, so observers see
// userConnected/userDisconnected for a user in the same order the registry
// applied them. Notifier implementations must not call back into the registry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]struct{}
	notifier Notifier
}

func NewRegistry(notifier Notifier) *Registry {
	return &Registry{
		sessions: make(map[string]map[string]struct{}),
		notifier: notifier,
	}
}

// Register adds sessionID to userID and returns the online user list as seen
// right after the registration. On the 0 -> 1 transition userConnected is
// broadcast to everyone. Registering the same session twice is a no-op.
func (r *Registry) Register(userID, sessionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[userID]
	if !ok {
		set = make(map[string]struct{})
		r.sessions[userID] = set
	}
	if _, dup := set[sessionID]; !dup {
		set[sessionID] = struct{}{}
		if len(set) == 1 && r.notifier != nil {
			r.notifier.BroadcastAll(models.ServerEvent{Event: models.EventUserConnected, Data: userID})
		}
	}

	return r.listLocked()
}

// Unregister removes sessionID from userID. On the 1 -> 0 transition the
// entry is dropped and userDisconnected is broadcast. It reports whether the
// user went offline. Unknown sessions are ignored.
func (r *Registry) Unregister(userID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[userID]
	if !ok {
		return false
	}
	if _, ok := set[sessionID]; !ok {
		return false
	}

	delete(set, sessionID)
	if len(set) > 0 {
		return false
	}

	delete(r.sessions, userID)
	if r.notifier != nil {
		r.notifier.BroadcastAll(models.ServerEvent{Event: models.EventUserDisconnected, Data: userID})
	}
	return true
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[userID]) > 0
}

// SessionCount returns the number of open sessions of userID.
func (r *Registry) SessionCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[userID])
}

// ListOnline returns the sorted IDs of all online users.
func (r *Registry) ListOnline() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

// Entries returns every online user with its session count, sorted by user ID.
func (r *Registry) Entries() []models.PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]models.PresenceEntry, 0, len(r.sessions))
	for userID, set := range r.sessions {
		entries = append(entries, models.PresenceEntry{UserID: userID, Sessions: len(set)})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UserID < entries[j].UserID
	})
	return entries
}

func (r *Registry) listLocked() []string {
	ids := make([]string, 0, len(r.sessions))
	for userID := range r.sessions {
		ids = append(ids, userID)
	}
	sort.Strings(ids)
	return ids
}
