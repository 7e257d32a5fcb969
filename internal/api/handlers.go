package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"duet/internal/auth"
	"duet/internal/content"
	"duet/internal/models"

	"github.com/samber/lo"
)

type contextKey string

const userIDKey contextKey = "userID"

// Store is the slice of the persistence layer the HTTP handlers need.
type Store interface {
	FindMessagesForUser(ctx context.Context, userID string) ([]models.Message, error)
	GetUser(id string) (models.User, error)
	ListUsers() ([]models.User, error)
	UpsertUser(user models.User) error
}

// Hub exposes presence and roster broadcasts.
type Hub interface {
	IsOnline(userID string) bool
	Presence() []models.PresenceEntry
	BroadcastAll(event models.ServerEvent)
}

type API struct {
	verifier auth.Verifier
	store    Store
	hub      Hub
	log      *slog.Logger
}

func New(verifier auth.Verifier, store Store, hub Hub, log *slog.Logger) *API {
	return &API{verifier: verifier, store: store, hub: hub, log: log}
}

// RequireAuth rejects requests without a valid credential and stores the
// caller's user ID in the request context.
func (a *API) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.verifier.Verify(r.Context(), auth.CredentialFromRequest(r))
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

func (a *API) MessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	messages, err := a.store.FindMessagesForUser(r.Context(), userID)
	if err != nil {
		a.log.Error("failed to load messages", "user_id", userID, "error", err)
		http.Error(w, "Failed to load messages", http.StatusInternalServerError)
		return
	}

	a.writeJSON(w, http.StatusOK, messages)
}

// UsersHandler returns everyone except the caller, newest first.
func (a *API) UsersHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	users, err := a.store.ListUsers()
	if err != nil {
		a.log.Error("failed to list users", "error", err)
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}

	others := lo.FilterMap(users, func(u models.User, _ int) (models.User, bool) {
		u.Online = a.hub.IsOnline(u.ID)
		return u, u.ID != userID
	})

	a.writeJSON(w, http.StatusOK, others)
}

func (a *API) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	user, err := a.store.GetUser(userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		a.log.Error("failed to get user", "user_id", userID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	user.Online = a.hub.IsOnline(userID)

	a.writeJSON(w, http.StatusOK, user)
}

type UpdateProfileRequest struct {
	UserName *string `json:"username" validate:"omitempty,min=1,max=32"`
	Status   *string `json:"status" validate:"omitempty,max=140"`
}

// UpdateProfileHandler changes the caller's username and/or status and
// announces the new profile to every session.
func (a *API) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := content.Validate(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := a.store.GetUser(userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if req.UserName != nil && *req.UserName != user.UserName {
		if err := content.ValidateUsername(*req.UserName); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		taken, err := a.usernameTaken(*req.UserName)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if taken {
			http.Error(w, "Username already taken", http.StatusConflict)
			return
		}
		user.UserName = *req.UserName
	}
	if req.Status != nil {
		user.Status = content.Sanitize(*req.Status)
	}

	if err := a.store.UpsertUser(user); err != nil {
		a.log.Error("failed to update user", "user_id", userID, "error", err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	user.Online = a.hub.IsOnline(userID)
	a.hub.BroadcastAll(models.ServerEvent{Event: models.EventUpdateUser, Data: user})

	a.writeJSON(w, http.StatusOK, user)
}

func (a *API) usernameTaken(username string) (bool, error) {
	users, err := a.store.ListUsers()
	if err != nil {
		return false, fmt.Errorf("list users: %w", err)
	}
	return lo.ContainsBy(users, func(u models.User) bool {
		return u.UserName == username
	}), nil
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Warn("failed to encode response", "error", err)
	}
}
