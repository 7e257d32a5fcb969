package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"duet/internal/content"
	"duet/internal/models"

	"github.com/google/uuid"
)

// TokenIssuer mints access tokens for new users.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

type AdminHandler struct {
	issuer TokenIssuer
	api    *API
	now    func() time.Time
}

func NewAdminHandler(issuer TokenIssuer, store Store, hub Hub, log *slog.Logger) *AdminHandler {
	return &AdminHandler{
		issuer: issuer,
		api:    &API{store: store, hub: hub, log: log},
		now:    time.Now,
	}
}

type AddUserRequest struct {
	Username string `json:"username" validate:"required,min=1,max=32"`
	Status   string `json:"status,omitempty" validate:"max=140"`
}

type AddUserResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	User      models.User `json:"user"`
	Token     string      `json:"token,omitempty"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// AddUserHandler creates a user, announces it with newUser and returns an
// access token for it.
func (h *AdminHandler) AddUserHandler(w http.ResponseWriter, r *http.Request) {
	var req AddUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := content.Validate(req); err != nil {
		h.api.writeJSON(w, http.StatusBadRequest, models.APIResponse{Message: err.Error()})
		return
	}
	if err := content.ValidateUsername(req.Username); err != nil {
		h.api.writeJSON(w, http.StatusBadRequest, models.APIResponse{Message: err.Error()})
		return
	}

	taken, err := h.api.usernameTaken(req.Username)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if taken {
		h.api.writeJSON(w, http.StatusConflict, models.APIResponse{Message: "Username already taken"})
		return
	}

	user := models.User{
		ID:        uuid.NewString(),
		UserName:  req.Username,
		Status:    content.Sanitize(req.Status),
		CreatedAt: h.now().UTC(),
	}
	if err := h.api.store.UpsertUser(user); err != nil {
		h.api.log.Error("failed to create user", "username", req.Username, "error", err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	token, expiresAt, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.api.log.Error("failed to issue token", "user_id", user.ID, "error", err)
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	h.api.hub.BroadcastAll(models.ServerEvent{Event: models.EventNewUser, Data: user})
	h.api.log.Info("user created", "user_id", user.ID, "username", user.UserName)

	h.api.writeJSON(w, http.StatusOK, AddUserResponse{
		Success:   true,
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// PresenceHandler lists online users with their session counts.
func (h *AdminHandler) PresenceHandler(w http.ResponseWriter, _ *http.Request) {
	h.api.writeJSON(w, http.StatusOK, h.api.hub.Presence())
}
