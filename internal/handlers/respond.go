package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/reeltalk/reeltalk/internal/logging"
	"github.com/reeltalk/reeltalk/internal/models"
	"github.com/reeltalk/reeltalk/internal/state"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if requestID := logging.RequestIDFromContext(ctx); requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondStateError maps a state-core failure to an HTTP status and a
// JSON error body.
func respondStateError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, state.ErrNoSession):
		status = http.StatusUnauthorized
	case errors.Is(err, state.ErrIdentityTaken):
		status = http.StatusConflict
	case errors.Is(err, state.ErrUnknownUser), errors.Is(err, state.ErrUnknownConversation):
		status = http.StatusNotFound
	}
	respondJSON(ctx, w, status, map[string]string{"error": err.Error()})
}

// publicUser strips the credential digest before a user record leaves
// the service.
func publicUser(u models.User) models.User {
	u.Password = ""
	return u
}

func publicUsers(users []models.User) []models.User {
	out := make([]models.User, len(users))
	for i := range users {
		out[i] = publicUser(users[i])
	}
	return out
}

func publicVideo(v models.Video) models.Video {
	v.User = publicUser(v.User)
	return v
}

func publicVideos(videos []models.Video) []models.Video {
	out := make([]models.Video, len(videos))
	for i := range videos {
		out[i] = publicVideo(videos[i])
	}
	return out
}

func publicConversation(c models.Conversation) models.Conversation {
	c.User = publicUser(c.User)
	return c
}

func publicConversations(convos []models.Conversation) []models.Conversation {
	out := make([]models.Conversation, len(convos))
	for i := range convos {
		out[i] = publicConversation(convos[i])
	}
	return out
}
