package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/reeltalk/reeltalk/internal/logging"
	"github.com/reeltalk/reeltalk/internal/models"
)

// SocialHandler provides the user directory and follow endpoints.
type SocialHandler struct {
	Social SocialService

	// OnFollow, when set, runs after a successful follow. Used to
	// invalidate the for-you cache for the actor.
	OnFollow func(username string)
}

// Users handles GET /api/v1/users requests. The directory backs the
// find-friends view; credential digests never leave the service.
func (h SocialHandler) Users(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, usersResponse{Users: publicUsers(h.Social.Users())})
}

// Follow handles POST /api/v1/users/follow requests.
func (h SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid follow payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	actor, err := h.Social.Follow(ctx, req.Username)
	if err != nil {
		logger.Warn("follow rejected", "target", req.Username, "error", err)
		respondStateError(ctx, w, err)
		return
	}

	if h.OnFollow != nil {
		h.OnFollow(actor.Username)
	}

	logger.Info("follow applied", "username", actor.Username, "target", req.Username)
	respondJSON(ctx, w, http.StatusOK, sessionResponse{User: publicUser(actor)})
}

type followRequest struct {
	Username string `json:"username"`
}

type usersResponse struct {
	Users []models.User `json:"users"`
}
