package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/reeltalk/reeltalk/internal/logging"
)

// ProfileHandler serves the session user's profile and data export.
type ProfileHandler struct {
	Profile ProfileService
}

// Show handles GET /api/v1/profile requests.
func (h ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	user, ok := h.Profile.CurrentUser()
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "login required"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, sessionResponse{User: publicUser(user)})
}

// Export handles GET /api/v1/profile/export requests: a one-way
// downloadable JSON document, never re-importable.
func (h ProfileHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	export, err := h.Profile.Export()
	if err != nil {
		logger.Warn("profile export rejected", "error", err)
		respondStateError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="reeltalk-export.json"`)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		logger.Error("encode profile export", "error", err)
	}
}
