package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/reeltalk/reeltalk/internal/aiclient"
	"github.com/reeltalk/reeltalk/internal/logging"
	"github.com/reeltalk/reeltalk/internal/models"
	"github.com/reeltalk/reeltalk/internal/storage"
)

// maxUploadBytes bounds a single video upload.
const maxUploadBytes = 256 << 20

// VideoHandler provides the feed, posting, counter and media endpoints.
type VideoHandler struct {
	Videos      VideoService
	Generator   VideoGenerator
	Recommender Recommender
	AILimiter   RateLimiter
}

// Handle dispatches /api/v1/videos by method: GET lists nothing here
// (the feed has its own route), POST uploads, PATCH updates counters.
func (h VideoHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodPatch:
		h.update(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Feed handles GET /api/v1/feed requests.
func (h VideoHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, feedResponse{Videos: publicVideos(h.Videos.Feed())})
}

// create handles POST /api/v1/videos multipart uploads.
func (h VideoHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Warn("invalid upload form", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "expected multipart form upload"})
		return
	}

	file, _, err := r.FormFile("video")
	if err != nil {
		logger.Warn("upload missing video file", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "video file is required"})
		return
	}
	defer file.Close()

	caption := r.FormValue("caption")
	audioName := r.FormValue("audioName")

	video, err := h.Videos.PostVideo(ctx, caption, audioName, file)
	if err != nil {
		logger.Warn("post video rejected", "error", err)
		respondStateError(ctx, w, err)
		return
	}

	logger.Info("video posted", "videoId", video.ID, "username", video.User.Username)
	respondJSON(ctx, w, http.StatusCreated, videoResponse{Video: publicVideo(video)})
}

// update handles PATCH /api/v1/videos counter updates.
func (h VideoHandler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req models.Video
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid video update payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	existing, ok := h.Videos.VideoByID(req.ID)
	if !ok {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "unknown video"})
		return
	}

	// Counters are the only mutable surface; everything else keeps its
	// stored value.
	existing.Likes = req.Likes
	existing.Comments = req.Comments
	existing.Shares = req.Shares
	existing.Views = req.Views

	if !h.Videos.UpdateVideo(ctx, existing) {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "unknown video"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoResponse{Video: publicVideo(existing)})
}

// ForYou handles GET /api/v1/videos/foryou requests.
func (h VideoHandler) ForYou(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := h.Videos.CurrentUser()
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "login required"})
		return
	}

	ids, err := h.Recommender.ForYouFeed(ctx, user, h.Videos.Feed())
	if err != nil {
		category := aiclient.CategoryOf(err)
		logger.Warn("for-you ranking failed", "category", category, "error", err)
		respondJSON(ctx, w, http.StatusBadGateway, map[string]string{
			"error":    "recommendations unavailable",
			"category": string(category),
		})
		return
	}

	videos := make([]models.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := h.Videos.VideoByID(id); ok {
			videos = append(videos, publicVideo(v))
		}
	}

	respondJSON(ctx, w, http.StatusOK, feedResponse{Videos: videos})
}

// Generate handles POST /api/v1/videos/generate requests.
func (h VideoHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.AILimiter, r, "generate") {
		logger.Warn("generation rate limited", "ip", clientIP(r))
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many generation requests"})
		return
	}

	if _, ok := h.Videos.CurrentUser(); !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "login required"})
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid generation payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "prompt is required"})
		return
	}

	ref, err := h.Generator.GenerateVideo(ctx, req.Prompt)
	if err != nil {
		category := aiclient.CategoryOf(err)
		logger.Warn("video generation failed", "category", category, "error", err)
		respondJSON(ctx, w, http.StatusBadGateway, map[string]string{
			"error":    "video generation failed",
			"category": string(category),
		})
		return
	}

	respondJSON(ctx, w, http.StatusOK, generateResponse{Src: ref})
}

// Media handles GET /api/v1/media/{id}: it streams the stored payload
// for a locally posted video.
func (h VideoHandler) Media(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/media/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid media id"})
		return
	}

	blob, err := h.Videos.OpenBlob(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "media not found"})
			return
		}
		logger.Error("open media payload", "videoId", id, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to read media"})
		return
	}
	defer blob.Close()

	w.Header().Set("Content-Type", "video/mp4")
	if _, err := io.Copy(w, blob); err != nil {
		logger.Warn("stream media payload", "videoId", id, "error", err)
	}
}

type feedResponse struct {
	Videos []models.Video `json:"videos"`
}

type videoResponse struct {
	Video models.Video `json:"video"`
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Src string `json:"src"`
}
