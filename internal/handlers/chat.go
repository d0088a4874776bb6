package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/reeltalk/reeltalk/internal/logging"
	"github.com/reeltalk/reeltalk/internal/models"
)

// ChatHandler provides the direct-message endpoints.
type ChatHandler struct {
	Chat ChatService
}

// Handle dispatches /api/v1/conversations by method: GET lists, POST
// starts or resumes a conversation.
func (h ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.start(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h ChatHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := h.Chat.CurrentUser(); !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "login required"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, conversationsResponse{
		Conversations: publicConversations(h.Chat.Conversations()),
	})
}

func (h ChatHandler) start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req startConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid conversation payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	convo, err := h.Chat.StartConversation(ctx, req.Username)
	if err != nil {
		logger.Warn("start conversation rejected", "target", req.Username, "error", err)
		respondStateError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, conversationResponse{Conversation: publicConversation(convo)})
}

// SendMessage handles POST /api/v1/conversations/messages requests.
func (h ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid message payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if strings.TrimSpace(req.ConversationID) == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "conversationId is required"})
		return
	}

	msg, err := h.Chat.SendMessage(ctx, req.ConversationID, req.Text)
	if err != nil {
		logger.Warn("send message rejected", "conversationId", req.ConversationID, "error", err)
		respondStateError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, messageResponse{Message: msg})
}

type startConversationRequest struct {
	Username string `json:"username"`
}

type sendMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
}

type conversationsResponse struct {
	Conversations []models.Conversation `json:"conversations"`
}

type conversationResponse struct {
	Conversation models.Conversation `json:"conversation"`
}

type messageResponse struct {
	Message models.ChatMessage `json:"message"`
}
