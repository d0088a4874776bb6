package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/reeltalk/reeltalk/internal/logging"
	"github.com/reeltalk/reeltalk/internal/models"
	"github.com/reeltalk/reeltalk/internal/state"
)

// AuthHandler implements the session endpoints.
type AuthHandler struct {
	Sessions SessionService
	Limiter  RateLimiter
}

// Login handles POST /api/v1/auth/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		logger.Warn("login rate limited", "ip", clientIP(r))
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many attempts, slow down"})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" || req.Password == "" {
		logger.Warn("login missing credentials")
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username/email and password are required"})
		return
	}

	user, ok := h.Sessions.Login(ctx, req.Identifier, req.Password)
	if !ok {
		logger.Warn("login rejected", "identifier", req.Identifier)
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	logger.Info("login succeeded", "username", user.Username)
	respondJSON(ctx, w, http.StatusOK, sessionResponse{User: publicUser(user)})
}

// SignUp handles POST /api/v1/auth/signup requests.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "signup") {
		logger.Warn("signup rate limited", "ip", clientIP(r))
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many attempts, slow down"})
		return
	}

	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, err := h.Sessions.SignUp(ctx, state.SignUpParams{
		DisplayName: req.DisplayName,
		Username:    req.Username,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    req.Password,
	})
	if err != nil {
		logger.Warn("signup rejected", "username", req.Username, "error", err)
		respondStateError(ctx, w, err)
		return
	}

	logger.Info("account created", "username", user.Username)
	respondJSON(ctx, w, http.StatusCreated, sessionResponse{User: publicUser(user)})
}

// Logout handles POST /api/v1/auth/logout requests.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	h.Sessions.Logout(ctx)
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "logged out"})
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type signUpRequest struct {
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
}

type sessionResponse struct {
	User models.User `json:"user"`
}
