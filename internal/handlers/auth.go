package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/neurowatch-systems/neurowatch/internal/httputil"
	"github.com/neurowatch-systems/neurowatch/internal/middleware"
	"github.com/neurowatch-systems/neurowatch/internal/models"
	"github.com/neurowatch-systems/neurowatch/internal/repository"
	"github.com/neurowatch-systems/neurowatch/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			httputil.WriteError(w, http.StatusBadRequest, "username already exists")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{
		"id":       user.ID,
		"username": user.Username,
	})
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	user, err := h.auth.GetUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// ListUsers handles GET /api/users (admin only)
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, users)
}
