package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/pizza-nz/lunch-bot/internal/api"
	"github.com/pizza-nz/lunch-bot/internal/service"
)

// AuthHandler issues admin API tokens
type AuthHandler struct {
	authService *service.AuthService
	logger      *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	token, err := h.authService.Login(req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Warnf("Failed admin login from %s", r.RemoteAddr)
			api.Unauthorized(w, "invalid credentials")
			return
		}
		h.logger.Errorf("Login failed: %v", err)
		api.InternalServerError(w)
		return
	}

	api.RespondJSON(w, http.StatusOK, struct {
		Token string `json:"token"`
	}{Token: token})
}
