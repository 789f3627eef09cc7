package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/pizza-nz/lunch-bot/internal/api"
	"github.com/pizza-nz/lunch-bot/internal/service"
	"github.com/pizza-nz/lunch-bot/internal/websockets"
)

// WebSocketHandler upgrades admin console connections to the live feed
type WebSocketHandler struct {
	hub         *websockets.Hub
	authService *service.AuthService
	upgrader    *websocket.Upgrader
	logger      *logrus.Logger
}

func NewWebSocketHandler(hub *websockets.Hub, authService *service.AuthService, allowedOrigins []string, logger *logrus.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
		upgrader:    websockets.NewUpgrader(allowedOrigins),
		logger:      logger,
	}
}

// ServeHTTP handles GET /ws?token=...
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		api.Unauthorized(w, "token is required")
		return
	}

	claims, err := h.authService.ValidateToken(token)
	if err != nil {
		api.Unauthorized(w, "invalid or expired token")
		return
	}
	if claims.Role != service.RoleManager {
		api.Forbidden(w)
		return
	}

	// Upgrade the HTTP connection to a WebSocket connection
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// If upgrading fails, the upgrader has already written the error to the response
		h.logger.Debugf("Websocket upgrade failed: %v", err)
		return
	}

	websockets.ServeWs(h.hub, conn, claims.Subject)
}
