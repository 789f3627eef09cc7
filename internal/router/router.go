// internal/router/router.go
package router

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/pizza-nz/lunch-bot/internal/api"
	"github.com/pizza-nz/lunch-bot/internal/api/handler"
	"github.com/pizza-nz/lunch-bot/internal/middleware"
	"github.com/pizza-nz/lunch-bot/internal/service"
	"github.com/pizza-nz/lunch-bot/internal/websockets"
)

// Services bundles what the admin API exposes
type Services struct {
	Auth   *service.AuthService
	Menu   *service.MenuService
	Orders *service.OrderService
}

// Router handles HTTP routing
type Router struct {
	mux    *http.ServeMux
	logger *logrus.Logger
}

// New creates a new router
func New(services Services, hub *websockets.Hub, allowedOrigins []string, logger *logrus.Logger) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}

	r.setupRoutes(services, hub, allowedOrigins)

	return r
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	middleware.Logger(r.logger)(r.mux).ServeHTTP(w, req)
}

// setupRoutes sets up the routes for the router
func (r *Router) setupRoutes(services Services, hub *websockets.Hub, allowedOrigins []string) {
	authHandler := handler.NewAuthHandler(services.Auth, r.logger)
	menuHandler := handler.NewMenuHandler(services.Menu)
	reportHandler := handler.NewReportHandler(services.Orders)
	wsHandler := handler.NewWebSocketHandler(hub, services.Auth, allowedOrigins, r.logger)

	// Public routes
	r.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, req *http.Request) {
		api.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	r.mux.Handle("GET /ws", wsHandler)

	// Protected routes
	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(services.Auth)(
			middleware.RequireRole(service.RoleManager)(h),
		)
	}
	r.mux.Handle("GET /api/menu", protected(menuHandler.List))
	r.mux.Handle("POST /api/menu/{id}/toggle", protected(menuHandler.Toggle))
	r.mux.Handle("GET /api/reports/{period}", protected(reportHandler.Get))
}
