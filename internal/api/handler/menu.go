package handler

import (
	"net/http"

	"github.com/pizza-nz/lunch-bot/internal/api"
	"github.com/pizza-nz/lunch-bot/internal/service"
)

// MenuHandler handles menu-related requests
type MenuHandler struct {
	menuService *service.MenuService
}

// NewMenuHandler creates a new menu handler
func NewMenuHandler(menuService *service.MenuService) *MenuHandler {
	return &MenuHandler{
		menuService: menuService,
	}
}

// List handles GET /api/menu and returns every dish, offered or not
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	api.RespondJSON(w, http.StatusOK, h.menuService.All(r.Context()))
}

// Toggle handles POST /api/menu/{id}/toggle
func (h *MenuHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		api.BadRequest(w, "dish id is required")
		return
	}

	active, ok := h.menuService.Toggle(r.Context(), id)
	if !ok {
		api.NotFound(w, "dish not found or menu unavailable")
		return
	}

	api.RespondJSON(w, http.StatusOK, service.MenuUpdate{DishID: id, Active: active})
}
