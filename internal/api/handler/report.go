package handler

import (
	"net/http"

	"github.com/pizza-nz/lunch-bot/internal/api"
	"github.com/pizza-nz/lunch-bot/internal/models"
	"github.com/pizza-nz/lunch-bot/internal/service"
)

// ReportHandler serves order reports
type ReportHandler struct {
	orderService *service.OrderService
}

// NewReportHandler creates a new report handler
func NewReportHandler(orderService *service.OrderService) *ReportHandler {
	return &ReportHandler{
		orderService: orderService,
	}
}

// Get handles GET /api/reports/{period}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	period, ok := models.ParseReportPeriod(r.PathValue("period"))
	if !ok {
		api.BadRequest(w, "period must be one of today, week, month, all")
		return
	}

	api.RespondJSON(w, http.StatusOK, h.orderService.Report(r.Context(), period))
}
