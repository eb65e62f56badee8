package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/middleware"
	"github.com/noah-isme/equipment-tracker/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context) (*dto.DashboardSummary, bool, error)
}

// DashboardHandler exposes the inventory dashboard.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Inventory dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, cacheHit, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	response.JSON(c, http.StatusOK, summary, meta)
}
