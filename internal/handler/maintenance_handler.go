package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
	"github.com/noah-isme/equipment-tracker/pkg/response"
)

type maintenanceService interface {
	Create(ctx context.Context, req dto.CreateMaintenanceRequest) (*models.MaintenanceEvent, error)
	Get(ctx context.Context, id int64) (*models.MaintenanceEvent, error)
	Update(ctx context.Context, id int64, req dto.UpdateMaintenanceRequest) (*models.MaintenanceEvent, error)
	Delete(ctx context.Context, id int64) error
}

// MaintenanceHandler manages the maintenance log.
type MaintenanceHandler struct {
	service maintenanceService
}

// NewMaintenanceHandler constructs MaintenanceHandler.
func NewMaintenanceHandler(service maintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{service: service}
}

// Create godoc
// @Summary Record a maintenance event
// @Tags Maintenance
// @Accept json
// @Produce json
// @Param payload body dto.CreateMaintenanceRequest true "Maintenance payload"
// @Success 201 {object} response.Envelope
// @Router /maintenance [post]
func (h *MaintenanceHandler) Create(c *gin.Context) {
	var req dto.CreateMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	event, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Get godoc
// @Summary Get a maintenance event
// @Tags Maintenance
// @Produce json
// @Param id path int true "Maintenance ID"
// @Success 200 {object} response.Envelope
// @Router /maintenance/{id} [get]
func (h *MaintenanceHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	event, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}

// Update godoc
// @Summary Edit a maintenance event
// @Tags Maintenance
// @Accept json
// @Produce json
// @Param id path int true "Maintenance ID"
// @Param payload body dto.UpdateMaintenanceRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /maintenance/{id} [patch]
func (h *MaintenanceHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	event, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}

// Delete godoc
// @Summary Delete a maintenance event
// @Tags Maintenance
// @Param id path int true "Maintenance ID"
// @Success 204
// @Router /maintenance/{id} [delete]
func (h *MaintenanceHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
