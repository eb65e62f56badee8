package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/middleware"
	"github.com/noah-isme/equipment-tracker/internal/models"
	"github.com/noah-isme/equipment-tracker/pkg/response"
)

type equipmentService interface {
	List(ctx context.Context, req dto.EquipmentListRequest) ([]models.Equipment, error)
	Get(ctx context.Context, id int64) (*models.Equipment, error)
	GetByInventoryNumber(ctx context.Context, inventoryNumber string) (*models.Equipment, error)
	Create(ctx context.Context, req dto.CreateEquipmentRequest) (*models.Equipment, error)
	Update(ctx context.Context, id int64, req dto.UpdateEquipmentRequest) (*models.Equipment, error)
	Delete(ctx context.Context, id int64) error
}

type maintenanceHistory interface {
	ListForEquipment(ctx context.Context, equipmentID int64) ([]models.MaintenanceEvent, error)
}

type assignmentHistory interface {
	ListForEquipment(ctx context.Context, equipmentID int64) ([]models.Assignment, error)
}

// EquipmentHandler exposes the equipment registry.
type EquipmentHandler struct {
	equipment   equipmentService
	maintenance maintenanceHistory
	assignments assignmentHistory
}

// NewEquipmentHandler constructs EquipmentHandler.
func NewEquipmentHandler(equipment equipmentService, maintenance maintenanceHistory, assignments assignmentHistory) *EquipmentHandler {
	return &EquipmentHandler{equipment: equipment, maintenance: maintenance, assignments: assignments}
}

// List godoc
// @Summary List equipment
// @Tags Equipment
// @Produce json
// @Param category query string false "Category filter"
// @Param status query string false "Status filter" Enums(active, in_repair, written_off, reserved)
// @Success 200 {object} response.Envelope
// @Router /equipment [get]
func (h *EquipmentHandler) List(c *gin.Context) {
	var req dto.EquipmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, invalidQuery(err))
		return
	}
	items, err := h.equipment.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", len(items))
	response.OK(c, items, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get equipment
// @Tags Equipment
// @Produce json
// @Param id path int true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /equipment/{id} [get]
func (h *EquipmentHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.equipment.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Lookup godoc
// @Summary Find equipment by inventory number
// @Description Inventory numbers containing "/" must use the inventory_number query form.
// @Tags Equipment
// @Produce json
// @Param inventoryNumber path string true "Inventory number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /equipment/lookup/{inventoryNumber} [get]
func (h *EquipmentHandler) Lookup(c *gin.Context) {
	h.lookup(c, c.Param("inventoryNumber"))
}

// LookupByQuery godoc
// @Summary Find equipment by inventory number (query form)
// @Tags Equipment
// @Produce json
// @Param inventory_number query string true "Inventory number"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /equipment/lookup [get]
func (h *EquipmentHandler) LookupByQuery(c *gin.Context) {
	var req dto.EquipmentLookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, invalidQuery(err))
		return
	}
	h.lookup(c, req.InventoryNumber)
}

func (h *EquipmentHandler) lookup(c *gin.Context, inventoryNumber string) {
	item, err := h.equipment.GetByInventoryNumber(c.Request.Context(), inventoryNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Create godoc
// @Summary Register equipment
// @Tags Equipment
// @Accept json
// @Produce json
// @Param payload body dto.CreateEquipmentRequest true "Equipment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /equipment [post]
func (h *EquipmentHandler) Create(c *gin.Context) {
	var req dto.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.equipment.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update equipment fields
// @Description Only the listed keys are applied; an explicit null clears an optional field.
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path int true "Equipment ID"
// @Param payload body dto.UpdateEquipmentRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /equipment/{id} [patch]
func (h *EquipmentHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.equipment.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Delete godoc
// @Summary Delete equipment with its maintenance and assignment history
// @Tags Equipment
// @Param id path int true "Equipment ID"
// @Success 204
// @Router /equipment/{id} [delete]
func (h *EquipmentHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.equipment.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Maintenance godoc
// @Summary Maintenance history of one item
// @Tags Equipment
// @Produce json
// @Param id path int true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Router /equipment/{id}/maintenance [get]
func (h *EquipmentHandler) Maintenance(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	events, err := h.maintenance.ListForEquipment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// Assignments godoc
// @Summary Assignment history of one item
// @Tags Equipment
// @Produce json
// @Param id path int true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Router /equipment/{id}/assignments [get]
func (h *EquipmentHandler) Assignments(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.assignments.ListForEquipment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Catalog godoc
// @Summary Pick-lists for categories, maintenance types and statuses
// @Tags Equipment
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *EquipmentHandler) Catalog(c *gin.Context) {
	response.OK(c, dto.CatalogResponse{
		Categories:       models.EquipmentCategories,
		MaintenanceTypes: models.MaintenanceTypes,
		Statuses:         models.EquipmentStatuses,
	})
}
