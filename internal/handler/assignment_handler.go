package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/middleware"
	"github.com/noah-isme/equipment-tracker/internal/models"
	"github.com/noah-isme/equipment-tracker/pkg/response"
)

type assignmentService interface {
	Create(ctx context.Context, req dto.CreateAssignmentRequest) (*models.Assignment, error)
	Get(ctx context.Context, id int64) (*models.Assignment, error)
	List(ctx context.Context, req dto.AssignmentListRequest) ([]models.AssignmentDetail, error)
	Update(ctx context.Context, id int64, req dto.UpdateAssignmentRequest) (*models.Assignment, error)
	Delete(ctx context.Context, id int64) error
}

// AssignmentHandler manages the assignment ledger.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(service assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

// List godoc
// @Summary List assignments with equipment details
// @Tags Assignments
// @Produce json
// @Param active query bool false "Only open assignments"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	var req dto.AssignmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, invalidQuery(err))
		return
	}
	items, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", len(items))
	response.OK(c, items, middleware.ExtractMeta(c))
}

// Create godoc
// @Summary Assign equipment to a holder
// @Description The holder becomes the item's current location.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Get godoc
// @Summary Get an assignment
// @Tags Assignments
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Update godoc
// @Summary Edit or close an assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param payload body dto.UpdateAssignmentRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [patch]
func (h *AssignmentHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Delete godoc
// @Summary Delete an assignment
// @Tags Assignments
// @Param id path int true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
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
