package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/middleware"
	"github.com/noah-isme/equipment-tracker/internal/models"
	"github.com/noah-isme/equipment-tracker/pkg/response"
)

type reportService interface {
	MaintenanceReport(ctx context.Context, req dto.ReportRangeRequest) ([]models.MaintenanceReportRow, error)
	MaintenanceCostSummary(ctx context.Context, req dto.ReportRangeRequest) (*models.MaintenanceCostSummary, error)
	Depreciation(ctx context.Context) ([]models.DepreciationRow, error)
}

type worklistService interface {
	Worklist(ctx context.Context, req dto.MaintenanceScheduleRequest) (*dto.MaintenanceScheduleResponse, error)
}

// ReportHandler serves read-only reports and the maintenance worklist.
type ReportHandler struct {
	reports  reportService
	schedule worklistService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports reportService, schedule worklistService) *ReportHandler {
	return &ReportHandler{reports: reports, schedule: schedule}
}

// Maintenance godoc
// @Summary Maintenance events joined with equipment
// @Tags Reports
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /reports/maintenance [get]
func (h *ReportHandler) Maintenance(c *gin.Context) {
	var req dto.ReportRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, invalidQuery(err))
		return
	}
	rows, err := h.reports.MaintenanceReport(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", len(rows))
	response.OK(c, rows, middleware.ExtractMeta(c))
}

// MaintenanceSummary godoc
// @Summary Count, total and average maintenance cost
// @Tags Reports
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /reports/maintenance/summary [get]
func (h *ReportHandler) MaintenanceSummary(c *gin.Context) {
	var req dto.ReportRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, invalidQuery(err))
		return
	}
	summary, err := h.reports.MaintenanceCostSummary(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}

// Depreciation godoc
// @Summary Cost of ownership per item
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/depreciation [get]
func (h *ReportHandler) Depreciation(c *gin.Context) {
	rows, err := h.reports.Depreciation(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", len(rows))
	response.OK(c, rows, middleware.ExtractMeta(c))
}

// Schedule godoc
// @Summary Preventive maintenance worklist
// @Tags Reports
// @Produce json
// @Param lookAheadDays query int false "Horizon in days"
// @Param category query string false "Category filter"
// @Param today query string false "Reference date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /maintenance-schedule [get]
func (h *ReportHandler) Schedule(c *gin.Context) {
	var req dto.MaintenanceScheduleRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, invalidQuery(err))
		return
	}
	worklist, err := h.schedule.Worklist(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, worklist)
}
