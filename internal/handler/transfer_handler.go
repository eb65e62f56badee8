package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
	"github.com/noah-isme/equipment-tracker/pkg/response"
)

type exportService interface {
	Export(ctx context.Context, req dto.ExportRequest) (*dto.ExportResult, error)
}

type importService interface {
	ImportEquipment(ctx context.Context, r io.Reader) (*dto.ImportResult, error)
}

type backupService interface {
	Create(ctx context.Context) (*dto.BackupInfo, error)
	List(ctx context.Context) ([]dto.BackupInfo, error)
	Restore(ctx context.Context, req dto.RestoreBackupRequest) (*dto.BackupInfo, error)
}

// TransferHandler moves data in and out of the tracker: exports, CSV import
// and database backups.
type TransferHandler struct {
	exports exportService
	imports importService
	backups backupService
}

// NewTransferHandler constructs TransferHandler.
func NewTransferHandler(exports exportService, imports importService, backups backupService) *TransferHandler {
	return &TransferHandler{exports: exports, imports: imports, backups: backups}
}

// Export godoc
// @Summary Render a dataset to a file
// @Tags Transfer
// @Produce octet-stream
// @Param dataset path string true "Dataset" Enums(equipment, maintenance, depreciation, schedule)
// @Param format query string false "Format" Enums(csv, pdf, xlsx)
// @Param from query string false "Start date for maintenance"
// @Param to query string false "End date for maintenance"
// @Success 200 {file} file
// @Router /exports/{dataset} [get]
func (h *TransferHandler) Export(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, invalidQuery(err))
		return
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, invalidQuery(err))
		return
	}
	result, err := h.exports.Export(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Type", result.ContentType)
	c.FileAttachment(result.Path, result.Filename)
}

// ImportEquipment godoc
// @Summary Import equipment from a CSV file
// @Description Rows are processed independently; failures are reported per row.
// @Tags Transfer
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 200 {object} response.Envelope
// @Router /imports/equipment [post]
func (h *TransferHandler) ImportEquipment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Validation(err, "failed to open file"))
		return
	}
	defer src.Close()

	result, err := h.imports.ImportEquipment(c.Request.Context(), src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// ListBackups godoc
// @Summary List database backups, newest first
// @Tags Transfer
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /backups [get]
func (h *TransferHandler) ListBackups(c *gin.Context) {
	items, err := h.backups.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// CreateBackup godoc
// @Summary Snapshot the database
// @Tags Transfer
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /backups [post]
func (h *TransferHandler) CreateBackup(c *gin.Context) {
	info, err := h.backups.Create(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, info)
}

// RestoreBackup godoc
// @Summary Replace the database with a backup
// @Tags Transfer
// @Accept json
// @Produce json
// @Param payload body dto.RestoreBackupRequest true "Backup to restore"
// @Success 200 {object} response.Envelope
// @Router /backups/restore [post]
func (h *TransferHandler) RestoreBackup(c *gin.Context) {
	var req dto.RestoreBackupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	info, err := h.backups.Restore(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, info)
}
