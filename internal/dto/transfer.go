package dto

import "time"

// ExportFormat enumerates rendered export types.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// ExportDataset names the table being exported.
type ExportDataset string

const (
	ExportDatasetEquipment    ExportDataset = "equipment"
	ExportDatasetMaintenance  ExportDataset = "maintenance"
	ExportDatasetDepreciation ExportDataset = "depreciation"
	ExportDatasetSchedule     ExportDataset = "schedule"
)

// ExportRequest selects a dataset and format.
type ExportRequest struct {
	Dataset ExportDataset `uri:"dataset" validate:"required,oneof=equipment maintenance depreciation schedule"`
	Format  ExportFormat  `form:"format" validate:"omitempty,oneof=csv pdf xlsx"`
	From    string        `form:"from" validate:"omitempty,isodate"`
	To      string        `form:"to" validate:"omitempty,isodate"`
}

// ExportResult describes a rendered file.
type ExportResult struct {
	Filename    string       `json:"filename"`
	Path        string       `json:"path"`
	Format      ExportFormat `json:"format"`
	ContentType string       `json:"content_type"`
	Rows        int          `json:"rows"`
}

// ImportIssue is a per-row message produced during import.
type ImportIssue struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarises a CSV import batch.
type ImportResult struct {
	Imported int           `json:"imported"`
	Errors   []ImportIssue `json:"errors"`
	Warnings []ImportIssue `json:"warnings"`
}

// BackupInfo describes one snapshot of the store.
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// RestoreBackupRequest names the snapshot to restore.
type RestoreBackupRequest struct {
	Filename string `json:"filename" validate:"required"`
}
