package dto

import "github.com/shopspring/decimal"

// CreateMaintenanceRequest records a completed service.
type CreateMaintenanceRequest struct {
	EquipmentID     int64            `json:"equipment_id" validate:"required,min=1"`
	MaintenanceDate string           `json:"maintenance_date" validate:"required,isodate"`
	Type            string           `json:"type" validate:"required,max=128"`
	Cost            *decimal.Decimal `json:"cost"`
	Description     *string          `json:"description"`
}

// UpdateMaintenanceRequest edits an existing event.
type UpdateMaintenanceRequest struct {
	MaintenanceDate Patch[string]          `json:"maintenance_date"`
	Type            Patch[string]          `json:"type"`
	Cost            Patch[decimal.Decimal] `json:"cost"`
	Description     Patch[string]          `json:"description"`
}

// HasChanges reports whether any field was supplied.
func (r UpdateMaintenanceRequest) HasChanges() bool {
	return r.MaintenanceDate.Set || r.Type.Set || r.Cost.Set || r.Description.Set
}
