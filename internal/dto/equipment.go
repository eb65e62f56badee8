package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/equipment-tracker/internal/models"
)

// CreateEquipmentRequest registers a new asset.
type CreateEquipmentRequest struct {
	InventoryNumber string                 `json:"inventory_number" validate:"required,max=64"`
	Name            string                 `json:"name" validate:"required,max=255"`
	Category        *string                `json:"category"`
	PurchaseDate    *string                `json:"purchase_date" validate:"omitempty,isodate"`
	PurchasePrice   *decimal.Decimal       `json:"purchase_price"`
	CurrentLocation *string                `json:"current_location"`
	Status          models.EquipmentStatus `json:"status" validate:"omitempty,equipment_status"`
}

// UpdateEquipmentRequest is a whitelisted partial update. Keys that are not
// listed here are ignored by the JSON decoder.
type UpdateEquipmentRequest struct {
	InventoryNumber Patch[string]                 `json:"inventory_number"`
	Name            Patch[string]                 `json:"name"`
	Category        Patch[string]                 `json:"category"`
	PurchaseDate    Patch[string]                 `json:"purchase_date"`
	PurchasePrice   Patch[decimal.Decimal]        `json:"purchase_price"`
	CurrentLocation Patch[string]                 `json:"current_location"`
	Status          Patch[models.EquipmentStatus] `json:"status"`
}

// HasChanges reports whether any field was supplied.
func (r UpdateEquipmentRequest) HasChanges() bool {
	return r.InventoryNumber.Set || r.Name.Set || r.Category.Set || r.PurchaseDate.Set ||
		r.PurchasePrice.Set || r.CurrentLocation.Set || r.Status.Set
}

// EquipmentListRequest filters equipment listings.
type EquipmentListRequest struct {
	Category string                 `form:"category"`
	Status   models.EquipmentStatus `form:"status" validate:"omitempty,equipment_status"`
}

// EquipmentLookupRequest carries an inventory number that cannot travel as a path segment.
type EquipmentLookupRequest struct {
	InventoryNumber string `form:"inventory_number" binding:"required"`
}

// CatalogResponse lists the pick-lists offered by the UI.
type CatalogResponse struct {
	Categories       []string                 `json:"categories"`
	MaintenanceTypes []string                 `json:"maintenance_types"`
	Statuses         []models.EquipmentStatus `json:"statuses"`
}
