package models

import "github.com/shopspring/decimal"

// DateRange bounds a report by inclusive ISO dates. Both ends must be set
// for the range to apply.
type DateRange struct {
	From string
	To   string
}

// Active reports whether both bounds are present.
func (r DateRange) Active() bool {
	return r.From != "" && r.To != ""
}

// DepreciationRow summarises the cost of ownership of one equipment item.
type DepreciationRow struct {
	ID                   int64               `json:"id"`
	InventoryNumber      string              `json:"inventory_number"`
	Name                 string              `json:"name"`
	Category             *string             `json:"category,omitempty"`
	PurchaseDate         *string             `json:"purchase_date,omitempty"`
	PurchasePrice        decimal.NullDecimal `json:"purchase_price"`
	Status               EquipmentStatus     `json:"status"`
	TotalMaintenanceCost decimal.Decimal     `json:"total_maintenance_cost"`
	DaysInUse            int                 `json:"days_in_use"`
}

// MaintenanceCostSummary aggregates maintenance spend.
type MaintenanceCostSummary struct {
	Count       int             `json:"count"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	AverageCost decimal.Decimal `json:"average_cost"`
}

// EquipmentCost pairs an equipment id with one maintenance cost.
type EquipmentCost struct {
	EquipmentID int64           `db:"equipment_id"`
	Cost        decimal.Decimal `db:"cost"`
}

// StatusCount is one row of the equipment-per-status aggregate.
type StatusCount struct {
	Status EquipmentStatus `db:"status" json:"status"`
	Count  int             `db:"count" json:"count"`
}

// AssignmentCounts summarises the ledger.
type AssignmentCounts struct {
	Total  int `db:"total" json:"total"`
	Active int `db:"active" json:"active"`
}
