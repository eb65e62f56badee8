package models

import "github.com/shopspring/decimal"

// MaintenanceEvent is one serviced or repaired occurrence for an equipment item.
type MaintenanceEvent struct {
	ID              int64           `db:"id" json:"id"`
	EquipmentID     int64           `db:"equipment_id" json:"equipment_id"`
	MaintenanceDate string          `db:"maintenance_date" json:"maintenance_date"`
	Type            string          `db:"type" json:"type"`
	Cost            decimal.Decimal `db:"cost" json:"cost"`
	Description     *string         `db:"description" json:"description,omitempty"`
}

// MaintenanceReportRow joins an event with the identity of its equipment.
type MaintenanceReportRow struct {
	MaintenanceEvent
	InventoryNumber string  `db:"inventory_number" json:"inventory_number"`
	EquipmentName   string  `db:"equipment_name" json:"equipment_name"`
	Category        *string `db:"category" json:"category,omitempty"`
}

// MaintenanceTypes is the curated pick-list of service kinds. Type stays free text.
var MaintenanceTypes = []string{
	"Плановое ТО",
	"Внеплановое ТО",
	"Ремонт",
	"Калибровка",
	"Осмотр",
	"Замена расходников",
	"Другое",
}
