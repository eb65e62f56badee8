package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// EquipmentStatus is the closed lifecycle enumeration of an asset.
type EquipmentStatus string

const (
	EquipmentStatusActive     EquipmentStatus = "active"
	EquipmentStatusInRepair   EquipmentStatus = "in_repair"
	EquipmentStatusWrittenOff EquipmentStatus = "written_off"
	EquipmentStatusReserved   EquipmentStatus = "reserved"
)

// EquipmentStatuses lists every accepted status in display order.
var EquipmentStatuses = []EquipmentStatus{
	EquipmentStatusActive,
	EquipmentStatusInRepair,
	EquipmentStatusWrittenOff,
	EquipmentStatusReserved,
}

// Valid reports whether the status belongs to the enumeration.
func (s EquipmentStatus) Valid() bool {
	for _, status := range EquipmentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Equipment represents a physical asset.
type Equipment struct {
	ID              int64               `db:"id" json:"id"`
	InventoryNumber string              `db:"inventory_number" json:"inventory_number"`
	Name            string              `db:"name" json:"name"`
	Category        *string             `db:"category" json:"category,omitempty"`
	PurchaseDate    *string             `db:"purchase_date" json:"purchase_date,omitempty"`
	PurchasePrice   decimal.NullDecimal `db:"purchase_price" json:"purchase_price"`
	CurrentLocation *string             `db:"current_location" json:"current_location,omitempty"`
	Status          EquipmentStatus     `db:"status" json:"status"`
}

// CategoryName returns the category or an empty string.
func (e Equipment) CategoryName() string {
	if e.Category == nil {
		return ""
	}
	return *e.Category
}

// EquipmentFilter narrows equipment listings.
type EquipmentFilter struct {
	Category string
	Status   EquipmentStatus
}

// EquipmentCategories is the pick-list offered to operators. Category stays free text.
var EquipmentCategories = []string{
	"Компьютерная техника",
	"Офисная мебель",
	"Оргтехника",
	"Производственное оборудование",
	"Транспорт",
	"Другое",
}

var statusLabels = map[EquipmentStatus]string{
	EquipmentStatusActive:     "Активно",
	EquipmentStatusInRepair:   "В ремонте",
	EquipmentStatusWrittenOff: "Списано",
	EquipmentStatusReserved:   "Резерв",
}

// Label returns the operator-facing name of the status.
func (s EquipmentStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// ParseEquipmentStatus accepts a status code or its label, ignoring case.
func ParseEquipmentStatus(raw string) (EquipmentStatus, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, status := range EquipmentStatuses {
		if raw == string(status) || raw == strings.ToLower(statusLabels[status]) {
			return status, true
		}
	}
	return "", false
}
