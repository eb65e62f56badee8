package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/equipment-tracker/internal/models"
)

// ReportRangeRequest carries an optional inclusive date range. Both ends are
// supplied together or not at all.
type ReportRangeRequest struct {
	From string `form:"from" validate:"required_with=To,omitempty,isodate"`
	To   string `form:"to" validate:"required_with=From,omitempty,isodate"`
}

// Range converts the request into the model range.
func (r ReportRangeRequest) Range() models.DateRange {
	return models.DateRange{From: r.From, To: r.To}
}

// MaintenanceScheduleRequest tunes a worklist computation. Nil fields fall back
// to the configured defaults.
type MaintenanceScheduleRequest struct {
	LookAheadDays *int   `form:"lookAheadDays" validate:"omitempty,min=0,max=3650"`
	Category      string `form:"category"`
	Today         string `form:"today" validate:"omitempty,isodate"`
}

// MaintenanceScheduleResponse is the projected worklist.
type MaintenanceScheduleResponse struct {
	Today         string                  `json:"today"`
	LookAheadDays int                     `json:"look_ahead_days"`
	Items         []models.ServiceDueItem `json:"items"`
	Skipped       int                     `json:"skipped"`
}

// DashboardSummary aggregates the headline figures of the inventory.
type DashboardSummary struct {
	TotalEquipment    int                            `json:"total_equipment"`
	StatusCounts      map[models.EquipmentStatus]int `json:"status_counts"`
	TotalPurchaseCost decimal.Decimal                `json:"total_purchase_cost"`
	Maintenance       models.MaintenanceCostSummary  `json:"maintenance"`
	Assignments       models.AssignmentCounts        `json:"assignments"`
	GeneratedAt       time.Time                      `json:"generated_at"`
}
