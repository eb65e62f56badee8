package models

// ServiceStatus classifies a worklist entry.
type ServiceStatus string

const (
	ServiceStatusOverdue         ServiceStatus = "overdue"
	ServiceStatusScheduled       ServiceStatus = "scheduled"
	ServiceStatusFirstServiceDue ServiceStatus = "first-service-due"
)

// ServiceDueItem is one projected maintenance entry. LastServiceDate and
// ServiceType are nil when the baseline is the purchase date.
type ServiceDueItem struct {
	Equipment            Equipment     `json:"equipment"`
	LastServiceDate      *string       `json:"last_service_date"`
	DaysSinceLastService int           `json:"days_since_last_service"`
	ServiceType          *string       `json:"service_type"`
	IntervalDays         int           `json:"interval_days"`
	NextDue              string        `json:"next_due"`
	Status               ServiceStatus `json:"status"`
}
