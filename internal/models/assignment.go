package models

// Assignment is a time interval during which an equipment item is held by a
// person or department. A nil EndDate marks the assignment as open.
type Assignment struct {
	ID          int64   `db:"id" json:"id"`
	EquipmentID int64   `db:"equipment_id" json:"equipment_id"`
	AssignedTo  string  `db:"assigned_to" json:"assigned_to"`
	Department  *string `db:"department" json:"department,omitempty"`
	StartDate   string  `db:"start_date" json:"start_date"`
	EndDate     *string `db:"end_date" json:"end_date"`
}

// IsOpen reports whether the assignment has no end date.
func (a Assignment) IsOpen() bool {
	return a.EndDate == nil
}

// Location renders the holder as stored in Equipment.current_location.
func (a Assignment) Location() string {
	return FormatLocation(a.AssignedTo, a.Department)
}

// FormatLocation renders "holder" or "holder (department)".
func FormatLocation(assignedTo string, department *string) string {
	if department == nil || *department == "" {
		return assignedTo
	}
	return assignedTo + " (" + *department + ")"
}

// AssignmentDetail enriches an assignment with equipment identity fields.
type AssignmentDetail struct {
	Assignment
	InventoryNumber string `db:"inventory_number" json:"inventory_number"`
	EquipmentName   string `db:"equipment_name" json:"equipment_name"`
}
