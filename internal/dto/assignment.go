package dto

// CreateAssignmentRequest hands an item to a holder. StartDate defaults to today.
type CreateAssignmentRequest struct {
	EquipmentID int64   `json:"equipment_id" validate:"required,min=1"`
	AssignedTo  string  `json:"assigned_to" validate:"required,max=255"`
	Department  *string `json:"department"`
	StartDate   string  `json:"start_date" validate:"omitempty,isodate"`
	EndDate     *string `json:"end_date" validate:"omitempty,isodate"`
}

// UpdateAssignmentRequest edits an assignment. An explicit null end_date re-opens it.
type UpdateAssignmentRequest struct {
	AssignedTo Patch[string] `json:"assigned_to"`
	Department Patch[string] `json:"department"`
	StartDate  Patch[string] `json:"start_date"`
	EndDate    Patch[string] `json:"end_date"`
}

// HasChanges reports whether any field was supplied.
func (r UpdateAssignmentRequest) HasChanges() bool {
	return r.AssignedTo.Set || r.Department.Set || r.StartDate.Set || r.EndDate.Set
}

// AssignmentListRequest filters the ledger.
type AssignmentListRequest struct {
	ActiveOnly bool `form:"active"`
}
