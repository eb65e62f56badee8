package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
	"github.com/noah-isme/equipment-tracker/internal/repository"
	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
	applog "github.com/noah-isme/equipment-tracker/pkg/logger"
)

type assignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.Assignment, error)
	ListByEquipment(ctx context.Context, equipmentID int64) ([]models.Assignment, error)
	List(ctx context.Context, activeOnly bool) ([]models.AssignmentDetail, error)
}

// AssignmentService maintains the assignment ledger. At most one assignment per
// equipment is open; the store recomputes current_location on every write.
type AssignmentService struct {
	repo      assignmentRepository
	equipment equipmentFinder
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAssignmentService constructs the ledger service.
func NewAssignmentService(repo assignmentRepository, equipment equipmentFinder, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, equipment: equipment, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// Create hands an item to a holder. An open assignment closes the previous open
// one on the new start date.
func (s *AssignmentService) Create(ctx context.Context, req dto.CreateAssignmentRequest) (*models.Assignment, error) {
	req.AssignedTo = strings.TrimSpace(req.AssignedTo)
	req.EndDate = optionalText(req.EndDate)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid assignment payload")
	}
	if req.StartDate == "" {
		req.StartDate = s.now().Format(DateLayout)
	}

	assignment := &models.Assignment{
		EquipmentID: req.EquipmentID,
		AssignedTo:  req.AssignedTo,
		Department:  optionalText(req.Department),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := validatePeriod(assignment); err != nil {
		return nil, err
	}
	if _, err := s.equipment.FindByID(ctx, req.EquipmentID); err != nil {
		return nil, lookupError(err, "equipment not found", "failed to load equipment")
	}

	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, ledgerError(err, "failed to create assignment")
	}

	s.invalidate(ctx)
	applog.FromContext(ctx, s.logger).Info("assignment created",
		zap.Int64("assignment_id", assignment.ID),
		zap.Int64("equipment_id", assignment.EquipmentID),
		zap.String("location", assignment.Location()),
		zap.String("start_date", assignment.StartDate),
	)
	return assignment, nil
}

// Get returns one assignment.
func (s *AssignmentService) Get(ctx context.Context, id int64) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "assignment not found", "failed to load assignment")
	}
	return assignment, nil
}

// ListForEquipment returns the ledger of one item, newest first.
func (s *AssignmentService) ListForEquipment(ctx context.Context, equipmentID int64) ([]models.Assignment, error) {
	if _, err := s.equipment.FindByID(ctx, equipmentID); err != nil {
		return nil, lookupError(err, "equipment not found", "failed to load equipment")
	}
	items, err := s.repo.ListByEquipment(ctx, equipmentID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list assignments")
	}
	return items, nil
}

// List returns the ledger across all equipment.
func (s *AssignmentService) List(ctx context.Context, req dto.AssignmentListRequest) ([]models.AssignmentDetail, error) {
	items, err := s.repo.List(ctx, req.ActiveOnly)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list assignments")
	}
	return items, nil
}

// Update edits an assignment. Clearing end_date re-opens it, which is refused
// while another assignment of the same item is open.
func (s *AssignmentService) Update(ctx context.Context, id int64, req dto.UpdateAssignmentRequest) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "assignment not found", "failed to load assignment")
	}
	if !req.HasChanges() {
		return assignment, nil
	}

	if req.AssignedTo.Set {
		value := strings.TrimSpace(req.AssignedTo.Value)
		if !req.AssignedTo.Valid || value == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "assigned_to is required")
		}
		assignment.AssignedTo = value
	}
	if req.Department.Set {
		assignment.Department = clearBlank(req.Department).Ptr()
	}
	if req.StartDate.Set {
		if !req.StartDate.Valid {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start_date is required")
		}
		if _, err := parseDate(req.StartDate.Value); err != nil {
			return nil, appErrors.Validation(err, "invalid start_date")
		}
		assignment.StartDate = req.StartDate.Value
	}
	if req.EndDate.Set {
		end := clearBlank(req.EndDate)
		if end.Valid {
			if _, err := parseDate(end.Value); err != nil {
				return nil, appErrors.Validation(err, "invalid end_date")
			}
		}
		assignment.EndDate = end.Ptr()
	}
	if err := validatePeriod(assignment); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, assignment); err != nil {
		return nil, ledgerError(err, "failed to update assignment")
	}
	s.invalidate(ctx)
	applog.FromContext(ctx, s.logger).Info("assignment updated", zap.Int64("assignment_id", id), zap.Int64("equipment_id", assignment.EquipmentID))
	return assignment, nil
}

// Delete removes an assignment.
func (s *AssignmentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "assignment not found", "failed to delete assignment")
	}
	s.invalidate(ctx)
	applog.FromContext(ctx, s.logger).Info("assignment deleted", zap.Int64("assignment_id", id))
	return nil
}

func (s *AssignmentService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, dashboardCachePattern)
	}
}

func validatePeriod(a *models.Assignment) error {
	if a.EndDate != nil && *a.EndDate < a.StartDate {
		return appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}
	return nil
}

func ledgerError(err error, failure string) error {
	switch {
	case errors.Is(err, repository.ErrStartsBeforeOpenAssignment):
		return appErrors.Clone(appErrors.ErrValidation, "start_date precedes the start of the open assignment")
	case errors.Is(err, repository.ErrOpenAssignmentExists):
		return appErrors.Clone(appErrors.ErrValidation, "equipment already has an open assignment")
	default:
		return lookupError(err, "assignment not found", failure)
	}
}
