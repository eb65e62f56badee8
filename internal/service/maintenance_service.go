package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
	"github.com/noah-isme/equipment-tracker/pkg/database"
	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
	applog "github.com/noah-isme/equipment-tracker/pkg/logger"
)

type maintenanceRepository interface {
	Create(ctx context.Context, event *models.MaintenanceEvent) error
	FindByID(ctx context.Context, id int64) (*models.MaintenanceEvent, error)
	ListByEquipment(ctx context.Context, equipmentID int64) ([]models.MaintenanceEvent, error)
	Update(ctx context.Context, id int64, patch dto.UpdateMaintenanceRequest) error
	Delete(ctx context.Context, id int64) error
}

type equipmentFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Equipment, error)
}

// MaintenanceService records completed maintenance events.
type MaintenanceService struct {
	repo      maintenanceRepository
	equipment equipmentFinder
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaintenanceService constructs the service.
func NewMaintenanceService(repo maintenanceRepository, equipment equipmentFinder, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *MaintenanceService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{repo: repo, equipment: equipment, cache: cache, validator: validate, logger: logger}
}

// Create adds an event for an existing equipment item. Cost defaults to zero.
func (s *MaintenanceService) Create(ctx context.Context, req dto.CreateMaintenanceRequest) (*models.MaintenanceEvent, error) {
	req.Type = strings.TrimSpace(req.Type)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid maintenance payload")
	}
	cost := decimal.Zero
	if req.Cost != nil {
		cost = *req.Cost
	}
	if cost.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cost must not be negative")
	}
	if _, err := s.equipment.FindByID(ctx, req.EquipmentID); err != nil {
		return nil, lookupError(err, "equipment not found", "failed to load equipment")
	}

	event := &models.MaintenanceEvent{
		EquipmentID:     req.EquipmentID,
		MaintenanceDate: req.MaintenanceDate,
		Type:            req.Type,
		Cost:            cost,
		Description:     optionalText(req.Description),
	}
	if err := s.repo.Create(ctx, event); err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "equipment not found")
		}
		return nil, appErrors.Storage(err, "failed to create maintenance")
	}

	s.invalidate(ctx)
	applog.FromContext(ctx, s.logger).Info("maintenance created",
		zap.Int64("maintenance_id", event.ID),
		zap.Int64("equipment_id", event.EquipmentID),
		zap.String("type", event.Type),
		zap.String("cost", event.Cost.StringFixed(2)),
	)
	return event, nil
}

// Get returns one event.
func (s *MaintenanceService) Get(ctx context.Context, id int64) (*models.MaintenanceEvent, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "maintenance not found", "failed to load maintenance")
	}
	return event, nil
}

// ListForEquipment returns the history of one item, most recent first.
func (s *MaintenanceService) ListForEquipment(ctx context.Context, equipmentID int64) ([]models.MaintenanceEvent, error) {
	if _, err := s.equipment.FindByID(ctx, equipmentID); err != nil {
		return nil, lookupError(err, "equipment not found", "failed to load equipment")
	}
	events, err := s.repo.ListByEquipment(ctx, equipmentID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list maintenance")
	}
	return events, nil
}

// Update edits an event.
func (s *MaintenanceService) Update(ctx context.Context, id int64, req dto.UpdateMaintenanceRequest) (*models.MaintenanceEvent, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "maintenance not found", "failed to load maintenance")
	}
	if !req.HasChanges() {
		return current, nil
	}

	if req.MaintenanceDate.Set {
		if !req.MaintenanceDate.Valid {
			return nil, appErrors.Clone(appErrors.ErrValidation, "maintenance_date is required")
		}
		if _, err := parseDate(req.MaintenanceDate.Value); err != nil {
			return nil, appErrors.Validation(err, "invalid maintenance_date")
		}
	}
	if req.Type.Set {
		value := strings.TrimSpace(req.Type.Value)
		if !req.Type.Valid || value == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "type is required")
		}
		req.Type = dto.Value(value)
	}
	if req.Cost.Set {
		if !req.Cost.Valid {
			req.Cost = dto.Value(decimal.Zero)
		}
		if req.Cost.Value.IsNegative() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cost must not be negative")
		}
	}
	if req.Description.Set {
		req.Description = clearBlank(req.Description)
	}

	if err := s.repo.Update(ctx, id, req); err != nil {
		return nil, lookupError(err, "maintenance not found", "failed to update maintenance")
	}
	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "maintenance not found", "failed to load maintenance")
	}
	s.invalidate(ctx)
	applog.FromContext(ctx, s.logger).Info("maintenance updated", zap.Int64("maintenance_id", id), zap.Int64("equipment_id", updated.EquipmentID))
	return updated, nil
}

// Delete removes an event.
func (s *MaintenanceService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "maintenance not found", "failed to delete maintenance")
	}
	s.invalidate(ctx)
	applog.FromContext(ctx, s.logger).Info("maintenance deleted", zap.Int64("maintenance_id", id))
	return nil
}

func (s *MaintenanceService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, dashboardCachePattern)
	}
}
