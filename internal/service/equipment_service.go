package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
	"github.com/noah-isme/equipment-tracker/internal/repository"
	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
	applog "github.com/noah-isme/equipment-tracker/pkg/logger"
)

type equipmentRepository interface {
	Create(ctx context.Context, equipment *models.Equipment) error
	FindByID(ctx context.Context, id int64) (*models.Equipment, error)
	FindByInventoryNumber(ctx context.Context, inventoryNumber string) (*models.Equipment, error)
	ExistsByInventoryNumber(ctx context.Context, inventoryNumber string, excludeID int64) (bool, error)
	List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, error)
	Update(ctx context.Context, id int64, patch dto.UpdateEquipmentRequest) error
	Delete(ctx context.Context, id int64) error
}

type openAssignmentFinder interface {
	OpenForEquipment(ctx context.Context, equipmentID int64) (*models.Assignment, error)
}

// EquipmentService implements the equipment registry.
type EquipmentService struct {
	repo        equipmentRepository
	assignments openAssignmentFinder
	cache       cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEquipmentService constructs the registry service.
func NewEquipmentService(repo equipmentRepository, assignments openAssignmentFinder, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *EquipmentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EquipmentService{repo: repo, assignments: assignments, cache: cache, validator: validate, logger: logger}
}

// List returns equipment ordered by inventory number.
func (s *EquipmentService) List(ctx context.Context, req dto.EquipmentListRequest) ([]models.Equipment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid equipment filter")
	}
	items, err := s.repo.List(ctx, models.EquipmentFilter{Category: strings.TrimSpace(req.Category), Status: req.Status})
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list equipment")
	}
	return items, nil
}

// Get returns one item by id.
func (s *EquipmentService) Get(ctx context.Context, id int64) (*models.Equipment, error) {
	equipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "equipment not found", "failed to load equipment")
	}
	return equipment, nil
}

// GetByInventoryNumber resolves the business key.
func (s *EquipmentService) GetByInventoryNumber(ctx context.Context, inventoryNumber string) (*models.Equipment, error) {
	equipment, err := s.repo.FindByInventoryNumber(ctx, strings.TrimSpace(inventoryNumber))
	if err != nil {
		return nil, lookupError(err, fmt.Sprintf("equipment %s not found", inventoryNumber), "failed to load equipment")
	}
	return equipment, nil
}

// Create registers a new item. A reused inventory number is a DuplicateKey error.
func (s *EquipmentService) Create(ctx context.Context, req dto.CreateEquipmentRequest) (*models.Equipment, error) {
	req.InventoryNumber = strings.TrimSpace(req.InventoryNumber)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid equipment payload")
	}
	if req.PurchasePrice != nil && req.PurchasePrice.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "purchase_price must not be negative")
	}

	exists, err := s.repo.ExistsByInventoryNumber(ctx, req.InventoryNumber, 0)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to validate inventory number")
	}
	if exists {
		return nil, duplicateInventoryNumber(req.InventoryNumber)
	}

	equipment := &models.Equipment{
		InventoryNumber: req.InventoryNumber,
		Name:            req.Name,
		Category:        optionalText(req.Category),
		PurchaseDate:    optionalText(req.PurchaseDate),
		CurrentLocation: optionalText(req.CurrentLocation),
		Status:          req.Status,
	}
	if req.PurchasePrice != nil {
		equipment.PurchasePrice.Decimal = *req.PurchasePrice
		equipment.PurchasePrice.Valid = true
	}
	if equipment.Status == "" {
		equipment.Status = models.EquipmentStatusActive
	}

	if err := s.repo.Create(ctx, equipment); err != nil {
		if errors.Is(err, repository.ErrDuplicateInventoryNumber) {
			return nil, duplicateInventoryNumber(req.InventoryNumber)
		}
		return nil, appErrors.Storage(err, "failed to create equipment")
	}

	s.invalidate(ctx)
	applog.FromContext(ctx, s.logger).Info("equipment created",
		zap.Int64("equipment_id", equipment.ID),
		zap.String("inventory_number", equipment.InventoryNumber),
	)
	return equipment, nil
}

// Update applies a whitelisted partial update and returns the stored row.
func (s *EquipmentService) Update(ctx context.Context, id int64, req dto.UpdateEquipmentRequest) (*models.Equipment, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "equipment not found", "failed to load equipment")
	}
	if !req.HasChanges() {
		return current, nil
	}

	patch, err := s.normaliseUpdate(ctx, id, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrDuplicateInventoryNumber) {
			return nil, duplicateInventoryNumber(patch.InventoryNumber.Value)
		}
		return nil, lookupError(err, "equipment not found", "failed to update equipment")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "equipment not found", "failed to load equipment")
	}
	s.invalidate(ctx)
	applog.FromContext(ctx, s.logger).Info("equipment updated", zap.Int64("equipment_id", id), zap.String("inventory_number", updated.InventoryNumber))
	return updated, nil
}

func (s *EquipmentService) normaliseUpdate(ctx context.Context, id int64, req dto.UpdateEquipmentRequest) (dto.UpdateEquipmentRequest, error) {
	if req.InventoryNumber.Set {
		value := strings.TrimSpace(req.InventoryNumber.Value)
		if !req.InventoryNumber.Valid || value == "" {
			return req, appErrors.Clone(appErrors.ErrValidation, "inventory_number is required")
		}
		if len(value) > 64 {
			return req, appErrors.Clone(appErrors.ErrValidation, "inventory_number is too long")
		}
		exists, err := s.repo.ExistsByInventoryNumber(ctx, value, id)
		if err != nil {
			return req, appErrors.Storage(err, "failed to validate inventory number")
		}
		if exists {
			return req, duplicateInventoryNumber(value)
		}
		req.InventoryNumber = dto.Value(value)
	}
	if req.Name.Set {
		value := strings.TrimSpace(req.Name.Value)
		if !req.Name.Valid || value == "" {
			return req, appErrors.Clone(appErrors.ErrValidation, "name is required")
		}
		req.Name = dto.Value(value)
	}
	if req.Category.Set {
		req.Category = clearBlank(req.Category)
	}
	if req.PurchaseDate.Set {
		req.PurchaseDate = clearBlank(req.PurchaseDate)
		if req.PurchaseDate.Valid {
			if _, err := parseDate(req.PurchaseDate.Value); err != nil {
				return req, appErrors.Validation(err, "invalid purchase_date")
			}
		}
	}
	if req.PurchasePrice.Valid && req.PurchasePrice.Value.IsNegative() {
		return req, appErrors.Clone(appErrors.ErrValidation, "purchase_price must not be negative")
	}
	if req.Status.Set && (!req.Status.Valid || !req.Status.Value.Valid()) {
		return req, appErrors.Clone(appErrors.ErrValidation, "status must be one of active, in_repair, written_off, reserved")
	}
	if req.CurrentLocation.Set {
		req.CurrentLocation = clearBlank(req.CurrentLocation)
		if s.assignments != nil {
			open, err := s.assignments.OpenForEquipment(ctx, id)
			if err != nil {
				return req, appErrors.Storage(err, "failed to load open assignment")
			}
			if open != nil {
				return req, appErrors.Clone(appErrors.ErrValidation, "current_location follows the open assignment; close it first")
			}
		}
	}
	return req, nil
}

// Delete removes the item together with its maintenance history and assignments.
func (s *EquipmentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "equipment not found", "failed to delete equipment")
	}
	s.invalidate(ctx)
	applog.FromContext(ctx, s.logger).Info("equipment deleted", zap.Int64("equipment_id", id))
	return nil
}

func (s *EquipmentService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, dashboardCachePattern)
	}
}

func duplicateInventoryNumber(inventoryNumber string) error {
	return appErrors.Clone(appErrors.ErrDuplicateKey, fmt.Sprintf("inventory number %s already exists", inventoryNumber))
}

func clearBlank(p dto.Patch[string]) dto.Patch[string] {
	if !p.Valid {
		return p
	}
	value := strings.TrimSpace(p.Value)
	if value == "" {
		return dto.Null[string]()
	}
	return dto.Value(value)
}
