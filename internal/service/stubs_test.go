package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
	"github.com/noah-isme/equipment-tracker/internal/repository"
	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
)

// memoryEquipmentRepo mimics the SQLite repository closely enough for service tests.
type memoryEquipmentRepo struct {
	items     map[int64]models.Equipment
	nextID    int64
	createErr error
	listErr   error
}

func newMemoryEquipmentRepo() *memoryEquipmentRepo {
	return &memoryEquipmentRepo{items: make(map[int64]models.Equipment)}
}

func (r *memoryEquipmentRepo) Create(_ context.Context, equipment *models.Equipment) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.items {
		if existing.InventoryNumber == equipment.InventoryNumber {
			return fmt.Errorf("insert equipment: %w", repository.ErrDuplicateInventoryNumber)
		}
	}
	r.nextID++
	equipment.ID = r.nextID
	r.items[equipment.ID] = *equipment
	return nil
}

func (r *memoryEquipmentRepo) FindByID(_ context.Context, id int64) (*models.Equipment, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("find equipment: %w", sql.ErrNoRows)
	}
	return &item, nil
}

func (r *memoryEquipmentRepo) FindByInventoryNumber(_ context.Context, inventoryNumber string) (*models.Equipment, error) {
	for _, item := range r.items {
		if item.InventoryNumber == inventoryNumber {
			found := item
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memoryEquipmentRepo) ExistsByInventoryNumber(_ context.Context, inventoryNumber string, excludeID int64) (bool, error) {
	for id, item := range r.items {
		if item.InventoryNumber == inventoryNumber && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryEquipmentRepo) List(_ context.Context, filter models.EquipmentFilter) ([]models.Equipment, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.Equipment, 0, len(r.items))
	for _, item := range r.items {
		if filter.Category != "" && item.CategoryName() != filter.Category {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InventoryNumber < out[j].InventoryNumber })
	return out, nil
}

func (r *memoryEquipmentRepo) Update(_ context.Context, id int64, patch dto.UpdateEquipmentRequest) error {
	item, ok := r.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	if patch.InventoryNumber.Set {
		item.InventoryNumber = patch.InventoryNumber.Value
	}
	if patch.Name.Set {
		item.Name = patch.Name.Value
	}
	if patch.Category.Set {
		item.Category = patch.Category.Ptr()
	}
	if patch.PurchaseDate.Set {
		item.PurchaseDate = patch.PurchaseDate.Ptr()
	}
	if patch.PurchasePrice.Set {
		item.PurchasePrice.Valid = patch.PurchasePrice.Valid
		item.PurchasePrice.Decimal = patch.PurchasePrice.Value
	}
	if patch.CurrentLocation.Set {
		item.CurrentLocation = patch.CurrentLocation.Ptr()
	}
	if patch.Status.Set {
		item.Status = patch.Status.Value
	}
	r.items[id] = item
	return nil
}

func (r *memoryEquipmentRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

type stubOpenAssignments struct {
	open map[int64]*models.Assignment
}

func (s *stubOpenAssignments) OpenForEquipment(_ context.Context, equipmentID int64) (*models.Assignment, error) {
	return s.open[equipmentID], nil
}

type recordingInvalidator struct {
	patterns []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, pattern string) {
	r.patterns = append(r.patterns, pattern)
}

type stubCacheRepo struct {
	store   map[string][]byte
	deleted []string
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	s.store = nil
	return nil
}
