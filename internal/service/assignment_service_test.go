package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
	"github.com/noah-isme/equipment-tracker/internal/repository"
	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
)

type stubAssignmentRepo struct {
	items     map[int64]models.Assignment
	nextID    int64
	createErr error
	updateErr error
	created   []models.Assignment
	updated   []models.Assignment
}

func newStubAssignmentRepo() *stubAssignmentRepo {
	return &stubAssignmentRepo{items: make(map[int64]models.Assignment)}
}

func (r *stubAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	assignment.ID = r.nextID
	r.items[assignment.ID] = *assignment
	r.created = append(r.created, *assignment)
	return nil
}

func (r *stubAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.items[assignment.ID] = *assignment
	r.updated = append(r.updated, *assignment)
	return nil
}

func (r *stubAssignmentRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *stubAssignmentRepo) FindByID(_ context.Context, id int64) (*models.Assignment, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (r *stubAssignmentRepo) ListByEquipment(_ context.Context, equipmentID int64) ([]models.Assignment, error) {
	out := make([]models.Assignment, 0)
	for _, item := range r.items {
		if item.EquipmentID == equipmentID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *stubAssignmentRepo) List(_ context.Context, activeOnly bool) ([]models.AssignmentDetail, error) {
	out := make([]models.AssignmentDetail, 0)
	for _, item := range r.items {
		if activeOnly && !item.IsOpen() {
			continue
		}
		out = append(out, models.AssignmentDetail{Assignment: item})
	}
	return out, nil
}

func newAssignmentServiceUnderTest(t *testing.T) (*AssignmentService, *stubAssignmentRepo, *recordingInvalidator) {
	t.Helper()
	equipment := newMemoryEquipmentRepo()
	require.NoError(t, equipment.Create(context.Background(), &models.Equipment{InventoryNumber: "INV-001", Name: "Printer", Status: models.EquipmentStatusActive}))
	repo := newStubAssignmentRepo()
	cache := &recordingInvalidator{}
	svc := NewAssignmentService(repo, equipment, cache, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return svc, repo, cache
}

func TestAssignmentServiceCreateDefaultsStartDate(t *testing.T) {
	svc, repo, cache := newAssignmentServiceUnderTest(t)

	created, err := svc.Create(context.Background(), dto.CreateAssignmentRequest{
		EquipmentID: 1,
		AssignedTo:  " Ivanov ",
		Department:  strPtr("IT"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", created.StartDate)
	assert.Equal(t, "Ivanov", created.AssignedTo)
	assert.Equal(t, "Ivanov (IT)", created.Location())
	assert.True(t, created.IsOpen())
	assert.Len(t, repo.created, 1)
	assert.Equal(t, []string{dashboardCachePattern}, cache.patterns)
}

func TestAssignmentServiceCreateRejections(t *testing.T) {
	svc, repo, _ := newAssignmentServiceUnderTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateAssignmentRequest{EquipmentID: 1})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(ctx, dto.CreateAssignmentRequest{EquipmentID: 1, AssignedTo: "Ivanov", StartDate: "2024-03-10", EndDate: strPtr("2024-03-01")})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(ctx, dto.CreateAssignmentRequest{EquipmentID: 7, AssignedTo: "Ivanov"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	repo.createErr = repository.ErrStartsBeforeOpenAssignment
	_, err = svc.Create(ctx, dto.CreateAssignmentRequest{EquipmentID: 1, AssignedTo: "Petrov", StartDate: "2024-01-01"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, repo.created)
}

func TestAssignmentServiceUpdate(t *testing.T) {
	svc, repo, _ := newAssignmentServiceUnderTest(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, dto.CreateAssignmentRequest{EquipmentID: 1, AssignedTo: "Ivanov", StartDate: "2024-03-01"})
	require.NoError(t, err)

	closed, err := svc.Update(ctx, created.ID, dto.UpdateAssignmentRequest{
		Department: dto.Value("Finance"),
		EndDate:    dto.Value("2024-03-20"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-20", *closed.EndDate)
	assert.Equal(t, "Ivanov (Finance)", closed.Location())

	reopened, err := svc.Update(ctx, created.ID, dto.UpdateAssignmentRequest{EndDate: dto.Null[string]()})
	require.NoError(t, err)
	assert.True(t, reopened.IsOpen())
	assert.Len(t, repo.updated, 2)

	_, err = svc.Update(ctx, created.ID, dto.UpdateAssignmentRequest{EndDate: dto.Value("2024-02-01")})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Update(ctx, created.ID, dto.UpdateAssignmentRequest{AssignedTo: dto.Value("  ")})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	repo.updateErr = repository.ErrOpenAssignmentExists
	_, err = svc.Update(ctx, created.ID, dto.UpdateAssignmentRequest{AssignedTo: dto.Value("Petrov")})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Update(ctx, 404, dto.UpdateAssignmentRequest{AssignedTo: dto.Value("Petrov")})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestAssignmentServiceListAndDelete(t *testing.T) {
	svc, _, _ := newAssignmentServiceUnderTest(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, dto.CreateAssignmentRequest{EquipmentID: 1, AssignedTo: "Ivanov", StartDate: "2024-01-01", EndDate: strPtr("2024-02-01")})
	require.NoError(t, err)
	open, err := svc.Create(ctx, dto.CreateAssignmentRequest{EquipmentID: 1, AssignedTo: "Petrov", StartDate: "2024-02-01"})
	require.NoError(t, err)

	all, err := svc.List(ctx, dto.AssignmentListRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	active, err := svc.List(ctx, dto.AssignmentListRequest{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Petrov", active[0].AssignedTo)

	history, err := svc.ListForEquipment(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	_, err = svc.ListForEquipment(ctx, 2)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	require.NoError(t, svc.Delete(ctx, open.ID))
	assert.True(t, errors.Is(svc.Delete(ctx, open.ID), appErrors.ErrNotFound))
	_, err = svc.Get(ctx, open.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
