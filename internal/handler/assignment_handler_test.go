package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
)

type fakeAssignmentSrv struct {
	details    []models.AssignmentDetail
	err        error
	lastCreate dto.CreateAssignmentRequest
	lastUpdate dto.UpdateAssignmentRequest
	lastList   dto.AssignmentListRequest
	lastID     int64
}

func (f *fakeAssignmentSrv) Create(_ context.Context, req dto.CreateAssignmentRequest) (*models.Assignment, error) {
	f.lastCreate = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Assignment{ID: 3, EquipmentID: req.EquipmentID, AssignedTo: req.AssignedTo, StartDate: "2024-08-30"}, nil
}

func (f *fakeAssignmentSrv) Get(_ context.Context, id int64) (*models.Assignment, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return &models.Assignment{ID: id, EquipmentID: 7, AssignedTo: "Ivanov", StartDate: "2024-08-01"}, nil
}

func (f *fakeAssignmentSrv) List(_ context.Context, req dto.AssignmentListRequest) ([]models.AssignmentDetail, error) {
	f.lastList = req
	return f.details, f.err
}

func (f *fakeAssignmentSrv) Update(_ context.Context, id int64, req dto.UpdateAssignmentRequest) (*models.Assignment, error) {
	f.lastID = id
	f.lastUpdate = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Assignment{ID: id, EquipmentID: 7, AssignedTo: "Ivanov", StartDate: "2024-08-01"}, nil
}

func (f *fakeAssignmentSrv) Delete(_ context.Context, id int64) error {
	f.lastID = id
	return f.err
}

func TestAssignmentHandlerCreate(t *testing.T) {
	srv := &fakeAssignmentSrv{}
	handler := NewAssignmentHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/assignments", `{"equipment_id":7,"assigned_to":"Petrov","department":"IT"}`)

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(7), srv.lastCreate.EquipmentID)
	assert.Equal(t, "Petrov", srv.lastCreate.AssignedTo)
	require.NotNil(t, srv.lastCreate.Department)
	assert.Equal(t, "IT", *srv.lastCreate.Department)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(3), envelope.Data["id"])
	assert.Nil(t, envelope.Data["end_date"])
}

func TestAssignmentHandlerCreateLedgerViolation(t *testing.T) {
	srv := &fakeAssignmentSrv{err: appErrors.Clone(appErrors.ErrValidation, "start_date precedes the open assignment")}
	handler := NewAssignmentHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/assignments", `{"equipment_id":7,"assigned_to":"Petrov","start_date":"2024-01-01"}`)

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error["code"])
	assert.Equal(t, "start_date precedes the open assignment", envelope.Error["message"])
}

func TestAssignmentHandlerUpdateReopensWithNullEndDate(t *testing.T) {
	srv := &fakeAssignmentSrv{}
	handler := NewAssignmentHandler(srv)
	c, rec := newTestContext(http.MethodPatch, "/assignments/3", `{"end_date":null}`, gin.Param{Key: "id", Value: "3"})

	handler.Update(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), srv.lastID)
	assert.Equal(t, dto.Null[string](), srv.lastUpdate.EndDate)
	assert.False(t, srv.lastUpdate.AssignedTo.Set)
	assert.False(t, srv.lastUpdate.StartDate.Set)
}

func TestAssignmentHandlerUpdateRejectsReversedDates(t *testing.T) {
	srv := &fakeAssignmentSrv{err: appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")}
	handler := NewAssignmentHandler(srv)
	c, rec := newTestContext(http.MethodPatch, "/assignments/3", `{"end_date":"2024-07-01"}`, gin.Param{Key: "id", Value: "3"})

	handler.Update(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.Value("2024-07-01"), srv.lastUpdate.EndDate)
}

func TestAssignmentHandlerListActiveOnly(t *testing.T) {
	srv := &fakeAssignmentSrv{details: []models.AssignmentDetail{{
		Assignment:      models.Assignment{ID: 3, EquipmentID: 7, AssignedTo: "Petrov", StartDate: "2024-08-30"},
		InventoryNumber: "INV-001",
		EquipmentName:   "Printer",
	}}}
	handler := NewAssignmentHandler(srv)
	c, rec := newTestContext(http.MethodGet, "/assignments?active=true", "")

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, srv.lastList.ActiveOnly)
	var envelope listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "INV-001", envelope.Data[0]["inventory_number"])
	assert.Equal(t, float64(1), envelope.Meta["total"])
}

func TestAssignmentHandlerGetAndDelete(t *testing.T) {
	srv := &fakeAssignmentSrv{}
	handler := NewAssignmentHandler(srv)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/assignments/:id", handler.Get)
	router.DELETE("/assignments/:id", handler.Delete)

	rec := httptestRecorder(router, http.MethodGet, "/assignments/3")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptestRecorder(router, http.MethodDelete, "/assignments/3")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(3), srv.lastID)

	srv.err = appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	rec = httptestRecorder(router, http.MethodGet, "/assignments/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptestRecorder(router, http.MethodDelete, "/assignments/0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
