package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
	"github.com/noah-isme/equipment-tracker/pkg/config"
	"github.com/noah-isme/equipment-tracker/pkg/database"
)

func openTestStore(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.NewSQLite(context.Background(), config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "equipment.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteEquipmentUniquenessLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := NewEquipmentRepository(openTestStore(t))

	require.NoError(t, repo.Create(ctx, &models.Equipment{InventoryNumber: "INV-002", Name: "Desk"}))
	require.NoError(t, repo.Create(ctx, &models.Equipment{InventoryNumber: "INV-001", Name: "Printer"}))

	err := repo.Create(ctx, &models.Equipment{InventoryNumber: "INV-001", Name: "Scanner"})
	assert.ErrorIs(t, err, ErrDuplicateInventoryNumber)

	first, err := repo.List(ctx, models.EquipmentFilter{})
	require.NoError(t, err)
	second, err := repo.List(ctx, models.EquipmentFilter{})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, "INV-001", first[0].InventoryNumber)
	assert.Equal(t, "Printer", first[0].Name)
}

func TestSQLiteDecimalRoundTripIsExact(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	equipmentRepo := NewEquipmentRepository(db)
	maintenanceRepo := NewMaintenanceRepository(db)

	equipment := &models.Equipment{
		InventoryNumber: "INV-010",
		Name:            "Lathe",
		PurchasePrice:   decimal.NewNullDecimal(decimal.RequireFromString("123456789.01")),
	}
	require.NoError(t, equipmentRepo.Create(ctx, equipment))

	for _, cost := range []string{"100.00", "250.50", "0"} {
		require.NoError(t, maintenanceRepo.Create(ctx, &models.MaintenanceEvent{
			EquipmentID: equipment.ID, MaintenanceDate: "2024-02-01", Type: "Ремонт", Cost: decimal.RequireFromString(cost),
		}))
	}

	stored, err := equipmentRepo.FindByID(ctx, equipment.ID)
	require.NoError(t, err)
	assert.Equal(t, "123456789.01", stored.PurchasePrice.Decimal.String())

	costs, err := maintenanceRepo.Costs(ctx, models.DateRange{})
	require.NoError(t, err)
	total := decimal.Zero
	for _, c := range costs {
		total = total.Add(c.Cost)
	}
	assert.Equal(t, "350.5", total.String())
	assert.True(t, total.Equal(decimal.RequireFromString("350.50")))
}

func TestSQLiteAssignmentLedgerKeepsOneOpenAndTracksLocation(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	equipmentRepo := NewEquipmentRepository(db)
	assignmentRepo := NewAssignmentRepository(db)

	equipment := &models.Equipment{InventoryNumber: "INV-001", Name: "Printer"}
	require.NoError(t, equipmentRepo.Create(ctx, equipment))

	first := &models.Assignment{EquipmentID: equipment.ID, AssignedTo: "Petrov", StartDate: "2024-01-01"}
	require.NoError(t, assignmentRepo.Create(ctx, first))
	second := &models.Assignment{EquipmentID: equipment.ID, AssignedTo: "Ivanov", Department: strPtr("IT"), StartDate: "2024-03-01"}
	require.NoError(t, assignmentRepo.Create(ctx, second))

	stored, err := equipmentRepo.FindByID(ctx, equipment.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CurrentLocation)
	assert.Equal(t, "Ivanov (IT)", *stored.CurrentLocation)

	ledger, err := assignmentRepo.ListByEquipment(ctx, equipment.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	assert.Equal(t, second.ID, ledger[0].ID)
	require.NotNil(t, ledger[1].EndDate)
	assert.Equal(t, "2024-03-01", *ledger[1].EndDate)

	open, err := assignmentRepo.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	// Removing the open assignment falls back to the latest closed one.
	require.NoError(t, assignmentRepo.Delete(ctx, second.ID))
	stored, err = equipmentRepo.FindByID(ctx, equipment.ID)
	require.NoError(t, err)
	assert.Equal(t, "Petrov", *stored.CurrentLocation)

	// Editing the remaining assignment recomputes the location as well.
	remaining, err := assignmentRepo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	remaining.Department = strPtr("Warehouse")
	require.NoError(t, assignmentRepo.Update(ctx, remaining))
	stored, err = equipmentRepo.FindByID(ctx, equipment.ID)
	require.NoError(t, err)
	assert.Equal(t, "Petrov (Warehouse)", *stored.CurrentLocation)

	require.NoError(t, assignmentRepo.Delete(ctx, first.ID))
	stored, err = equipmentRepo.FindByID(ctx, equipment.ID)
	require.NoError(t, err)
	assert.Equal(t, "Petrov (Warehouse)", *stored.CurrentLocation)
}

func TestSQLiteDeleteEquipmentCascades(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	equipmentRepo := NewEquipmentRepository(db)
	maintenanceRepo := NewMaintenanceRepository(db)
	assignmentRepo := NewAssignmentRepository(db)

	equipment := &models.Equipment{InventoryNumber: "INV-001", Name: "Printer"}
	require.NoError(t, equipmentRepo.Create(ctx, equipment))
	require.NoError(t, maintenanceRepo.Create(ctx, &models.MaintenanceEvent{EquipmentID: equipment.ID, MaintenanceDate: "2024-06-01", Type: "Ремонт"}))
	require.NoError(t, assignmentRepo.Create(ctx, &models.Assignment{EquipmentID: equipment.ID, AssignedTo: "Ivanov", StartDate: "2024-06-02"}))

	require.NoError(t, equipmentRepo.Delete(ctx, equipment.ID))

	_, err := equipmentRepo.FindByID(ctx, equipment.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	events, err := maintenanceRepo.ListAllOrdered(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
	ledger, err := assignmentRepo.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestSQLiteUpdateEquipmentPatchClearsAndSets(t *testing.T) {
	ctx := context.Background()
	repo := NewEquipmentRepository(openTestStore(t))

	equipment := &models.Equipment{InventoryNumber: "INV-001", Name: "Printer", Category: strPtr("Оргтехника")}
	require.NoError(t, repo.Create(ctx, equipment))

	require.NoError(t, repo.Update(ctx, equipment.ID, dto.UpdateEquipmentRequest{
		Category:      dto.Null[string](),
		PurchasePrice: dto.Value(decimal.RequireFromString("99.90")),
		Status:        dto.Value(models.EquipmentStatusInRepair),
	}))

	stored, err := repo.FindByID(ctx, equipment.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Category)
	assert.Equal(t, "Printer", stored.Name)
	assert.True(t, stored.PurchasePrice.Decimal.Equal(decimal.RequireFromString("99.9")))
	assert.Equal(t, models.EquipmentStatusInRepair, stored.Status)
}

func TestSQLiteReportAggregates(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	equipmentRepo := NewEquipmentRepository(db)
	assignmentRepo := NewAssignmentRepository(db)
	reports := NewReportRepository(db)

	a := &models.Equipment{InventoryNumber: "INV-001", Name: "Printer", PurchasePrice: decimal.NewNullDecimal(decimal.RequireFromString("0.10"))}
	b := &models.Equipment{InventoryNumber: "INV-002", Name: "Desk", PurchasePrice: decimal.NewNullDecimal(decimal.RequireFromString("0.20")), Status: models.EquipmentStatusReserved}
	c := &models.Equipment{InventoryNumber: "INV-003", Name: "Chair"}
	for _, e := range []*models.Equipment{a, b, c} {
		require.NoError(t, equipmentRepo.Create(ctx, e))
	}
	require.NoError(t, assignmentRepo.Create(ctx, &models.Assignment{EquipmentID: a.ID, AssignedTo: "Ivanov", StartDate: "2024-01-01", EndDate: strPtr("2024-02-01")}))
	require.NoError(t, assignmentRepo.Create(ctx, &models.Assignment{EquipmentID: a.ID, AssignedTo: "Petrov", StartDate: "2024-02-01"}))

	counts, err := reports.StatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.StatusCount{{Status: models.EquipmentStatusActive, Count: 2}, {Status: models.EquipmentStatusReserved, Count: 1}}, counts)

	prices, err := reports.PurchasePrices(ctx)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.True(t, prices[0].Add(prices[1]).Equal(decimal.RequireFromString("0.3")))

	ledger, err := reports.AssignmentCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentCounts{Total: 2, Active: 1}, ledger)
}
