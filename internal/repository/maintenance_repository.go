package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
)

const (
	maintenanceTable   = "maintenance"
	maintenanceColumns = "id, equipment_id, maintenance_date, type, cost, description"
)

// MaintenanceRepository persists maintenance events.
type MaintenanceRepository struct {
	db *sqlx.DB
}

// NewMaintenanceRepository constructs the repository.
func NewMaintenanceRepository(db *sqlx.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// Create inserts a maintenance event. The foreign key rejects unknown equipment ids.
func (r *MaintenanceRepository) Create(ctx context.Context, event *models.MaintenanceEvent) error {
	const query = `INSERT INTO maintenance (equipment_id, maintenance_date, type, cost, description)
VALUES (:equipment_id, :maintenance_date, :type, :cost, :description)`
	res, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("create maintenance: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("maintenance insert id: %w", err)
	}
	event.ID = id
	return nil
}

// FindByID returns one maintenance event.
func (r *MaintenanceRepository) FindByID(ctx context.Context, id int64) (*models.MaintenanceEvent, error) {
	const query = `SELECT ` + maintenanceColumns + ` FROM maintenance WHERE id = ?`
	var event models.MaintenanceEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, fmt.Errorf("find maintenance: %w", err)
	}
	return &event, nil
}

// ListByEquipment returns the history of one item, most recent first. Same-day
// events are ordered by id so the latest insert wins.
func (r *MaintenanceRepository) ListByEquipment(ctx context.Context, equipmentID int64) ([]models.MaintenanceEvent, error) {
	const query = `SELECT ` + maintenanceColumns + ` FROM maintenance
WHERE equipment_id = ?
ORDER BY maintenance_date DESC, id DESC`
	events := make([]models.MaintenanceEvent, 0)
	if err := r.db.SelectContext(ctx, &events, query, equipmentID); err != nil {
		return nil, fmt.Errorf("list maintenance for equipment: %w", err)
	}
	return events, nil
}

// ListAllOrdered returns every event grouped by equipment with the most recent
// event of each group first.
func (r *MaintenanceRepository) ListAllOrdered(ctx context.Context) ([]models.MaintenanceEvent, error) {
	const query = `SELECT ` + maintenanceColumns + ` FROM maintenance
ORDER BY equipment_id ASC, maintenance_date DESC, id DESC`
	events := make([]models.MaintenanceEvent, 0)
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list maintenance history: %w", err)
	}
	return events, nil
}

// Update applies the supplied fields to one event.
func (r *MaintenanceRepository) Update(ctx context.Context, id int64, patch dto.UpdateMaintenanceRequest) error {
	if !patch.HasChanges() {
		return nil
	}

	builder := sqlite.Update(maintenanceTable)
	if patch.MaintenanceDate.Set {
		builder = builder.Set("maintenance_date", patch.MaintenanceDate.Value)
	}
	if patch.Type.Set {
		builder = builder.Set("type", patch.Type.Value)
	}
	if patch.Cost.Set {
		builder = builder.Set("cost", patch.Cost.Value)
	}
	if patch.Description.Set {
		builder = builder.Set("description", patch.Description.Ptr())
	}

	query, args, err := builder.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build maintenance update: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update maintenance: %w", err)
	}
	return expectAffected(res, "update maintenance")
}

// Delete removes one event.
func (r *MaintenanceRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM maintenance WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete maintenance: %w", err)
	}
	return expectAffected(res, "delete maintenance")
}

// Report joins events with equipment identity, optionally bounded by an inclusive date range.
func (r *MaintenanceRepository) Report(ctx context.Context, rng models.DateRange) ([]models.MaintenanceReportRow, error) {
	builder := sqlite.Select(
		"m.id", "m.equipment_id", "m.maintenance_date", "m.type", "m.cost", "m.description",
		"e.inventory_number", "e.name AS equipment_name", "e.category",
	).
		From("maintenance m").
		Join("equipment e ON e.id = m.equipment_id")
	builder = withDateRange(builder, "m.maintenance_date", rng)

	query, args, err := builder.OrderBy("m.maintenance_date DESC", "m.id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build maintenance report: %w", err)
	}
	rows := make([]models.MaintenanceReportRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("maintenance report: %w", err)
	}
	return rows, nil
}

// Costs returns the cost of every event in range so sums stay in exact decimal arithmetic.
func (r *MaintenanceRepository) Costs(ctx context.Context, rng models.DateRange) ([]models.EquipmentCost, error) {
	builder := sqlite.Select("equipment_id", "cost").From(maintenanceTable)
	builder = withDateRange(builder, "maintenance_date", rng)

	query, args, err := builder.OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build maintenance costs: %w", err)
	}
	costs := make([]models.EquipmentCost, 0)
	if err := r.db.SelectContext(ctx, &costs, query, args...); err != nil {
		return nil, fmt.Errorf("maintenance costs: %w", err)
	}
	return costs, nil
}

func withDateRange(builder sq.SelectBuilder, column string, rng models.DateRange) sq.SelectBuilder {
	if !rng.Active() {
		return builder
	}
	return builder.Where(sq.And{
		sq.GtOrEq{column: rng.From},
		sq.LtOrEq{column: rng.To},
	})
}
