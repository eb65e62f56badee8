package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/equipment-tracker/internal/models"
)

var (
	// ErrOpenAssignmentExists is returned when a write would leave two open assignments.
	ErrOpenAssignmentExists = errors.New("equipment already has an open assignment")
	// ErrStartsBeforeOpenAssignment is returned when closing the open assignment would end it before it started.
	ErrStartsBeforeOpenAssignment = errors.New("start date precedes the open assignment")
)

const assignmentColumns = "id, equipment_id, assigned_to, department, start_date, end_date"

// AssignmentRepository persists the assignment ledger. Every write recomputes
// equipment.current_location in the same transaction.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts an assignment. An open assignment first closes the current
// open one using the new start date.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if assignment.IsOpen() {
		var open *models.Assignment
		open, err = openAssignment(ctx, tx, assignment.EquipmentID, 0)
		if err != nil {
			return err
		}
		if open != nil {
			if assignment.StartDate < open.StartDate {
				err = ErrStartsBeforeOpenAssignment
				return err
			}
			const closeQuery = `UPDATE assignments SET end_date = ? WHERE id = ?`
			if _, err = tx.ExecContext(ctx, closeQuery, assignment.StartDate, open.ID); err != nil {
				return fmt.Errorf("close open assignment: %w", err)
			}
		}
	}

	const insertQuery = `INSERT INTO assignments (equipment_id, assigned_to, department, start_date, end_date)
VALUES (:equipment_id, :assigned_to, :department, :start_date, :end_date)`
	res, err := tx.NamedExecContext(ctx, insertQuery, assignment)
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	if assignment.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("assignment insert id: %w", err)
	}

	if err = refreshLocation(ctx, tx, assignment.EquipmentID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment create: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of an assignment.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if assignment.IsOpen() {
		var open *models.Assignment
		open, err = openAssignment(ctx, tx, assignment.EquipmentID, assignment.ID)
		if err != nil {
			return err
		}
		if open != nil {
			err = ErrOpenAssignmentExists
			return err
		}
	}

	const query = `UPDATE assignments SET assigned_to = ?, department = ?, start_date = ?, end_date = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, query, assignment.AssignedTo, assignment.Department, assignment.StartDate, assignment.EndDate, assignment.ID)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	if err = expectAffected(res, "update assignment"); err != nil {
		return err
	}

	if err = refreshLocation(ctx, tx, assignment.EquipmentID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment update: %w", err)
	}
	return nil
}

// Delete removes an assignment and re-derives the holder of its equipment.
func (r *AssignmentRepository) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var equipmentID int64
	if err = tx.GetContext(ctx, &equipmentID, `SELECT equipment_id FROM assignments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("find assignment: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if err = refreshLocation(ctx, tx, equipmentID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment delete: %w", err)
	}
	return nil
}

// FindByID returns one assignment.
func (r *AssignmentRepository) FindByID(ctx context.Context, id int64) (*models.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = ?`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &assignment, nil
}

// ListByEquipment returns the ledger of one item, newest first.
func (r *AssignmentRepository) ListByEquipment(ctx context.Context, equipmentID int64) ([]models.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM assignments
WHERE equipment_id = ?
ORDER BY start_date DESC, id DESC`
	items := make([]models.Assignment, 0)
	if err := r.db.SelectContext(ctx, &items, query, equipmentID); err != nil {
		return nil, fmt.Errorf("list assignments for equipment: %w", err)
	}
	return items, nil
}

// List returns the ledger across all equipment, optionally only open assignments.
func (r *AssignmentRepository) List(ctx context.Context, activeOnly bool) ([]models.AssignmentDetail, error) {
	builder := sqlite.Select(
		"a.id", "a.equipment_id", "a.assigned_to", "a.department", "a.start_date", "a.end_date",
		"e.inventory_number", "e.name AS equipment_name",
	).
		From("assignments a").
		Join("equipment e ON e.id = a.equipment_id")
	if activeOnly {
		builder = builder.Where("a.end_date IS NULL")
	}
	query, args, err := builder.OrderBy("a.start_date DESC", "a.id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build assignment list: %w", err)
	}
	items := make([]models.AssignmentDetail, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return items, nil
}

// OpenForEquipment returns the open assignment of an item or nil.
func (r *AssignmentRepository) OpenForEquipment(ctx context.Context, equipmentID int64) (*models.Assignment, error) {
	return openAssignment(ctx, r.db, equipmentID, 0)
}

func openAssignment(ctx context.Context, q sqlx.QueryerContext, equipmentID, excludeID int64) (*models.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM assignments
WHERE equipment_id = ? AND end_date IS NULL AND id <> ?
ORDER BY start_date DESC, id DESC LIMIT 1`
	var open models.Assignment
	if err := sqlx.GetContext(ctx, q, &open, query, equipmentID, excludeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find open assignment: %w", err)
	}
	return &open, nil
}

// refreshLocation copies the holder of the latest assignment (open ones first)
// into equipment.current_location. Without assignments the column is kept.
func refreshLocation(ctx context.Context, tx *sqlx.Tx, equipmentID int64) error {
	const latestQuery = `SELECT ` + assignmentColumns + ` FROM assignments
WHERE equipment_id = ?
ORDER BY end_date IS NULL DESC, start_date DESC, id DESC LIMIT 1`
	var latest models.Assignment
	if err := tx.GetContext(ctx, &latest, latestQuery, equipmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("find latest assignment: %w", err)
	}

	const updateQuery = `UPDATE equipment SET current_location = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, updateQuery, latest.Location(), equipmentID); err != nil {
		return fmt.Errorf("update current location: %w", err)
	}
	return nil
}
