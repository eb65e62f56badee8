package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
	"github.com/noah-isme/equipment-tracker/pkg/database"
)

// ErrDuplicateInventoryNumber is returned when the unique index on inventory_number rejects a write.
var ErrDuplicateInventoryNumber = errors.New("inventory number already exists")

const (
	equipmentTable   = "equipment"
	equipmentColumns = "id, inventory_number, name, category, purchase_date, purchase_price, current_location, status"
)

// sqlite placeholders are "?", which is also squirrel's default.
var sqlite = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// EquipmentRepository persists equipment rows.
type EquipmentRepository struct {
	db *sqlx.DB
}

// NewEquipmentRepository constructs the repository.
func NewEquipmentRepository(db *sqlx.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

// Create inserts a new equipment row and populates its identifier.
func (r *EquipmentRepository) Create(ctx context.Context, equipment *models.Equipment) error {
	if equipment.Status == "" {
		equipment.Status = models.EquipmentStatusActive
	}
	const query = `INSERT INTO equipment (inventory_number, name, category, purchase_date, purchase_price, current_location, status)
VALUES (:inventory_number, :name, :category, :purchase_date, :purchase_price, :current_location, :status)`
	res, err := r.db.NamedExecContext(ctx, query, equipment)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateInventoryNumber
		}
		return fmt.Errorf("create equipment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("equipment insert id: %w", err)
	}
	equipment.ID = id
	return nil
}

// FindByID returns the equipment with the given id.
func (r *EquipmentRepository) FindByID(ctx context.Context, id int64) (*models.Equipment, error) {
	const query = `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = ?`
	var equipment models.Equipment
	if err := r.db.GetContext(ctx, &equipment, query, id); err != nil {
		return nil, fmt.Errorf("find equipment: %w", err)
	}
	return &equipment, nil
}

// FindByInventoryNumber resolves the business key through idx_inventory_number.
func (r *EquipmentRepository) FindByInventoryNumber(ctx context.Context, inventoryNumber string) (*models.Equipment, error) {
	const query = `SELECT ` + equipmentColumns + ` FROM equipment WHERE inventory_number = ?`
	var equipment models.Equipment
	if err := r.db.GetContext(ctx, &equipment, query, inventoryNumber); err != nil {
		return nil, fmt.Errorf("find equipment by inventory number: %w", err)
	}
	return &equipment, nil
}

// ExistsByInventoryNumber reports whether another row already uses the inventory number.
// excludeID skips the row being edited; pass 0 on create.
func (r *EquipmentRepository) ExistsByInventoryNumber(ctx context.Context, inventoryNumber string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM equipment WHERE inventory_number = ? AND id <> ?)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, inventoryNumber, excludeID); err != nil {
		return false, fmt.Errorf("check inventory number: %w", err)
	}
	return exists, nil
}

// List returns equipment ordered by inventory number.
func (r *EquipmentRepository) List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, error) {
	builder := sqlite.Select(equipmentColumns).From(equipmentTable)
	if filter.Category != "" {
		builder = builder.Where(sq.Eq{"category": filter.Category})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	query, args, err := builder.OrderBy("inventory_number ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build equipment list query: %w", err)
	}

	items := make([]models.Equipment, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return items, nil
}

// Update applies the supplied fields. Absent patches are left untouched;
// sql.ErrNoRows is returned when the id does not exist.
func (r *EquipmentRepository) Update(ctx context.Context, id int64, patch dto.UpdateEquipmentRequest) error {
	if !patch.HasChanges() {
		return nil
	}

	builder := sqlite.Update(equipmentTable)
	if patch.InventoryNumber.Set {
		builder = builder.Set("inventory_number", patch.InventoryNumber.Value)
	}
	if patch.Name.Set {
		builder = builder.Set("name", patch.Name.Value)
	}
	if patch.Category.Set {
		builder = builder.Set("category", patch.Category.Ptr())
	}
	if patch.PurchaseDate.Set {
		builder = builder.Set("purchase_date", patch.PurchaseDate.Ptr())
	}
	if patch.PurchasePrice.Set {
		builder = builder.Set("purchase_price", nullDecimal(patch.PurchasePrice))
	}
	if patch.CurrentLocation.Set {
		builder = builder.Set("current_location", patch.CurrentLocation.Ptr())
	}
	if patch.Status.Set {
		builder = builder.Set("status", patch.Status.Value)
	}

	query, args, err := builder.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build equipment update: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateInventoryNumber
		}
		return fmt.Errorf("update equipment: %w", err)
	}
	return expectAffected(res, "update equipment")
}

// Delete removes the equipment together with its maintenance and assignment rows.
func (r *EquipmentRepository) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin equipment delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM maintenance WHERE equipment_id = ?`, id); err != nil {
		return fmt.Errorf("delete equipment maintenance: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM assignments WHERE equipment_id = ?`, id); err != nil {
		return fmt.Errorf("delete equipment assignments: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	if err = expectAffected(res, "delete equipment"); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit equipment delete: %w", err)
	}
	return nil
}

func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
