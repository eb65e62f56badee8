package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/equipment-tracker/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Path: "equipment.db", BusyTimeout: 2 * time.Second})
	assert.Equal(t, "file:equipment.db?_busy_timeout=2000&_foreign_keys=on", dsn)
}

func TestNewSQLiteMigratesAndClassifiesConstraintErrors(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLite(ctx, config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "equipment.db")})
	require.NoError(t, err)
	defer db.Close()

	// Migrations are idempotent.
	require.NoError(t, Migrate(ctx, db))

	_, err = db.ExecContext(ctx, `INSERT INTO equipment (inventory_number, name) VALUES ('INV-001', 'Printer')`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO equipment (inventory_number, name) VALUES ('INV-001', 'Scanner')`)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))

	_, err = db.ExecContext(ctx, `INSERT INTO maintenance (equipment_id, maintenance_date, type) VALUES (42, '2024-06-01', 'Ремонт')`)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))

	var status string
	require.NoError(t, db.GetContext(ctx, &status, `SELECT status FROM equipment WHERE inventory_number = 'INV-001'`))
	assert.Equal(t, "active", status)
}

func TestNewSQLiteRejectsEmptyPath(t *testing.T) {
	_, err := NewSQLite(context.Background(), config.DatabaseConfig{})
	assert.Error(t, err)
}
