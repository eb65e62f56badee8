package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/noah-isme/equipment-tracker/pkg/config"
)

// DriverName is the database/sql driver registered by go-sqlite3.
const DriverName = "sqlite3"

// NewSQLite opens the single-file store, enables foreign keys and migrates the schema.
func NewSQLite(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	db, err := sqlx.Open(DriverName, DSN(cfg))
	if err != nil {
		return nil, err
	}

	// Single writer: one connection keeps "read your own writes" trivially true
	// and serialises statements issued by concurrent HTTP handlers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// DSN renders the go-sqlite3 connection string for the configured file.
func DSN(cfg config.DatabaseConfig) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	if cfg.BusyTimeout > 0 {
		params.Set("_busy_timeout", fmt.Sprintf("%d", cfg.BusyTimeout.Milliseconds()))
	}
	return fmt.Sprintf("file:%s?%s", cfg.Path, params.Encode())
}

// Migrate creates tables and indexes when missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}

// IsUniqueViolation reports whether err is a UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// IsForeignKeyViolation reports whether err is a FOREIGN KEY constraint failure.
func IsForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS equipment (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	inventory_number TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	category TEXT,
	purchase_date TEXT,
	purchase_price TEXT,
	current_location TEXT,
	status TEXT NOT NULL DEFAULT 'active'
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_inventory_number ON equipment(inventory_number)`,
	`CREATE TABLE IF NOT EXISTS maintenance (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	equipment_id INTEGER NOT NULL,
	maintenance_date TEXT NOT NULL,
	type TEXT NOT NULL,
	cost TEXT NOT NULL DEFAULT '0',
	description TEXT,
	FOREIGN KEY (equipment_id) REFERENCES equipment(id) ON DELETE CASCADE
)`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_equipment ON maintenance(equipment_id, maintenance_date)`,
	`CREATE TABLE IF NOT EXISTS assignments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	equipment_id INTEGER NOT NULL,
	assigned_to TEXT NOT NULL,
	department TEXT,
	start_date TEXT NOT NULL,
	end_date TEXT,
	FOREIGN KEY (equipment_id) REFERENCES equipment(id) ON DELETE CASCADE
)`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_equipment ON assignments(equipment_id, start_date)`,
}
