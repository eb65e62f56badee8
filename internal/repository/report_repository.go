package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/equipment-tracker/internal/models"
)

// ReportRepository runs the aggregate reads behind the dashboard.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// StatusCounts returns the number of equipment rows per status.
func (r *ReportRepository) StatusCounts(ctx context.Context) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM equipment GROUP BY status ORDER BY status`
	counts := make([]models.StatusCount, 0)
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count equipment by status: %w", err)
	}
	return counts, nil
}

// PurchasePrices returns every recorded purchase price. Summation happens in decimal.
func (r *ReportRepository) PurchasePrices(ctx context.Context) ([]decimal.Decimal, error) {
	const query = `SELECT purchase_price FROM equipment WHERE purchase_price IS NOT NULL AND purchase_price <> ''`
	prices := make([]decimal.Decimal, 0)
	if err := r.db.SelectContext(ctx, &prices, query); err != nil {
		return nil, fmt.Errorf("list purchase prices: %w", err)
	}
	return prices, nil
}

// AssignmentCounts returns the total and open assignment counts.
func (r *ReportRepository) AssignmentCounts(ctx context.Context) (models.AssignmentCounts, error) {
	const query = `SELECT COUNT(*) AS total, COALESCE(SUM(CASE WHEN end_date IS NULL THEN 1 ELSE 0 END), 0) AS active FROM assignments`
	var counts models.AssignmentCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return models.AssignmentCounts{}, fmt.Errorf("count assignments: %w", err)
	}
	return counts, nil
}
