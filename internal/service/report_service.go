package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
)

type equipmentLister interface {
	List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, error)
}

type maintenanceReportRepository interface {
	Report(ctx context.Context, rng models.DateRange) ([]models.MaintenanceReportRow, error)
	Costs(ctx context.Context, rng models.DateRange) ([]models.EquipmentCost, error)
}

// ReportService builds the cost-of-ownership and maintenance reports.
type ReportService struct {
	equipment   equipmentLister
	maintenance maintenanceReportRepository
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(equipment equipmentLister, maintenance maintenanceReportRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{equipment: equipment, maintenance: maintenance, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// MaintenanceReport returns events joined with equipment identity, newest first.
func (s *ReportService) MaintenanceReport(ctx context.Context, req dto.ReportRangeRequest) ([]models.MaintenanceReportRow, error) {
	rng, err := s.dateRange(req)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := s.maintenance.Report(ctx, rng)
	s.metrics.ObserveDBQuery("maintenance_report", time.Since(start))
	if err != nil {
		return nil, appErrors.Storage(err, "failed to build maintenance report")
	}
	s.logger.Info("maintenance report generated", zap.Int("rows", len(rows)), zap.String("from", rng.From), zap.String("to", rng.To))
	return rows, nil
}

// MaintenanceCostSummary aggregates count, total and average cost in exact decimal.
// An empty range yields zeros.
func (s *ReportService) MaintenanceCostSummary(ctx context.Context, req dto.ReportRangeRequest) (*models.MaintenanceCostSummary, error) {
	rng, err := s.dateRange(req)
	if err != nil {
		return nil, err
	}
	costs, err := s.maintenance.Costs(ctx, rng)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load maintenance costs")
	}
	summary := summariseCosts(costs)
	return &summary, nil
}

// Depreciation returns per-item ownership rows ordered by inventory number.
func (s *ReportService) Depreciation(ctx context.Context) ([]models.DepreciationRow, error) {
	start := time.Now()
	items, err := s.equipment.List(ctx, models.EquipmentFilter{})
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list equipment")
	}
	costs, err := s.maintenance.Costs(ctx, models.DateRange{})
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load maintenance costs")
	}
	s.metrics.ObserveDBQuery("depreciation_report", time.Since(start))

	totals := make(map[int64]decimal.Decimal, len(items))
	for _, c := range costs {
		totals[c.EquipmentID] = totals[c.EquipmentID].Add(c.Cost)
	}

	today := calendarDay(s.now())
	rows := make([]models.DepreciationRow, 0, len(items))
	for _, item := range items {
		row := models.DepreciationRow{
			ID:                   item.ID,
			InventoryNumber:      item.InventoryNumber,
			Name:                 item.Name,
			Category:             item.Category,
			PurchaseDate:         item.PurchaseDate,
			PurchasePrice:        item.PurchasePrice,
			Status:               item.Status,
			TotalMaintenanceCost: totals[item.ID],
		}
		if item.PurchaseDate != nil {
			purchased, err := parseDate(*item.PurchaseDate)
			if err != nil {
				s.logger.Warn("skipping days in use for malformed purchase date",
					zap.String("inventory_number", item.InventoryNumber), zap.Error(err))
			} else if days := daysBetween(purchased, today); days > 0 {
				row.DaysInUse = days
			}
		}
		rows = append(rows, row)
	}
	s.logger.Info("depreciation report generated", zap.Int("rows", len(rows)))
	return rows, nil
}

func (s *ReportService) dateRange(req dto.ReportRangeRequest) (models.DateRange, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.DateRange{}, appErrors.Validation(err, "invalid date range")
	}
	rng := req.Range()
	if rng.Active() && rng.From > rng.To {
		return models.DateRange{}, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}
	return rng, nil
}

func summariseCosts(costs []models.EquipmentCost) models.MaintenanceCostSummary {
	summary := models.MaintenanceCostSummary{Count: len(costs), TotalCost: decimal.Zero, AverageCost: decimal.Zero}
	for _, c := range costs {
		summary.TotalCost = summary.TotalCost.Add(c.Cost)
	}
	if summary.Count > 0 {
		summary.AverageCost = summary.TotalCost.Div(decimal.NewFromInt(int64(summary.Count))).Round(2)
	}
	return summary
}
