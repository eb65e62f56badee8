package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
)

type dashboardRepository interface {
	StatusCounts(ctx context.Context) ([]models.StatusCount, error)
	PurchasePrices(ctx context.Context) ([]decimal.Decimal, error)
	AssignmentCounts(ctx context.Context) (models.AssignmentCounts, error)
}

type maintenanceCostReader interface {
	Costs(ctx context.Context, rng models.DateRange) ([]models.EquipmentCost, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

// DashboardService composes the headline figures of the inventory.
type DashboardService struct {
	repo        dashboardRepository
	maintenance maintenanceCostReader
	cache       dashboardCache
	cacheTTL    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService constructs the dashboard service. cache may be nil.
func NewDashboardService(repo dashboardRepository, maintenance maintenanceCostReader, cache dashboardCache, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, maintenance: maintenance, cache: cache, cacheTTL: cacheTTL, logger: logger, now: time.Now}
}

// Summary returns the dashboard payload and whether it was served from cache.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardSummary, bool, error) {
	if s.cache != nil {
		var cached dto.DashboardSummary
		if s.cache.Get(ctx, dashboardCacheKey, &cached) {
			return &cached, true, nil
		}
	}

	statusRows, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, false, appErrors.Storage(err, "failed to count equipment")
	}
	prices, err := s.repo.PurchasePrices(ctx)
	if err != nil {
		return nil, false, appErrors.Storage(err, "failed to load purchase prices")
	}
	costs, err := s.maintenance.Costs(ctx, models.DateRange{})
	if err != nil {
		return nil, false, appErrors.Storage(err, "failed to load maintenance costs")
	}
	assignments, err := s.repo.AssignmentCounts(ctx)
	if err != nil {
		return nil, false, appErrors.Storage(err, "failed to count assignments")
	}

	summary := &dto.DashboardSummary{
		StatusCounts:      make(map[models.EquipmentStatus]int, len(models.EquipmentStatuses)),
		TotalPurchaseCost: decimal.Zero,
		Maintenance:       summariseCosts(costs),
		Assignments:       assignments,
		GeneratedAt:       s.now().UTC(),
	}
	for _, status := range models.EquipmentStatuses {
		summary.StatusCounts[status] = 0
	}
	for _, row := range statusRows {
		summary.StatusCounts[row.Status] += row.Count
		summary.TotalEquipment += row.Count
	}
	for _, price := range prices {
		summary.TotalPurchaseCost = summary.TotalPurchaseCost.Add(price)
	}

	if s.cache != nil {
		s.cache.Set(ctx, dashboardCacheKey, summary, s.cacheTTL)
	}
	return summary, false, nil
}
