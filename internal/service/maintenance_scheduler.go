package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
)

type maintenanceHistoryReader interface {
	ListAllOrdered(ctx context.Context) ([]models.MaintenanceEvent, error)
}

// SchedulerConfig holds the operator-tunable intervals.
type SchedulerConfig struct {
	LookAheadDays        int
	DefaultIntervalDays  int
	CategoryIntervalDays map[string]int
}

// WorklistOptions is the fully resolved input of one worklist computation.
type WorklistOptions struct {
	Today                time.Time
	LookAheadDays        int
	DefaultIntervalDays  int
	CategoryIntervalDays map[string]int
}

// IntervalFor returns the service interval of a category.
func (o WorklistOptions) IntervalFor(category string) int {
	if days, ok := o.CategoryIntervalDays[category]; ok && days > 0 {
		return days
	}
	return o.DefaultIntervalDays
}

// MaintenanceScheduler projects the next service date of every item. Nothing
// is persisted; the worklist is recomputed on every call.
type MaintenanceScheduler struct {
	equipment equipmentLister
	history   maintenanceHistoryReader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SchedulerConfig
	now       func() time.Time
}

// NewMaintenanceScheduler constructs the scheduler.
func NewMaintenanceScheduler(equipment equipmentLister, history maintenanceHistoryReader, metrics *MetricsService, cfg SchedulerConfig, validate *validator.Validate, logger *zap.Logger) *MaintenanceScheduler {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultIntervalDays <= 0 {
		cfg.DefaultIntervalDays = 90
	}
	if cfg.LookAheadDays < 0 {
		cfg.LookAheadDays = 30
	}
	return &MaintenanceScheduler{equipment: equipment, history: history, metrics: metrics, validator: validate, logger: logger, cfg: cfg, now: time.Now}
}

// Worklist returns the items due or approaching service within the look-ahead window.
func (s *MaintenanceScheduler) Worklist(ctx context.Context, req dto.MaintenanceScheduleRequest) (*dto.MaintenanceScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid schedule request")
	}

	opts := WorklistOptions{
		Today:                calendarDay(s.now()),
		LookAheadDays:        s.cfg.LookAheadDays,
		DefaultIntervalDays:  s.cfg.DefaultIntervalDays,
		CategoryIntervalDays: s.cfg.CategoryIntervalDays,
	}
	if req.LookAheadDays != nil {
		opts.LookAheadDays = *req.LookAheadDays
	}
	if req.Today != "" {
		today, err := parseDate(req.Today)
		if err != nil {
			return nil, appErrors.Validation(err, "invalid today")
		}
		opts.Today = today
	}

	start := time.Now()
	items, err := s.equipment.List(ctx, models.EquipmentFilter{Category: strings.TrimSpace(req.Category)})
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list equipment")
	}
	history, err := s.history.ListAllOrdered(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load maintenance history")
	}
	s.metrics.ObserveDBQuery("maintenance_schedule", time.Since(start))

	worklist, skipped := BuildWorklist(items, history, opts, s.logger)

	counts := map[string]int{
		string(models.ServiceStatusOverdue):         0,
		string(models.ServiceStatusScheduled):       0,
		string(models.ServiceStatusFirstServiceDue): 0,
	}
	for _, item := range worklist {
		counts[string(item.Status)]++
	}
	s.metrics.SetWorklistSize(counts)
	s.logger.Info("maintenance worklist computed",
		zap.String("today", opts.Today.Format(DateLayout)),
		zap.Int("look_ahead_days", opts.LookAheadDays),
		zap.Int("items", len(worklist)),
		zap.Int("skipped", skipped),
	)

	return &dto.MaintenanceScheduleResponse{
		Today:         opts.Today.Format(DateLayout),
		LookAheadDays: opts.LookAheadDays,
		Items:         worklist,
		Skipped:       skipped,
	}, nil
}

// BuildWorklist evaluates every item independently and returns the worklist
// sorted by next due date (inventory number breaks ties) together with the
// number of items skipped because of malformed dates.
func BuildWorklist(items []models.Equipment, history []models.MaintenanceEvent, opts WorklistOptions, logger *zap.Logger) ([]models.ServiceDueItem, int) {
	if logger == nil {
		logger = zap.NewNop()
	}
	today := calendarDay(opts.Today)
	horizon := today.AddDate(0, 0, opts.LookAheadDays)
	latest := latestEvents(history)

	worklist := make([]models.ServiceDueItem, 0)
	skipped := 0
	for _, item := range items {
		interval := opts.IntervalFor(item.CategoryName())

		if event, ok := latest[item.ID]; ok {
			last, err := parseDate(event.MaintenanceDate)
			if err != nil {
				logger.Warn("skipping equipment with malformed maintenance date",
					zap.String("inventory_number", item.InventoryNumber),
					zap.Int64("maintenance_id", event.ID),
					zap.Error(err))
				skipped++
				continue
			}
			nextDue := last.AddDate(0, 0, interval)
			if nextDue.After(horizon) {
				continue
			}
			status := models.ServiceStatusScheduled
			if !nextDue.After(today) {
				status = models.ServiceStatusOverdue
			}
			lastDate := event.MaintenanceDate
			serviceType := event.Type
			worklist = append(worklist, models.ServiceDueItem{
				Equipment:            item,
				LastServiceDate:      &lastDate,
				DaysSinceLastService: daysBetween(last, today),
				ServiceType:          &serviceType,
				IntervalDays:         interval,
				NextDue:              nextDue.Format(DateLayout),
				Status:               status,
			})
			continue
		}

		if item.PurchaseDate == nil || strings.TrimSpace(*item.PurchaseDate) == "" {
			continue
		}
		purchased, err := parseDate(*item.PurchaseDate)
		if err != nil {
			logger.Warn("skipping equipment with malformed purchase date",
				zap.String("inventory_number", item.InventoryNumber),
				zap.Error(err))
			skipped++
			continue
		}
		daysSincePurchase := daysBetween(purchased, today)
		if daysSincePurchase < interval {
			continue
		}
		worklist = append(worklist, models.ServiceDueItem{
			Equipment:            item,
			DaysSinceLastService: daysSincePurchase,
			IntervalDays:         interval,
			NextDue:              today.Format(DateLayout),
			Status:               models.ServiceStatusFirstServiceDue,
		})
	}

	sort.SliceStable(worklist, func(i, j int) bool {
		if worklist[i].NextDue != worklist[j].NextDue {
			return worklist[i].NextDue < worklist[j].NextDue
		}
		return worklist[i].Equipment.InventoryNumber < worklist[j].Equipment.InventoryNumber
	})
	return worklist, skipped
}

// latestEvents picks the most recent event per equipment by (date DESC, id DESC).
func latestEvents(history []models.MaintenanceEvent) map[int64]models.MaintenanceEvent {
	latest := make(map[int64]models.MaintenanceEvent)
	for _, event := range history {
		current, ok := latest[event.EquipmentID]
		if !ok || event.MaintenanceDate > current.MaintenanceDate ||
			(event.MaintenanceDate == current.MaintenanceDate && event.ID > current.ID) {
			latest[event.EquipmentID] = event
		}
	}
	return latest
}
