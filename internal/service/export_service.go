package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
	"github.com/noah-isme/equipment-tracker/pkg/export"
)

type maintenanceReporter interface {
	MaintenanceReport(ctx context.Context, req dto.ReportRangeRequest) ([]models.MaintenanceReportRow, error)
	Depreciation(ctx context.Context) ([]models.DepreciationRow, error)
}

type worklistProvider interface {
	Worklist(ctx context.Context, req dto.MaintenanceScheduleRequest) (*dto.MaintenanceScheduleResponse, error)
}

type fileSaver interface {
	Save(name string, data []byte) (string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

var exportContentTypes = map[dto.ExportFormat]string{
	dto.ExportFormatCSV:  "text/csv; charset=utf-8",
	dto.ExportFormatPDF:  "application/pdf",
	dto.ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ExportService renders report datasets to files in the exports directory.
type ExportService struct {
	equipment equipmentLister
	reports   maintenanceReporter
	schedule  worklistProvider
	storage   fileSaver
	renderers map[dto.ExportFormat]datasetRenderer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Equipment   equipmentLister
	Reports     maintenanceReporter
	Schedule    worklistProvider
	Storage     fileSaver
	PDFFontPath string
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(params ExportServiceParams) *ExportService {
	if params.Validator == nil {
		params.Validator = NewValidator()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &ExportService{
		equipment: params.Equipment,
		reports:   params.Reports,
		schedule:  params.Schedule,
		storage:   params.Storage,
		renderers: map[dto.ExportFormat]datasetRenderer{
			dto.ExportFormatCSV:  export.NewCSVExporter(),
			dto.ExportFormatPDF:  export.NewPDFExporter(params.PDFFontPath),
			dto.ExportFormatXLSX: export.NewXLSXExporter(),
		},
		metrics:   params.Metrics,
		validator: params.Validator,
		logger:    params.Logger,
		now:       time.Now,
	}
}

// Export renders the dataset and stores it as <dataset>_<YYYYMMDD_HHMMSS>.<ext>.
func (s *ExportService) Export(ctx context.Context, req dto.ExportRequest) (*dto.ExportResult, error) {
	if req.Format == "" {
		req.Format = dto.ExportFormatCSV
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid export request")
	}

	data, err := s.buildDataset(ctx, req)
	if err != nil {
		return nil, err
	}
	renderer, ok := s.renderers[req.Format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", req.Format))
	}
	payload, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to render export")
	}

	filename := fmt.Sprintf("%s_%s.%s", req.Dataset, s.now().Format("20060102_150405"), req.Format)
	path, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to write export")
	}

	s.metrics.IncExport(string(req.Dataset), string(req.Format))
	s.logger.Info("export written",
		zap.String("dataset", string(req.Dataset)),
		zap.String("format", string(req.Format)),
		zap.String("path", path),
		zap.Int("rows", len(data.Rows)),
	)
	return &dto.ExportResult{
		Filename:    filename,
		Path:        path,
		Format:      req.Format,
		ContentType: exportContentTypes[req.Format],
		Rows:        len(data.Rows),
	}, nil
}

func (s *ExportService) buildDataset(ctx context.Context, req dto.ExportRequest) (export.Dataset, error) {
	switch req.Dataset {
	case dto.ExportDatasetEquipment:
		return s.equipmentDataset(ctx)
	case dto.ExportDatasetMaintenance:
		return s.maintenanceDataset(ctx, dto.ReportRangeRequest{From: req.From, To: req.To})
	case dto.ExportDatasetDepreciation:
		return s.depreciationDataset(ctx)
	case dto.ExportDatasetSchedule:
		return s.scheduleDataset(ctx)
	default:
		return export.Dataset{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported dataset %s", req.Dataset))
	}
}

func (s *ExportService) equipmentDataset(ctx context.Context) (export.Dataset, error) {
	items, err := s.equipment.List(ctx, models.EquipmentFilter{})
	if err != nil {
		return export.Dataset{}, appErrors.Storage(err, "failed to list equipment")
	}
	data := export.Dataset{
		Title:   "Оборудование",
		Headers: []string{"Инвентарный номер", "Наименование", "Категория", "Дата покупки", "Цена покупки", "Местоположение", "Статус"},
		Rows:    make([][]string, 0, len(items)),
	}
	for _, item := range items {
		data.Rows = append(data.Rows, []string{
			item.InventoryNumber,
			item.Name,
			deref(item.Category),
			deref(item.PurchaseDate),
			money(item.PurchasePrice),
			deref(item.CurrentLocation),
			item.Status.Label(),
		})
	}
	return data, nil
}

func (s *ExportService) maintenanceDataset(ctx context.Context, rng dto.ReportRangeRequest) (export.Dataset, error) {
	rows, err := s.reports.MaintenanceReport(ctx, rng)
	if err != nil {
		return export.Dataset{}, propagate(err, "failed to build maintenance report")
	}
	data := export.Dataset{
		Title:   "Обслуживание",
		Headers: []string{"Дата", "Инв. номер", "Наименование", "Тип", "Стоимость", "Описание"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, []string{
			row.MaintenanceDate,
			row.InventoryNumber,
			row.EquipmentName,
			row.Type,
			row.Cost.StringFixed(2),
			deref(row.Description),
		})
	}
	return data, nil
}

func (s *ExportService) depreciationDataset(ctx context.Context) (export.Dataset, error) {
	rows, err := s.reports.Depreciation(ctx)
	if err != nil {
		return export.Dataset{}, propagate(err, "failed to build depreciation report")
	}
	data := export.Dataset{
		Title:   "Амортизация",
		Headers: []string{"Инв. номер", "Наименование", "Категория", "Дата покупки", "Цена покупки", "Затраты на ТО", "Дней в эксплуатации", "Статус"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, []string{
			row.InventoryNumber,
			row.Name,
			deref(row.Category),
			deref(row.PurchaseDate),
			money(row.PurchasePrice),
			row.TotalMaintenanceCost.StringFixed(2),
			strconv.Itoa(row.DaysInUse),
			row.Status.Label(),
		})
	}
	return data, nil
}

func (s *ExportService) scheduleDataset(ctx context.Context) (export.Dataset, error) {
	worklist, err := s.schedule.Worklist(ctx, dto.MaintenanceScheduleRequest{})
	if err != nil {
		return export.Dataset{}, propagate(err, "failed to compute maintenance schedule")
	}
	data := export.Dataset{
		Title:   "График ТО",
		Headers: []string{"Инв. номер", "Наименование", "Последнее ТО", "Дней с ТО", "Тип ТО", "Следующее ТО", "Статус"},
		Rows:    make([][]string, 0, len(worklist.Items)),
	}
	for _, item := range worklist.Items {
		data.Rows = append(data.Rows, []string{
			item.Equipment.InventoryNumber,
			item.Equipment.Name,
			deref(item.LastServiceDate),
			strconv.Itoa(item.DaysSinceLastService),
			deref(item.ServiceType),
			item.NextDue,
			string(item.Status),
		})
	}
	return data, nil
}

// propagate keeps typed errors from collaborating services intact.
func propagate(err error, failure string) error {
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return appErrors.Storage(err, failure)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func money(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.StringFixed(2)
}
