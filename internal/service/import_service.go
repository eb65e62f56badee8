package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
	applog "github.com/noah-isme/equipment-tracker/pkg/logger"
)

const maxImportBytes = 10 << 20

type equipmentCreator interface {
	Create(ctx context.Context, req dto.CreateEquipmentRequest) (*models.Equipment, error)
}

// importColumns maps accepted header spellings to canonical field names.
var importColumns = map[string]string{
	"инвентарный номер": "inventory_number",
	"инв. номер":        "inventory_number",
	"inventory_number":  "inventory_number",
	"наименование":      "name",
	"название":          "name",
	"name":              "name",
	"категория":         "category",
	"category":          "category",
	"дата покупки":      "purchase_date",
	"дата":              "purchase_date",
	"purchase_date":     "purchase_date",
	"цена покупки":      "purchase_price",
	"цена":              "purchase_price",
	"purchase_price":    "purchase_price",
	"местоположение":    "current_location",
	"место":             "current_location",
	"current_location":  "current_location",
	"статус":            "status",
	"status":            "status",
}

// ImportService loads equipment from CSV files. Bad rows are reported and
// skipped; they never abort the batch.
type ImportService struct {
	equipment equipmentCreator
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewImportService constructs the import service.
func NewImportService(equipment equipmentCreator, metrics *MetricsService, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{equipment: equipment, metrics: metrics, logger: logger}
}

// ImportEquipment reads a CSV document with a header row. Rows are numbered
// from 2 in the returned issues.
func (s *ImportService) ImportEquipment(ctx context.Context, r io.Reader) (*dto.ImportResult, error) {
	text, err := decodeImport(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "import file is empty")
		}
		return nil, appErrors.Validation(err, "failed to read import header")
	}
	columns := mapColumns(header)

	result := &dto.ImportResult{Errors: []dto.ImportIssue{}, Warnings: []dto.ImportIssue{}}
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Errors = append(result.Errors, dto.ImportIssue{Row: row, Message: parseErr.Err.Error()})
				continue
			}
			return nil, appErrors.Validation(err, "failed to read import file")
		}
		if blankRecord(record) {
			continue
		}
		s.importRow(ctx, row, fieldsOf(columns, record), result)
	}

	s.metrics.AddImportRows("imported", result.Imported)
	s.metrics.AddImportRows("error", len(result.Errors))
	s.metrics.AddImportRows("warning", len(result.Warnings))
	applog.FromContext(ctx, s.logger).Info("equipment import finished",
		zap.Int("imported", result.Imported),
		zap.Int("errors", len(result.Errors)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

func (s *ImportService) importRow(ctx context.Context, row int, fields map[string]string, result *dto.ImportResult) {
	inventoryNumber := fields["inventory_number"]
	name := fields["name"]
	if inventoryNumber == "" || name == "" {
		result.Warnings = append(result.Warnings, dto.ImportIssue{Row: row, Message: "skipped: inventory number and name are required"})
		return
	}

	req := dto.CreateEquipmentRequest{
		InventoryNumber: inventoryNumber,
		Name:            name,
		Category:        textOrNil(fields["category"]),
		PurchaseDate:    textOrNil(fields["purchase_date"]),
		CurrentLocation: textOrNil(fields["current_location"]),
		Status:          models.EquipmentStatusActive,
	}

	if raw := fields["purchase_price"]; raw != "" {
		price, err := decimal.NewFromString(strings.ReplaceAll(strings.ReplaceAll(raw, " ", ""), ",", "."))
		if err != nil {
			result.Errors = append(result.Errors, dto.ImportIssue{Row: row, Message: fmt.Sprintf("invalid purchase price %q", raw)})
			return
		}
		req.PurchasePrice = &price
	}
	if req.PurchaseDate != nil {
		if _, err := parseDate(*req.PurchaseDate); err != nil {
			result.Errors = append(result.Errors, dto.ImportIssue{Row: row, Message: err.Error()})
			return
		}
	}
	if raw := fields["status"]; raw != "" {
		status, ok := models.ParseEquipmentStatus(raw)
		if !ok {
			result.Warnings = append(result.Warnings, dto.ImportIssue{Row: row, Message: fmt.Sprintf("unknown status %q, set to active", raw)})
		} else {
			req.Status = status
		}
	}

	if _, err := s.equipment.Create(ctx, req); err != nil {
		result.Errors = append(result.Errors, dto.ImportIssue{Row: row, Message: appErrors.FromError(err).Message})
		return
	}
	result.Imported++
}

// decodeImport strips a UTF-8 BOM and converts UTF-16 input flagged by its BOM.
func decodeImport(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxImportBytes+1))
	if err != nil {
		return nil, appErrors.Validation(err, "failed to read import file")
	}
	if len(raw) > maxImportBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "import file is too large")
	}
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	text, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), decoder))
	if err != nil {
		return nil, appErrors.Validation(err, "import file is not valid text")
	}
	return text, nil
}

// sniffDelimiter picks the most frequent of ",", ";" and tab on the header line.
func sniffDelimiter(text []byte) rune {
	line := text
	if i := bytes.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	best, bestCount := ',', 0
	for _, candidate := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(candidate))); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}

func mapColumns(header []string) map[int]string {
	columns := make(map[int]string, len(header))
	for i, h := range header {
		if field, ok := importColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			columns[i] = field
		}
	}
	return columns
}

// fieldsOf keeps the first non-empty value when several aliases of a field are present.
func fieldsOf(columns map[int]string, record []string) map[string]string {
	fields := make(map[string]string, len(columns))
	for i, value := range record {
		field, ok := columns[i]
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value != "" && fields[field] == "" {
			fields[field] = value
		}
	}
	return fields
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func textOrNil(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
