package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/internal/models"
	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
)

func newImportServiceUnderTest() (*ImportService, *memoryEquipmentRepo, *MetricsService) {
	repo := newMemoryEquipmentRepo()
	metrics := NewMetricsService()
	equipment := NewEquipmentService(repo, nil, nil, nil, nil)
	return NewImportService(equipment, metrics, nil), repo, metrics
}

const russianExport = "\ufeffИнвентарный номер;Наименование;Категория;Дата покупки;Цена покупки;Местоположение;Статус\n" +
	"INV-001;Printer;Оргтехника;2024-01-01;15000,50;Office 1;active\n" +
	"INV-002;;Офисная мебель;;;;\n" +
	"INV-003;Chair;;;;;broken\n" +
	"INV-004;Desk;;2024/13/01;;;\n" +
	"INV-001;Duplicate;;;;;\n" +
	"INV-005;Lamp;;;abc;;\n" +
	"INV-006;Shelf;;;;;Резерв\n"

func TestImportServiceReportsPerRowOutcomes(t *testing.T) {
	svc, repo, metrics := newImportServiceUnderTest()

	result, err := svc.ImportEquipment(context.Background(), strings.NewReader(russianExport))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Imported)
	require.Len(t, result.Warnings, 2)
	assert.Equal(t, 3, result.Warnings[0].Row)
	assert.Equal(t, 4, result.Warnings[1].Row)
	assert.Contains(t, result.Warnings[1].Message, "broken")

	rows := make([]int, 0, len(result.Errors))
	for _, issue := range result.Errors {
		rows = append(rows, issue.Row)
	}
	assert.Equal(t, []int{5, 6, 7}, rows)
	assert.Contains(t, result.Errors[1].Message, "INV-001 already exists")

	printer, err := repo.FindByInventoryNumber(context.Background(), "INV-001")
	require.NoError(t, err)
	assert.Equal(t, "15000.5", printer.PurchasePrice.Decimal.String())
	assert.Equal(t, "Office 1", *printer.CurrentLocation)

	chair, err := repo.FindByInventoryNumber(context.Background(), "INV-003")
	require.NoError(t, err)
	assert.Equal(t, models.EquipmentStatusActive, chair.Status)

	shelf, err := repo.FindByInventoryNumber(context.Background(), "INV-006")
	require.NoError(t, err)
	assert.Equal(t, models.EquipmentStatusReserved, shelf.Status)

	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.importRows.WithLabelValues("imported")))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.importRows.WithLabelValues("error")))
}

func TestImportServiceEnglishHeadersWithCommas(t *testing.T) {
	svc, repo, _ := newImportServiceUnderTest()
	input := "inventory_number,name,purchase_price,status\n" +
		"A-1,\"Desk, oak\",1200.00,in_repair\n" +
		",,,\n" +
		"A-2,Chair,,\n"

	result, err := svc.ImportEquipment(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)

	desk, err := repo.FindByInventoryNumber(context.Background(), "A-1")
	require.NoError(t, err)
	assert.Equal(t, "Desk, oak", desk.Name)
	assert.Equal(t, models.EquipmentStatusInRepair, desk.Status)
}

func TestImportServiceTabsAndUTF16(t *testing.T) {
	svc, repo, _ := newImportServiceUnderTest()
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("Инв. номер\tНазвание\tМесто\nT-1\tScanner\tRoom 5\n")
	require.NoError(t, err)

	result, err := svc.ImportEquipment(context.Background(), strings.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	scanner, err := repo.FindByInventoryNumber(context.Background(), "T-1")
	require.NoError(t, err)
	assert.Equal(t, "Scanner", scanner.Name)
	assert.Equal(t, "Room 5", *scanner.CurrentLocation)
}

func TestImportServiceEmptyFile(t *testing.T) {
	svc, _, _ := newImportServiceUnderTest()

	_, err := svc.ImportEquipment(context.Background(), strings.NewReader(""))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ';', sniffDelimiter([]byte("a;b;c\n1,2;3")))
	assert.Equal(t, '\t', sniffDelimiter([]byte("a\tb")))
	assert.Equal(t, ',', sniffDelimiter([]byte("single")))
}

func TestImportResultShape(t *testing.T) {
	svc, _, _ := newImportServiceUnderTest()
	result, err := svc.ImportEquipment(context.Background(), strings.NewReader("name\n"))
	require.NoError(t, err)
	assert.Equal(t, &dto.ImportResult{Errors: []dto.ImportIssue{}, Warnings: []dto.ImportIssue{}}, result)
}
