package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVExporter renders datasets as CSV. The defaults (";" and a UTF-8 BOM)
// open correctly in spreadsheet tools configured for a comma decimal separator.
type CSVExporter struct {
	Delimiter rune
	BOM       bool
}

// NewCSVExporter builds a CSV exporter with the spreadsheet-friendly defaults.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{Delimiter: ';', BOM: true}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("csv"); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if e.BOM {
		buf.Write(utf8BOM)
	}
	writer := csv.NewWriter(buf)
	if e.Delimiter != 0 {
		writer.Comma = e.Delimiter
	}
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	if err := writer.WriteAll(data.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
