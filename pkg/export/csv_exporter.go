package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
)

// UTF8BOM prefixes CSV output so spreadsheet software detects the encoding
// of accented names and statuses.
var UTF8BOM = []byte{0xEF, 0xBB, 0xBF}

// Dataset defines tabular export content. Rows are keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders a Dataset as spreadsheet-friendly CSV: UTF-8 with a
// byte order mark and CRLF line endings.
type CSVExporter struct {
	comma rune
	bom   bool
}

// NewCSVExporter builds a comma separated exporter that writes a BOM.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{comma: ',', bom: true}
}

// Render writes the header row followed by one record per row, in header
// order. Missing cells are empty.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, errors.New("csv export needs at least one column")
	}

	buf := &bytes.Buffer{}
	if e.bom {
		buf.Write(UTF8BOM)
	}
	writer := csv.NewWriter(buf)
	writer.Comma = e.comma
	writer.UseCRLF = true

	records := make([][]string, 0, len(data.Rows)+1)
	records = append(records, data.Headers)
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		records = append(records, record)
	}
	if err := writer.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// TrimBOM strips a leading UTF-8 byte order mark, for readers that do not.
func TrimBOM(payload []byte) []byte {
	return bytes.TrimPrefix(payload, UTF8BOM)
}
