package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter renders Dataset records into an .xlsx workbook.
type ExcelExporter struct {
	headerFill string
	headerText string
}

// NewExcelExporter builds an Excel exporter whose header row uses the given
// hex colors. Empty values leave the header unstyled apart from bold text.
func NewExcelExporter(headerFill, headerText string) *ExcelExporter {
	return &ExcelExporter{headerFill: headerFill, headerText: headerText}
}

// Render writes the headers to row 1 and one row per record below them.
func (e *ExcelExporter) Render(data Dataset, sheet string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("excel requires at least one header")
	}
	if sheet == "" {
		sheet = "Sheet1"
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	header := make([]interface{}, len(data.Headers))
	for i, h := range data.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write excel header: %w", err)
	}

	for r, row := range data.Rows {
		record := make([]interface{}, len(data.Headers))
		for i, h := range data.Headers {
			record[i] = row[h]
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, fmt.Errorf("excel cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &record); err != nil {
			return nil, fmt.Errorf("write excel row: %w", err)
		}
	}

	if err := e.styleHeader(f, sheet, len(data.Headers)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render excel: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *ExcelExporter) styleHeader(f *excelize.File, sheet string, columns int) error {
	style := &excelize.Style{Font: &excelize.Font{Bold: true}}
	if e.headerText != "" {
		style.Font.Color = e.headerText
	}
	if e.headerFill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{e.headerFill}}
	}
	id, err := f.NewStyle(style)
	if err != nil {
		return fmt.Errorf("create excel header style: %w", err)
	}

	last, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		return fmt.Errorf("excel column name: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", id); err != nil {
		return fmt.Errorf("apply excel header style: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", last, 22); err != nil {
		return fmt.Errorf("set excel column width: %w", err)
	}
	return nil
}
