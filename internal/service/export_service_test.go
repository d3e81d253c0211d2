package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/egresados-intake/internal/models"
	appErrors "github.com/noah-isme/egresados-intake/pkg/errors"
	"github.com/noah-isme/egresados-intake/pkg/export"
)

type exportStoreStub struct {
	rows       []models.ApplicationExportRow
	lastFilter models.ApplicationFilter
}

func (s *exportStoreStub) ListExportRows(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationExportRow, error) {
	s.lastFilter = filter
	out := make([]models.ApplicationExportRow, 0, len(s.rows))
	for _, row := range s.rows {
		if filter.Status == "" || row.Status == filter.Status {
			out = append(out, row)
		}
	}
	return out, nil
}

type capturingPDF struct {
	data export.Dataset
	opts export.PDFOptions
}

func (c *capturingPDF) Render(data export.Dataset, opts export.PDFOptions) ([]byte, error) {
	c.data = data
	c.opts = opts
	return []byte("%PDF-stub"), nil
}

func exportRows() []models.ApplicationExportRow {
	return []models.ApplicationExportRow{
		{FullName: "PÉREZ LÓPEZ ANA", CURP: "ABCD010101HDFXXX01", ControlNumber: "20230001", Specialty: "Programación", Status: models.StatusPending},
		{FullName: "RUIZ DÍAZ LUIS", CURP: "EFGH020202HDFYYY02", ControlNumber: "20230002", Specialty: "Contabilidad", Status: models.StatusApproved},
	}
}

func TestExportServiceExcel(t *testing.T) {
	store := &exportStoreStub{rows: exportRows()}
	svc := NewExportService(store, nil, zap.NewNop(), ExportConfig{InstitutionName: "CETIS 54"}, nil, nil, nil)

	file, err := svc.Export(context.Background(), ExportExcel, models.ApplicationFilter{})
	require.NoError(t, err)
	assert.Equal(t, "solicitudes.xlsx", file.Filename)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", file.ContentType)

	book, err := excelize.OpenReader(bytes.NewReader(file.Payload))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Solicitudes")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Nombre", "CURP", "Control", "Especialidad", "Estatus"}, rows[0])
	assert.Equal(t, []string{"PÉREZ LÓPEZ ANA", "ABCD010101HDFXXX01", "20230001", "Programación", "Pendiente"}, rows[1])
}

func TestExportServiceCSVFiltered(t *testing.T) {
	store := &exportStoreStub{rows: exportRows()}
	svc := NewExportService(store, nil, zap.NewNop(), ExportConfig{}, nil, nil, nil)

	file, err := svc.Export(context.Background(), ExportCSV, models.ApplicationFilter{Status: models.StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, "solicitudes_aprobado.csv", file.Filename)
	assert.Equal(t, models.StatusApproved, store.lastFilter.Status)

	require.True(t, bytes.HasPrefix(file.Payload, export.UTF8BOM))
	records, err := csv.NewReader(bytes.NewReader(export.TrimBOM(file.Payload))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "RUIZ DÍAZ LUIS", records[1][0])
	assert.Equal(t, "Aprobado", records[1][4])
}

func TestExportServicePDFOptions(t *testing.T) {
	store := &exportStoreStub{rows: exportRows()}
	pdf := &capturingPDF{}
	now := time.Date(2024, 5, 6, 7, 8, 0, 0, time.UTC)
	svc := NewExportService(store, nil, zap.NewNop(), ExportConfig{InstitutionName: "CETIS 54", StatusColors: true, Now: func() time.Time { return now }}, nil, pdf, nil)

	file, err := svc.Export(context.Background(), ExportPDF, models.ApplicationFilter{Status: models.StatusInReview})
	require.NoError(t, err)
	assert.Equal(t, "solicitudes_en_revision.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)

	assert.Equal(t, []string{"CETIS 54", "Reporte de Solicitudes"}, pdf.opts.TitleLines)
	assert.Equal(t, export.Color{R: 0x62, G: 0x11, B: 0x32}, pdf.opts.HeaderFill)
	assert.Equal(t, export.Color{R: 255, G: 255, B: 255}, pdf.opts.HeaderText)
	assert.Equal(t, "Estatus", pdf.opts.RowColorColumn)
	assert.Equal(t, export.Color{R: 0xff, G: 0xe0, B: 0x8a}, pdf.opts.RowColors["Pendiente"])
	assert.Equal(t, now, pdf.opts.Now())
	assert.Empty(t, pdf.data.Rows)
}

func TestExportServicePDFWithoutStatusColors(t *testing.T) {
	store := &exportStoreStub{rows: exportRows()}
	svc := NewExportService(store, nil, zap.NewNop(), ExportConfig{InstitutionName: "CETIS 54"}, nil, nil, nil)

	file, err := svc.Export(context.Background(), ExportPDF, models.ApplicationFilter{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(file.Payload, []byte("%PDF")))
	assert.Nil(t, svc.pdfOptions().RowColors)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(&exportStoreStub{}, nil, zap.NewNop(), ExportConfig{}, nil, nil, nil)

	_, err := svc.Export(context.Background(), ExportFormat("docx"), models.ApplicationFilter{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
