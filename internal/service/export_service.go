package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/egresados-intake/internal/models"
	appErrors "github.com/noah-isme/egresados-intake/pkg/errors"
	"github.com/noah-isme/egresados-intake/pkg/export"
)

// ExportFormat selects the report renderer.
type ExportFormat string

const (
	ExportPDF   ExportFormat = "pdf"
	ExportExcel ExportFormat = "xlsx"
	ExportCSV   ExportFormat = "csv"
)

const (
	contentTypePDF   = "application/pdf"
	contentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV   = "text/csv; charset=utf-8"

	reportSheet      = "Solicitudes"
	reportTitle      = "Reporte de Solicitudes"
	reportHeaderFill = "#621132"
	reportHeaderText = "#FFFFFF"
)

// Report columns, in output order.
var reportHeaders = []string{"Nombre", "CURP", "Control", "Especialidad", "Estatus"}

// reportColumnWidths are millimetres on an A4 page with 2cm margins.
var reportColumnWidths = []float64{50, 30, 30, 30, 30}

// StatusRowColors fills PDF rows by status.
var StatusRowColors = map[models.ApplicationStatus]string{
	models.StatusPending:  "#ffe08a",
	models.StatusInReview: "#9fd3e6",
	models.StatusApproved: "#9be7b0",
	models.StatusRejected: "#f5a3a3",
}

type exportStore interface {
	ListExportRows(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationExportRow, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, opts export.PDFOptions) ([]byte, error)
}

type excelRenderer interface {
	Render(data export.Dataset, sheet string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	InstitutionName string
	StatusColors    bool
	Now             func() time.Time
}

// ExportFile is a rendered report ready to download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService builds report datasets and renders them.
type ExportService struct {
	repo    exportStore
	csv     csvRenderer
	pdf     pdfRenderer
	excel   excelRenderer
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the package defaults.
func NewExportService(repo exportStore, metrics *MetricsService, logger *zap.Logger, cfg ExportConfig, csv csvRenderer, pdf pdfRenderer, excel excelRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if excel == nil {
		excel = export.NewExcelExporter(reportHeaderFill, reportHeaderText)
	}
	return &ExportService{repo: repo, csv: csv, pdf: pdf, excel: excel, metrics: metrics, logger: logger, cfg: cfg}
}

// Export renders the (optionally filtered) request list, newest first.
func (s *ExportService) Export(ctx context.Context, format ExportFormat, filter models.ApplicationFilter) (*ExportFile, error) {
	rows, err := s.repo.ListExportRows(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export rows")
	}
	data := buildDataset(rows)

	var (
		payload     []byte
		contentType string
	)
	switch format {
	case ExportPDF:
		payload, err = s.pdf.Render(data, s.pdfOptions())
		contentType = contentTypePDF
	case ExportExcel:
		payload, err = s.excel.Render(data, reportSheet)
		contentType = contentTypeExcel
	case ExportCSV:
		payload, err = s.csv.Render(data)
		contentType = contentTypeCSV
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("formato no soportado: %s", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	s.metrics.RecordExport(string(format))
	s.logger.Info("report exported", zap.String("format", string(format)), zap.String("status", string(filter.Status)), zap.Int("rows", len(rows)))
	return &ExportFile{
		Filename:    ExportFilename(format, filter),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

// ExportFilename is solicitudes.<ext>, or solicitudes_<status>.<ext> when filtered.
func ExportFilename(format ExportFormat, filter models.ApplicationFilter) string {
	if slug := filter.Status.Slug(); slug != "" {
		return fmt.Sprintf("solicitudes_%s.%s", slug, format)
	}
	return fmt.Sprintf("solicitudes.%s", format)
}

func (s *ExportService) pdfOptions() export.PDFOptions {
	opts := export.PDFOptions{
		TitleLines:   []string{s.cfg.InstitutionName, reportTitle},
		ColumnWidths: reportColumnWidths,
		HeaderFill:   export.MustHexColor(reportHeaderFill),
		HeaderText:   export.MustHexColor(reportHeaderText),
		Now:          s.cfg.Now,
	}
	if s.cfg.InstitutionName == "" {
		opts.TitleLines = []string{reportTitle}
	}
	if s.cfg.StatusColors {
		opts.RowColorColumn = "Estatus"
		opts.RowColors = make(map[string]export.Color, len(StatusRowColors))
		for status, hex := range StatusRowColors {
			opts.RowColors[string(status)] = export.MustHexColor(hex)
		}
	}
	return opts
}

func buildDataset(rows []models.ApplicationExportRow) export.Dataset {
	data := export.Dataset{Headers: reportHeaders, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"Nombre":       row.FullName,
			"CURP":         row.CURP,
			"Control":      row.ControlNumber,
			"Especialidad": row.Specialty,
			"Estatus":      string(row.Status),
		})
	}
	return data
}
