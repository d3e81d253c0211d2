package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Color is an RGB triple used for cell fills and text.
type Color struct {
	R, G, B int
}

// ParseHexColor parses "#rrggbb" (the leading '#' is optional).
func ParseHexColor(hex string) (Color, error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q", hex)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}

// MustHexColor is ParseHexColor for compile-time constants.
func MustHexColor(hex string) Color {
	c, err := ParseHexColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// PDFOptions controls the report layout.
type PDFOptions struct {
	// TitleLines are centred at the top, the first one in bold.
	TitleLines []string
	// ColumnWidths in millimetres; columns share the printable width when empty.
	ColumnWidths []float64
	HeaderFill   Color
	HeaderText   Color
	// RowColorColumn names the column whose value selects a fill from RowColors.
	RowColorColumn string
	RowColors      map[string]Color
	// Now stamps the "Fecha:" line; defaults to time.Now.
	Now func() time.Time
}

const (
	pdfMargin     = 20.0
	pdfPageWidth  = 210.0
	pdfPageHeight = 297.0
	pdfRowHeight  = 7.0
)

// PDFExporter renders datasets into a tabular A4 PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with title lines, a timestamp and the table.
func (e *PDFExporter) Render(data Dataset, opts PDFOptions) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	widths := opts.ColumnWidths
	if len(widths) != len(data.Headers) {
		widths = make([]float64, len(data.Headers))
		for i := range widths {
			widths[i] = (pdfPageWidth - 2*pdfMargin) / float64(len(data.Headers))
		}
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	for i, line := range opts.TitleLines {
		if i == 0 {
			pdf.SetFont("Helvetica", "B", 16)
		} else {
			pdf.SetFont("Helvetica", "", 14)
		}
		pdf.CellFormat(0, 8, tr(line), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr("Fecha: "+now().Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetDrawColor(128, 128, 128)
	pdf.SetLineWidth(0.18)

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(opts.HeaderFill.R, opts.HeaderFill.G, opts.HeaderFill.B)
		pdf.SetTextColor(opts.HeaderText.R, opts.HeaderText.G, opts.HeaderText.B)
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
	}
	header()

	for _, row := range data.Rows {
		if pdf.GetY()+pdfRowHeight > pdfPageHeight-pdfMargin {
			pdf.AddPage()
			header()
		}
		fill := false
		if opts.RowColorColumn != "" {
			if c, ok := opts.RowColors[row[opts.RowColorColumn]]; ok {
				pdf.SetFillColor(c.R, c.G, c.B)
				fill = true
			}
		}
		for i, h := range data.Headers {
			text := fit(pdf, tr(row[h]), widths[i]-2)
			pdf.CellFormat(widths[i], pdfRowHeight, text, "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// fit truncates text so it stays inside a cell of the given width.
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	for len(text) > 0 && pdf.GetStringWidth(text+"...") > width {
		text = text[:len(text)-1]
	}
	return text + "..."
}
