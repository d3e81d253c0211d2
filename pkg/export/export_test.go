package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Nombre", "CURP", "Estatus"},
		Rows: []map[string]string{
			{"Nombre": "PEREZ LOPEZ ANA", "CURP": "ABCD010101HDFXXX01", "Estatus": "En revisión"},
			{"Nombre": "RUIZ DIAZ LUIS", "CURP": "WXYZ020202HDFYYY02", "Estatus": "Aprobado"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, UTF8BOM))
	assert.Contains(t, string(out), "Estatus\r\n")

	records, err := csv.NewReader(bytes.NewReader(TrimBOM(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Nombre", "CURP", "Estatus"}, records[0])
	assert.Equal(t, "En revisión", records[1][2])
}

func TestCSVExporterMissingCellsAndNoHeaders(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"Nombre", "Estatus"},
		Rows:    []map[string]string{{"Nombre": "PÉREZ"}},
	})
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(TrimBOM(out))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"PÉREZ", ""}, records[1])

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := sampleDataset()
	for i := 0; i < 80; i++ {
		data.Rows = append(data.Rows, map[string]string{"Nombre": "UN NOMBRE MUY LARGO QUE NO CABE EN LA CELDA DEL REPORTE", "CURP": "X", "Estatus": "Pendiente"})
	}
	out, err := NewPDFExporter().Render(data, PDFOptions{
		TitleLines:     []string{"CETIS 54", "Reporte de Solicitudes"},
		ColumnWidths:   []float64{90, 40, 40},
		HeaderFill:     MustHexColor("#621132"),
		HeaderText:     Color{255, 255, 255},
		RowColorColumn: "Estatus",
		RowColors:      map[string]Color{"Pendiente": MustHexColor("#ffe08a")},
		Now:            func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, PDFOptions{})
	assert.Error(t, err)
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#621132")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0x62, G: 0x11, B: 0x32}, c)

	_, err = ParseHexColor("#12")
	assert.Error(t, err)
}

func TestExcelExporterRender(t *testing.T) {
	out, err := NewExcelExporter("#621132", "#FFFFFF").Render(sampleDataset(), "Solicitudes")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	assert.Equal(t, []string{"Solicitudes"}, f.GetSheetList())
	rows, err := f.GetRows("Solicitudes")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Nombre", "CURP", "Estatus"}, rows[0])
	assert.Equal(t, []string{"RUIZ DIAZ LUIS", "WXYZ020202HDFYYY02", "Aprobado"}, rows[2])
}
