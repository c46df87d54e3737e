package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	xerrors "insurance-service/internal/pkg/errors"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() *Table {
	return &Table{
		Title:   "Claims: March",
		Headers: []string{"Claim", "Customer", "Amount"},
		Rows: [][]string{
			{"CLM-1", "Jane, Doe", "1500"},
			{"CLM-2", "John \"JJ\" Roe", "250.5"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("docx")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	assert.Equal(t, "claims.pdf", FormatPDF.Filename("claims"))
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sample()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Claim", "Customer", "Amount"}, records[0])
	assert.Equal(t, "Jane, Doe", records[1][1])
	assert.Equal(t, `John "JJ" Roe`, records[2][1])
}

func TestWriteCSVNeutralisesFormulas(t *testing.T) {
	table := &Table{
		Headers: []string{"Customer", "Notes", "Amount"},
		Rows: [][]string{
			{"=HYPERLINK(\"http://x\")", "@SUM(A1)", "-12.50"},
			{"+1+1", "-2+3", "1e3"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, `'=HYPERLINK("http://x")`, records[1][0])
	assert.Equal(t, "'@SUM(A1)", records[1][1])
	assert.Equal(t, "-12.50", records[1][2])
	assert.Equal(t, "'+1+1", records[2][0])
	assert.Equal(t, "'-2+3", records[2][1])
	assert.Equal(t, "1e3", records[2][2])
}

func TestWriteXLSXStoresFormulaTextAsString(t *testing.T) {
	table := &Table{Title: "Customers", Headers: []string{"Name"}, Rows: [][]string{{"=1+1"}}}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, table))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	formula, err := f.GetCellFormula("Customers", "A2")
	require.NoError(t, err)
	assert.Empty(t, formula)
	v, err := f.GetCellValue("Customers", "A2")
	require.NoError(t, err)
	assert.Equal(t, "=1+1", v)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sample()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	assert.Equal(t, "Claims March", sheet)

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "CLM-2", rows[2][0])
	assert.Equal(t, "250.5", rows[2][2])
}

func TestWritePDF(t *testing.T) {
	table := sample()
	for i := 0; i < 80; i++ {
		table.Rows = append(table.Rows, []string{"CLM-X", "A very long customer name that will not fit in the column", "1"})
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatPDF, table))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWritePDFNonASCII(t *testing.T) {
	table := &Table{
		Title:   "Clientes: José",
		Headers: []string{"Nombre", "Ciudad"},
		Rows:    [][]string{{"Zoë Müller", "Malmö"}, {"François Dupré-Ærøskøbing Østergård", "São Paulo"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, table))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 9)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	assert.Equal(t, "Zo\xebM\xfcller", strings.ReplaceAll(tr("Zoë Müller"), " ", ""))

	short := fit(pdf, tr("Zoë"), 100)
	assert.Equal(t, "Zo\xeb", short)

	long := fit(pdf, tr(table.Rows[1][0]), 30)
	assert.True(t, strings.HasSuffix(long, "..."))
	assert.LessOrEqual(t, pdf.GetStringWidth(long), 28.0)
	assert.Equal(t, byte(0xe7), long[4])
}

func TestWriteRejectsJSON(t *testing.T) {
	assert.ErrorIs(t, Write(&bytes.Buffer{}, FormatJSON, sample()), xerrors.ErrInvalidInput)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Report", sheetName("[]"))
	assert.Len(t, []rune(sheetName("an extremely long report title exceeding the limit")), maxSheetName)
}
