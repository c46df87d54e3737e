package export

import (
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// WritePDF renders the table on landscape A4 pages with the header row
// repeated on each page. Text is converted to cp1252 for the core fonts.
func WritePDF(w io.Writer, t *Table) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(false, 12)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	usable := pageW - left - right

	colW := usable
	if len(t.Headers) > 0 {
		colW = usable / float64(len(t.Headers))
	}
	const rowH = 7.0

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(usable, 10, tr(t.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(usable, 5, "Generated "+time.Now().UTC().Format(time.RFC1123), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range t.Headers {
			pdf.CellFormat(colW, rowH, fit(pdf, tr(h), colW), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	for _, row := range t.Rows {
		if pdf.GetY()+rowH > pageH-bottom {
			pdf.AddPage()
			header()
		}
		for i := range t.Headers {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			pdf.CellFormat(colW, rowH, fit(pdf, tr(v), colW), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}

// fit truncates s with an ellipsis so it fits in width. s must already be
// translated: one byte per glyph.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	const pad = 2.0
	if pdf.GetStringWidth(s) <= width-pad {
		return s
	}
	b := []byte(s)
	for len(b) > 0 && pdf.GetStringWidth(string(b)+"...") > width-pad {
		b = b[:len(b)-1]
	}
	return string(b) + "..."
}
