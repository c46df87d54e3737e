// Package export renders report tables as CSV, XLSX or PDF.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	xerrors "insurance-service/internal/pkg/errors"
)

// Table is a report already built from fetched data.
type Table struct {
	Title   string     `json:"title"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q: %w", s, xerrors.ErrInvalidInput)
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/json"
}

// Filename is a download name such as "claims.xlsx".
func (f Format) Filename(base string) string {
	return base + "." + string(f)
}

// Write renders t in format f. JSON is handled by the caller.
func Write(w io.Writer, f Format, t *Table) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	case FormatPDF:
		return WritePDF(w, t)
	}
	return fmt.Errorf("format %q is not a file format: %w", f, xerrors.ErrInvalidInput)
}

// WriteCSV quotes cells a spreadsheet would read as a formula.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvRecord(t.Headers)); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(csvRecord(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = csvCell(v)
	}
	return out
}

// csvCell prefixes an apostrophe to text starting with a formula trigger.
// Plain numbers such as "-12.50" are left as they are.
func csvCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return v
		}
		return "'" + v
	}
	return v
}
