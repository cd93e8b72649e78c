// Package export writes reports as CSV, JSON or XLSX and renders bill receipts.
package export

import (
	"fmt"
	"io"

	domain "gymdesk/internal/domain/export"
)

// ContentType returns the MIME type for a report format.
func ContentType(format string) string {
	switch format {
	case domain.FormatCSV:
		return "text/csv; charset=utf-8"
	case domain.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json; charset=utf-8"
}

// Write renders r to w in format.
// PRE: format is one of csv, json, xlsx
// POST: w holds a complete document or an error is returned
func Write(w io.Writer, r domain.Report, format string) error {
	if err := r.Table.Validate(); err != nil {
		return err
	}
	switch format {
	case domain.FormatCSV:
		return WriteCSV(w, r.Table)
	case domain.FormatJSON:
		return WriteJSON(w, r)
	case domain.FormatXLSX:
		return WriteXLSX(w, r)
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownFormat, format)
}
