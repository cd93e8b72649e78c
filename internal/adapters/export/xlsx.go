package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	domain "gymdesk/internal/domain/export"
)

const (
	minColWidth = 10
	maxColWidth = 50
)

// SheetName returns the worksheet title for a report type, e.g. "Members".
func SheetName(reportType string) string {
	if reportType == "" {
		return "Report"
	}
	r, size := utf8.DecodeRuneInString(reportType)
	if r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	return string(r) + reportType[size:]
}

// WriteXLSX writes a single-sheet workbook with a bold, frozen header row.
// Cells are written as text so amounts keep their two decimals.
func WriteXLSX(w io.Writer, r domain.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(r.Type)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F2F2F2"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	widths := make([]int, len(r.Table.Headers))
	write := func(rowNum int, values []string) error {
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(sheet, cell, v); err != nil {
				return fmt.Errorf("set %s: %w", cell, err)
			}
			if n := utf8.RuneCountInString(v); n > widths[col] {
				widths[col] = n
			}
		}
		return nil
	}

	if err := write(1, r.Table.Headers); err != nil {
		return err
	}
	if len(r.Table.Headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(r.Table.Headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}
	for i, row := range r.Table.Rows {
		if err := write(i+2, row); err != nil {
			return err
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(max(width+2, minColWidth), maxColWidth))); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
