package export

import (
	"bufio"
	"io"
	"strings"

	domain "gymdesk/internal/domain/export"
)

// WriteCSV writes the header row and data rows with every field quoted.
// INVARIANT: embedded quotes are doubled; rows end with CRLF
func WriteCSV(w io.Writer, t domain.Table) error {
	bw := bufio.NewWriter(w)
	if err := writeCSVRow(bw, t.Headers); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writeCSVRow(bw, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeCSVRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}
