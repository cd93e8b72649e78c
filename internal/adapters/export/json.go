package export

import (
	"encoding/json"
	"io"

	domain "gymdesk/internal/domain/export"
)

// WriteJSON writes the report envelope, indented.
func WriteJSON(w io.Writer, r domain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Envelope())
}
