package export

import (
	"errors"
	"strings"
	"time"
)

// Format constants for report output.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Report types
const (
	ReportMembers     = "members"
	ReportBills       = "bills"
	ReportPackages    = "packages"
	ReportOrders      = "orders"
	ReportSupplements = "supplements"
)

// ValidReports contains all report types.
var ValidReports = []string{ReportMembers, ReportBills, ReportPackages, ReportOrders, ReportSupplements}

// Domain errors.
var (
	ErrUnknownReport = errors.New("report must be one of: members, bills, packages, orders, supplements")
	ErrUnknownFormat = errors.New("format must be one of: csv, json, xlsx")
	ErrRaggedRow     = errors.New("row width does not match header")
)

// Table is a report flattened to a header and string rows in header order.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Validate checks every row has one cell per header.
func (t *Table) Validate() error {
	for _, r := range t.Rows {
		if len(r) != len(t.Headers) {
			return ErrRaggedRow
		}
	}
	return nil
}

// Records returns the rows as header-keyed maps, in row order.
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(r) {
				rec[h] = r[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

// Report is a table plus the metadata carried by the JSON envelope.
type Report struct {
	Type        string
	GeneratedAt time.Time
	Filters     map[string]string
	Stats       map[string]any
	Table       Table
}

// Envelope is the JSON export shape.
type Envelope struct {
	ReportType  string              `json:"reportType"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Filters     map[string]string   `json:"filters"`
	Stats       map[string]any      `json:"stats"`
	Data        []map[string]string `json:"data"`
}

// Envelope builds the JSON envelope for r.
func (r *Report) Envelope() Envelope {
	filters := r.Filters
	if filters == nil {
		filters = map[string]string{}
	}
	stats := r.Stats
	if stats == nil {
		stats = map[string]any{}
	}
	return Envelope{
		ReportType:  r.Type,
		GeneratedAt: r.GeneratedAt,
		Filters:     filters,
		Stats:       stats,
		Data:        r.Table.Records(),
	}
}

// Filename is "<type>-report-YYYY-MM-DD.<format>".
func (r *Report) Filename(format string) string {
	return r.Type + "-report-" + r.GeneratedAt.Format("2006-01-02") + "." + format
}

// ParseReportType validates a report type.
func ParseReportType(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range ValidReports {
		if v == s {
			return s, nil
		}
	}
	return "", ErrUnknownReport
}

// ParseFormat validates a format. Empty means JSON.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", ErrUnknownFormat
}
