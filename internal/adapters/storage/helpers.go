package storage

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// ErrConflict reports a UNIQUE constraint violation.
var ErrConflict = errors.New("unique constraint violation")

// DateLayout is the storage format for civil dates.
const DateLayout = "2006-01-02"

// IsUniqueViolation reports whether err came from a UNIQUE constraint, and
// optionally whether it was on the given "table.column".
func IsUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return column == "" || strings.Contains(msg, column)
}

// NullDate encodes a civil date, NULL when zero.
func NullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(DateLayout)
}

// NullTime encodes an instant as RFC3339Nano UTC, NULL when zero.
func NullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Timestamp encodes a required instant.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseDate decodes a civil date column. NULL, empty or malformed values
// decode to the zero time.
func ParseDate(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ParseTime decodes an instant column written by NullTime or Timestamp.
func ParseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s.String); err == nil {
			return t
		}
	}
	return time.Time{}
}

// BoolInt encodes a bool as SQLite INTEGER.
func BoolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Scanner is the Scan method shared by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}
