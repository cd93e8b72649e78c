package membership

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Status values derived from a membership window.
const (
	StatusActive  = "Active"
	StatusExpired = "Expired"
)

// Domain errors
var (
	ErrInvalidDate     = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidDuration = errors.New("duration must be at least 1 month")
)

// ParseDate parses a YYYY-MM-DD string into a civil date at 00:00 UTC.
// PRE: s is a YYYY-MM-DD string (surrounding whitespace ignored)
// POST: Returns the civil date or ErrInvalidDate
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate renders a civil date as YYYY-MM-DD. The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// Today returns the civil date of now in loc, normalised to 00:00 UTC so it
// compares directly against dates produced by ParseDate.
// PRE: loc is non-nil
// POST: Returned time has zero hour, minute, second and nanosecond in UTC
func Today(now time.Time, loc *time.Location) time.Time {
	return DateOf(now.In(loc))
}

// DateOf drops the time-of-day from t, keeping its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalculateStatus derives a membership status from its end date.
// Comparison is calendar-day granular: the end date itself is still Active.
// PRE: endDate and today are civil dates
// POST: Returns StatusExpired if endDate < today, StatusActive otherwise
func CalculateStatus(endDate, today time.Time) string {
	if DateOf(endDate).Before(DateOf(today)) {
		return StatusExpired
	}
	return StatusActive
}

// CalculateEndDate adds months to start using calendar month arithmetic.
// When the start day does not exist in the target month the result is clamped
// to that month's last day, so Jan 31 + 1 month is Feb 28 (or Feb 29).
// PRE: months >= 1
// POST: Result month is (start.Month + months) mod 12 with year carry
func CalculateEndDate(start time.Time, months int) (time.Time, error) {
	if months < 1 {
		return time.Time{}, ErrInvalidDuration
	}
	return AddMonths(start, months), nil
}

// AddMonths adds n (possibly negative) months to t with clamp-to-last-day.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	year := y + floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)
	if last := DaysIn(year, month); d > last {
		d = last
	}
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
