package notification

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gymdesk/internal/domain/membership"
)

// Notification types
const (
	TypeGeneral    = "general"
	TypePayment    = "payment"
	TypeMembership = "membership"
	TypePromotion  = "promotion"
	TypeEvent      = "event"
)

// Audience selectors
const (
	TargetAll      = "all"
	TargetActive   = "active"
	TargetExpired  = "expired"
	TargetSpecific = "specific"
)

// Recurrence types
const (
	RecurDaily   = "daily"
	RecurWeekly  = "weekly"
	RecurMonthly = "monthly"
)

// Notification statuses
const (
	StatusScheduled = "Scheduled"
	StatusSent      = "Sent"
	StatusCancelled = "Cancelled"
)

// TimeLayout is the HH:MM send time format.
const TimeLayout = "15:04"

// MaxTitleLength bounds the title.
const MaxTitleLength = 200

// ValidTypes contains all valid notification types.
var ValidTypes = []string{TypeGeneral, TypePayment, TypeMembership, TypePromotion, TypeEvent}

// ValidTargets contains all valid audience selectors.
var ValidTargets = []string{TargetAll, TargetActive, TargetExpired, TargetSpecific}

// ValidRecurrences contains all valid recurrence types.
var ValidRecurrences = []string{RecurDaily, RecurWeekly, RecurMonthly}

// Domain errors
var (
	ErrEmptyTitle        = errors.New("notification title cannot be empty")
	ErrTitleTooLong      = errors.New("notification title cannot exceed 200 characters")
	ErrEmptyMessage      = errors.New("notification message cannot be empty")
	ErrInvalidType       = errors.New("type must be one of: general, payment, membership, promotion, event")
	ErrInvalidTarget     = errors.New("target must be one of: all, active, expired, specific")
	ErrMissingMember     = errors.New("a specific notification needs a member")
	ErrMissingDate       = errors.New("scheduled date is required")
	ErrInvalidSendTime   = errors.New("send time must be HH:MM")
	ErrInvalidRecurrence = errors.New("recurrence must be one of: daily, weekly, monthly")
	ErrInvalidStatus     = errors.New("status must be one of: Scheduled, Sent, Cancelled")
	ErrNotScheduled      = errors.New("only scheduled notifications can be changed")
)

// Notification is a message addressed to an audience of members.
// Message is Markdown.
type Notification struct {
	ID             string
	Title          string
	Message        string
	Type           string
	TargetType     string
	MemberID       string // TargetSpecific only
	MemberName     string
	ScheduledDate  time.Time
	SendTime       string // HH:MM in the gym timezone, empty means start of day
	IsRecurring    bool
	RecurrenceType string
	// RecurrenceAnchor is the first scheduled date of a recurring series.
	// Monthly occurrences count from it so a clamped month does not pull
	// the rest of the series earlier.
	RecurrenceAnchor time.Time
	Status           string
	SentAt           time.Time
	RecipientCount   int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks if the Notification has valid data.
// PRE: Notification struct is populated
// POST: Returns nil if valid, error otherwise
func (n *Notification) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return ErrEmptyTitle
	}
	if len(n.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if strings.TrimSpace(n.Message) == "" {
		return ErrEmptyMessage
	}
	if !contains(ValidTypes, n.Type) {
		return ErrInvalidType
	}
	if !contains(ValidTargets, n.TargetType) {
		return ErrInvalidTarget
	}
	if n.TargetType == TargetSpecific && strings.TrimSpace(n.MemberID) == "" {
		return ErrMissingMember
	}
	if n.ScheduledDate.IsZero() {
		return ErrMissingDate
	}
	if n.SendTime != "" {
		if _, err := time.Parse(TimeLayout, n.SendTime); err != nil {
			return ErrInvalidSendTime
		}
	}
	if n.IsRecurring && !contains(ValidRecurrences, n.RecurrenceType) {
		return ErrInvalidRecurrence
	}
	if !contains([]string{StatusScheduled, StatusSent, StatusCancelled}, n.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// DueAt returns the instant the notification should go out.
// PRE: ScheduledDate is a civil date, SendTime is "" or valid HH:MM
// POST: Returns the wall-clock instant in loc
func (n *Notification) DueAt(loc *time.Location) time.Time {
	hour, minute := 0, 0
	if t, err := time.Parse(TimeLayout, n.SendTime); err == nil {
		hour, minute = t.Hour(), t.Minute()
	}
	y, m, d := n.ScheduledDate.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc)
}

// IsDue reports whether a scheduled notification should be dispatched at now.
func (n *Notification) IsDue(now time.Time, loc *time.Location) bool {
	return n.Status == StatusScheduled && !now.Before(n.DueAt(loc))
}

// MarkSent flips the notification to Sent.
// POST: Status is Sent, SentAt is now; returns false if it was already Sent
func (n *Notification) MarkSent(now time.Time, recipients int) bool {
	if n.Status == StatusSent {
		return false
	}
	n.Status = StatusSent
	n.SentAt = now
	n.RecipientCount = recipients
	return true
}

// Cancel stops a scheduled notification.
// PRE: Status is Scheduled
func (n *Notification) Cancel() error {
	if n.Status != StatusScheduled {
		return ErrNotScheduled
	}
	n.Status = StatusCancelled
	return nil
}

// NextOccurrence returns the follow-up of a recurring notification, scheduled
// one period after this one. Monthly recurrence keeps the anchor's day of
// month, clamped to the last day of shorter months.
// PRE: n.IsRecurring
// POST: Returned notification is Scheduled with a fresh send record and the
// same RecurrenceAnchor
func (n *Notification) NextOccurrence() (Notification, error) {
	if !n.IsRecurring {
		return Notification{}, fmt.Errorf("notification %s is not recurring", n.ID)
	}
	anchor := n.RecurrenceAnchor
	if anchor.IsZero() || anchor.After(n.ScheduledDate) {
		anchor = n.ScheduledDate
	}
	next := *n
	next.ID = ""
	next.Status = StatusScheduled
	next.SentAt = time.Time{}
	next.RecipientCount = 0
	next.RecurrenceAnchor = anchor
	switch n.RecurrenceType {
	case RecurDaily:
		next.ScheduledDate = n.ScheduledDate.AddDate(0, 0, 1)
	case RecurWeekly:
		next.ScheduledDate = n.ScheduledDate.AddDate(0, 0, 7)
	case RecurMonthly:
		next.ScheduledDate = membership.AddMonths(anchor, monthsBetween(anchor, n.ScheduledDate)+1)
	default:
		return Notification{}, ErrInvalidRecurrence
	}
	return next, nil
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
