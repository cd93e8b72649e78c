package notification_test

import (
	"testing"
	"time"

	"gymdesk/internal/domain/notification"
)

func valid() notification.Notification {
	return notification.Notification{
		Title:         "Holiday hours",
		Message:       "The gym closes at **2pm** on Diwali.",
		Type:          notification.TypeGeneral,
		TargetType:    notification.TargetAll,
		ScheduledDate: time.Date(2026, 11, 8, 0, 0, 0, 0, time.UTC),
		SendTime:      "09:30",
		Status:        notification.StatusScheduled,
	}
}

// TestNotification_Validate tests validation of Notification.
func TestNotification_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(n *notification.Notification)
		wantErr error
	}{
		{"valid", func(n *notification.Notification) {}, nil},
		{"empty title", func(n *notification.Notification) { n.Title = "  " }, notification.ErrEmptyTitle},
		{"empty message", func(n *notification.Notification) { n.Message = "" }, notification.ErrEmptyMessage},
		{"bad type", func(n *notification.Notification) { n.Type = "sms" }, notification.ErrInvalidType},
		{"bad target", func(n *notification.Notification) { n.TargetType = "coaches" }, notification.ErrInvalidTarget},
		{"specific without member", func(n *notification.Notification) { n.TargetType = notification.TargetSpecific }, notification.ErrMissingMember},
		{"missing date", func(n *notification.Notification) { n.ScheduledDate = time.Time{} }, notification.ErrMissingDate},
		{"bad send time", func(n *notification.Notification) { n.SendTime = "9am" }, notification.ErrInvalidSendTime},
		{"recurring without type", func(n *notification.Notification) { n.IsRecurring = true }, notification.ErrInvalidRecurrence},
		{"bad status", func(n *notification.Notification) { n.Status = "Draft" }, notification.ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := valid()
			tt.mutate(&n)
			if err := n.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestNotification_IsDue tests the send instant in the gym timezone.
func TestNotification_IsDue(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	n := valid()
	before := time.Date(2026, 11, 8, 9, 29, 0, 0, loc)
	at := time.Date(2026, 11, 8, 9, 30, 0, 0, loc)
	if n.IsDue(before, loc) {
		t.Error("due one minute early")
	}
	if !n.IsDue(at, loc) {
		t.Error("not due at send time")
	}
	n.Status = notification.StatusCancelled
	if n.IsDue(at, loc) {
		t.Error("cancelled notification reported due")
	}
}

// TestNotification_MarkSent tests the idempotent flip to Sent.
func TestNotification_MarkSent(t *testing.T) {
	n := valid()
	now := time.Date(2026, 11, 8, 4, 0, 0, 0, time.UTC)
	if !n.MarkSent(now, 12) {
		t.Fatal("first MarkSent returned false")
	}
	if n.MarkSent(now.Add(time.Hour), 3) {
		t.Error("second MarkSent returned true")
	}
	if !n.SentAt.Equal(now) || n.RecipientCount != 12 {
		t.Errorf("send record overwritten: %+v", n)
	}
	if err := n.Cancel(); err != notification.ErrNotScheduled {
		t.Errorf("expected ErrNotScheduled, got %v", err)
	}
}

// TestNotification_NextOccurrence tests recurrence scheduling.
func TestNotification_NextOccurrence(t *testing.T) {
	tests := []struct {
		recurrence string
		from       time.Time
		want       time.Time
	}{
		{notification.RecurDaily, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
		{notification.RecurWeekly, time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)},
		{notification.RecurMonthly, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.recurrence, func(t *testing.T) {
			n := valid()
			n.ID = "n1"
			n.IsRecurring = true
			n.RecurrenceType = tt.recurrence
			n.ScheduledDate = tt.from
			n.MarkSent(time.Now(), 4)

			next, err := n.NextOccurrence()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !next.ScheduledDate.Equal(tt.want) {
				t.Errorf("ScheduledDate = %v, want %v", next.ScheduledDate, tt.want)
			}
			if next.Status != notification.StatusScheduled || next.ID != "" || !next.SentAt.IsZero() {
				t.Errorf("next occurrence not reset: %+v", next)
			}
		})
	}

	anchored := valid()
	anchored.IsRecurring = true
	anchored.RecurrenceType = notification.RecurMonthly
	anchored.RecurrenceAnchor = time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	anchored.ScheduledDate = time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	next, err := anchored.NextOccurrence()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC); !next.ScheduledDate.Equal(want) {
		t.Errorf("monthly series drifted: got %v, want %v", next.ScheduledDate, want)
	}
	if !next.RecurrenceAnchor.Equal(anchored.RecurrenceAnchor) {
		t.Errorf("anchor not carried: %v", next.RecurrenceAnchor)
	}

	once := valid()
	if _, err := once.NextOccurrence(); err == nil {
		t.Error("expected error for non-recurring notification")
	}
}
