package orchestrators

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/notification"
	"gymdesk/internal/domain/outbox"
)

// resolveFromDB selects targets from the fake members table by effective status.
func resolveFromDB(db *fakeDB) TargetResolver {
	return func(_ context.Context, n notification.Notification, today time.Time) ([]member.Member, error) {
		var out []member.Member
		for _, m := range db.members {
			status := m.EffectiveStatus(today)
			switch n.TargetType {
			case notification.TargetActive:
				if status != member.StatusActive {
					continue
				}
			case notification.TargetExpired:
				if status != member.StatusExpired {
					continue
				}
			case notification.TargetSpecific:
				if m.ID != n.MemberID {
					continue
				}
			}
			out = append(out, m)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out, nil
	}
}

func notificationDeps(db *fakeDB, sender *fakeSender) NotificationDeps {
	return NotificationDeps{
		Atomic:         db.atomic,
		Notifications:  fakeNotifications{db},
		Members:        fakeMembers{db},
		Outbox:         fakeOutbox{db},
		Sender:         sender,
		ResolveTargets: resolveFromDB(db),
		From:           "desk@gym.in",
		GymName:        "Iron Temple",
		GenerateID:     sequenceIDs("ntf"),
		Clock:          testClock,
	}
}

func createNotification(t *testing.T, deps NotificationDeps, input CreateNotificationInput) notification.Notification {
	t.Helper()
	if input.Title == "" {
		input.Title = "Holi timings"
	}
	if input.Message == "" {
		input.Message = "The gym closes at **2 pm** on Holi."
	}
	if input.TargetType == "" {
		input.TargetType = notification.TargetAll
	}
	if input.ScheduledDate.IsZero() {
		input.ScheduledDate = today
	}
	n, err := ExecuteCreateNotification(context.Background(), input, deps)
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	return n
}

// TestExecuteCreateNotification tests defaults and specific targeting.
func TestExecuteCreateNotification(t *testing.T) {
	db := newFakeDB()
	seedMember(db, "m1", "Ravi", day(2026, 6, 1))
	deps := notificationDeps(db, &fakeSender{})

	n := createNotification(t, deps, CreateNotificationInput{SendTime: "09:30", RecurrenceType: notification.RecurWeekly})
	if n.Status != notification.StatusScheduled || n.Type != notification.TypeGeneral {
		t.Errorf("unexpected notification: %+v", n)
	}
	if n.RecurrenceType != "" {
		t.Error("recurrence type must be cleared for one-off notifications")
	}

	s := createNotification(t, deps, CreateNotificationInput{TargetType: notification.TargetSpecific, MemberID: "m1"})
	if s.MemberName != "Ravi Kumar" {
		t.Errorf("MemberName = %q", s.MemberName)
	}

	_, err := ExecuteCreateNotification(context.Background(), CreateNotificationInput{
		Title: "x", Message: "y", TargetType: notification.TargetSpecific, ScheduledDate: today,
	}, deps)
	if !errors.Is(err, notification.ErrMissingMember) {
		t.Errorf("expected ErrMissingMember, got %v", err)
	}
	_, err = ExecuteCreateNotification(context.Background(), CreateNotificationInput{
		Title: "x", Message: "y", TargetType: notification.TargetAll, ScheduledDate: today, SendTime: "25:00",
	}, deps)
	if !errors.Is(err, notification.ErrInvalidSendTime) {
		t.Errorf("expected ErrInvalidSendTime, got %v", err)
	}
}

// TestExecuteEditNotification tests edits are allowed only while Scheduled.
func TestExecuteEditNotification(t *testing.T) {
	db := newFakeDB()
	deps := notificationDeps(db, &fakeSender{})
	n := createNotification(t, deps, CreateNotificationInput{})

	title := "Holi hours"
	target := notification.TargetActive
	got, err := ExecuteEditNotification(context.Background(), EditNotificationInput{ID: n.ID, Title: &title, TargetType: &target}, deps)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Holi hours" || got.TargetType != notification.TargetActive || got.Message != n.Message {
		t.Errorf("unexpected edit result: %+v", got)
	}

	if _, err := ExecuteCancelNotification(context.Background(), n.ID, deps); err != nil {
		t.Fatal(err)
	}
	if _, err := ExecuteEditNotification(context.Background(), EditNotificationInput{ID: n.ID, Title: &title}, deps); !errors.Is(err, notification.ErrNotScheduled) {
		t.Errorf("expected ErrNotScheduled, got %v", err)
	}
	if _, err := ExecuteCancelNotification(context.Background(), n.ID, deps); !errors.Is(err, notification.ErrNotScheduled) {
		t.Errorf("expected ErrNotScheduled on second cancel, got %v", err)
	}
}

// TestExecuteDeleteNotification tests deletion in any status.
func TestExecuteDeleteNotification(t *testing.T) {
	db := newFakeDB()
	deps := notificationDeps(db, &fakeSender{})
	n := createNotification(t, deps, CreateNotificationInput{})
	if err := ExecuteDeleteNotification(context.Background(), n.ID, deps); err != nil {
		t.Fatal(err)
	}
	if err := ExecuteDeleteNotification(context.Background(), n.ID, deps); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("expected ErrNotificationNotFound, got %v", err)
	}
}

// TestExecuteMarkNotificationSent tests the manual flip is idempotent.
func TestExecuteMarkNotificationSent(t *testing.T) {
	db := newFakeDB()
	seedMember(db, "m1", "Ravi", day(2026, 6, 1))
	seedMember(db, "m2", "Meera", day(2026, 2, 1))
	sender := &fakeSender{}
	deps := notificationDeps(db, sender)
	n := createNotification(t, deps, CreateNotificationInput{TargetType: notification.TargetExpired})

	got, err := ExecuteMarkNotificationSent(context.Background(), n.ID, deps)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != notification.StatusSent || !got.SentAt.Equal(fixedTime) || got.RecipientCount != 1 {
		t.Errorf("unexpected notification: %+v", got)
	}
	again, err := ExecuteMarkNotificationSent(context.Background(), n.ID, deps)
	if err != nil {
		t.Fatal(err)
	}
	if !again.SentAt.Equal(got.SentAt) {
		t.Error("second mark must not move SentAt")
	}
	if len(sender.sent) != 0 {
		t.Error("marking sent must not email anyone")
	}
}

// TestExecuteDispatchNotification tests delivery, skipped targets and queued failures.
func TestExecuteDispatchNotification(t *testing.T) {
	db := newFakeDB()
	seedMember(db, "m1", "Ravi", day(2026, 6, 1))
	seedMember(db, "m2", "Meera", day(2026, 6, 1))
	noEmail := seedMember(db, "m3", "Kiran", day(2026, 6, 1))
	noEmail.Email = ""
	db.members["m3"] = noEmail
	seedMember(db, "m4", "Old", day(2026, 1, 1))

	sender := &fakeSender{failFor: map[string]bool{"meera@gym.in": true}}
	deps := notificationDeps(db, sender)
	n := createNotification(t, deps, CreateNotificationInput{TargetType: notification.TargetActive})

	res, err := ExecuteDispatchNotification(context.Background(), n.ID, deps)
	if err != nil {
		t.Fatal(err)
	}
	if res.Sent != 1 || res.Queued != 1 || res.Skipped != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Notification.Status != notification.StatusSent || res.Notification.RecipientCount != 3 {
		t.Errorf("unexpected notification: %+v", res.Notification)
	}
	if len(sender.sent) != 1 || sender.sent[0].To[0] != "ravi@gym.in" || sender.sent[0].From != "desk@gym.in" {
		t.Fatalf("unexpected sends: %+v", sender.sent)
	}
	if !strings.Contains(sender.sent[0].HTML, "<strong>2 pm</strong>") || !strings.Contains(sender.sent[0].HTML, "Iron Temple") {
		t.Error("email body must be rendered markdown with the gym footer")
	}
	if len(db.outbox) != 1 {
		t.Fatalf("expected 1 queued email, got %d", len(db.outbox))
	}
	for _, e := range db.outbox {
		if e.ActionType != outbox.ActionNotificationEmail || !strings.Contains(e.Payload, "meera@gym.in") {
			t.Errorf("unexpected outbox entry: %+v", e)
		}
	}

	again, err := ExecuteDispatchNotification(context.Background(), n.ID, deps)
	if err != nil {
		t.Fatal(err)
	}
	if again.Sent != 0 || len(sender.sent) != 1 {
		t.Error("a sent notification must never be emailed again")
	}
}

// TestExecuteDispatchNotification_Recurring tests the next occurrence is scheduled.
func TestExecuteDispatchNotification_Recurring(t *testing.T) {
	db := newFakeDB()
	deps := notificationDeps(db, &fakeSender{})
	n := createNotification(t, deps, CreateNotificationInput{ScheduledDate: day(2026, 1, 31), IsRecurring: true, RecurrenceType: notification.RecurMonthly})

	if _, err := ExecuteDispatchNotification(context.Background(), n.ID, deps); err != nil {
		t.Fatal(err)
	}
	var next *notification.Notification
	for _, x := range db.notifications {
		if x.ID != n.ID {
			x := x
			next = &x
		}
	}
	if next == nil {
		t.Fatal("expected a follow-up notification")
	}
	if next.Status != notification.StatusScheduled || !next.ScheduledDate.Equal(day(2026, 2, 28)) {
		t.Errorf("unexpected follow-up: %+v", next)
	}
}

// TestExecuteDispatchDue tests only notifications past their send time go out.
func TestExecuteDispatchDue(t *testing.T) {
	db := newFakeDB()
	seedMember(db, "m1", "Ravi", day(2026, 6, 1))
	deps := notificationDeps(db, &fakeSender{})

	morning := createNotification(t, deps, CreateNotificationInput{SendTime: "11:00"})
	evening := createNotification(t, deps, CreateNotificationInput{SendTime: "18:00"})
	yesterday := createNotification(t, deps, CreateNotificationInput{ScheduledDate: day(2026, 2, 28), SendTime: "23:00"})
	tomorrow := createNotification(t, deps, CreateNotificationInput{ScheduledDate: day(2026, 3, 2)})

	count, err := ExecuteDispatchDue(context.Background(), deps)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("dispatched %d, want 2", count)
	}
	for id, want := range map[string]string{
		morning.ID:   notification.StatusSent,
		yesterday.ID: notification.StatusSent,
		evening.ID:   notification.StatusScheduled,
		tomorrow.ID:  notification.StatusScheduled,
	} {
		if got := db.notifications[id].Status; got != want {
			t.Errorf("%s: status %s, want %s", id, got, want)
		}
	}
}

// TestExecuteMarkNotificationSent_MonthlySeries tests a monthly series keeps
// its day of month after a short month.
func TestExecuteMarkNotificationSent_MonthlySeries(t *testing.T) {
	db := newFakeDB()
	deps := notificationDeps(db, &fakeSender{})
	n := createNotification(t, deps, CreateNotificationInput{ScheduledDate: day(2026, 1, 31), IsRecurring: true, RecurrenceType: notification.RecurMonthly})

	want := []time.Time{day(2026, 2, 28), day(2026, 3, 31), day(2026, 4, 30)}
	id := n.ID
	for _, w := range want {
		if _, err := ExecuteMarkNotificationSent(context.Background(), id, deps); err != nil {
			t.Fatal(err)
		}
		id = ""
		for _, x := range db.notifications {
			if x.Status == notification.StatusScheduled {
				id = x.ID
				if !x.ScheduledDate.Equal(w) {
					t.Errorf("next occurrence on %s, want %s", x.ScheduledDate.Format("2006-01-02"), w.Format("2006-01-02"))
				}
			}
		}
		if id == "" {
			t.Fatalf("no occurrence scheduled for %s", w.Format("2006-01-02"))
		}
	}
}

// failNewNotifications refuses to save any notification other than keep.
type failNewNotifications struct {
	NotificationStore
	keep string
}

func (f failNewNotifications) Save(ctx context.Context, n notification.Notification) error {
	if n.ID != f.keep {
		return errors.New("disk I/O error")
	}
	return f.NotificationStore.Save(ctx, n)
}

// TestExecuteMarkNotificationSent_RollsBackWithoutNextOccurrence tests the
// sent flag and the follow-up commit together.
func TestExecuteMarkNotificationSent_RollsBackWithoutNextOccurrence(t *testing.T) {
	db := newFakeDB()
	deps := notificationDeps(db, &fakeSender{})
	n := createNotification(t, deps, CreateNotificationInput{IsRecurring: true, RecurrenceType: notification.RecurWeekly})
	deps.Atomic = func(ctx context.Context, fn func(ctx context.Context, s TxStores) error) error {
		return db.atomic(ctx, func(ctx context.Context, s TxStores) error {
			s.Notifications = failNewNotifications{s.Notifications, n.ID}
			return fn(ctx, s)
		})
	}

	if _, err := ExecuteMarkNotificationSent(context.Background(), n.ID, deps); err == nil {
		t.Fatal("expected the follow-up save to fail")
	}
	if len(db.notifications) != 1 {
		t.Errorf("expected only the original notification, got %d", len(db.notifications))
	}
	if got := db.notifications[n.ID]; got.Status != notification.StatusScheduled {
		t.Errorf("status = %s, want Scheduled after rollback", got.Status)
	}
}
