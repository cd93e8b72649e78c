package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	emailAdapter "gymdesk/internal/adapters/email"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/notification"
	"gymdesk/internal/domain/outbox"
)

var ErrNotificationNotFound = errors.New("notification not found")

// TargetResolver lists the members a notification reaches as of today.
type TargetResolver func(ctx context.Context, n notification.Notification, today time.Time) ([]member.Member, error)

// NotificationDeps holds dependencies for the notification orchestrators.
type NotificationDeps struct {
	Atomic         AtomicFunc
	Notifications  NotificationStore
	Members        MemberStore
	Outbox         OutboxStore
	Sender         emailAdapter.Sender
	ResolveTargets TargetResolver
	From           string
	GymName        string
	GenerateID     func() string
	Clock          Clock
}

// CreateNotificationInput carries a new notification.
type CreateNotificationInput struct {
	Title          string
	Message        string
	Type           string
	TargetType     string
	MemberID       string
	ScheduledDate  time.Time
	SendTime       string
	IsRecurring    bool
	RecurrenceType string
}

// ExecuteCreateNotification schedules a notification.
// PRE: Title and Message non-empty; MemberID set for specific targets
// POST: Notification saved as Scheduled
func ExecuteCreateNotification(ctx context.Context, input CreateNotificationInput, deps NotificationDeps) (notification.Notification, error) {
	now := deps.Clock.now()
	n := notification.Notification{
		ID:             deps.GenerateID(),
		Title:          strings.TrimSpace(input.Title),
		Message:        input.Message,
		Type:           input.Type,
		TargetType:     input.TargetType,
		ScheduledDate:  input.ScheduledDate,
		SendTime:       input.SendTime,
		IsRecurring:    input.IsRecurring,
		RecurrenceType: input.RecurrenceType,
		Status:         notification.StatusScheduled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if n.Type == "" {
		n.Type = notification.TypeGeneral
	}
	if !n.IsRecurring {
		n.RecurrenceType = ""
	}
	if err := setNotificationTarget(ctx, &n, input.MemberID, deps.Members); err != nil {
		return notification.Notification{}, err
	}
	if err := n.Validate(); err != nil {
		return notification.Notification{}, err
	}
	if err := deps.Notifications.Save(ctx, n); err != nil {
		return notification.Notification{}, err
	}

	slog.Info("notification_event", "event", "notification_created", "notification_id", n.ID, "target", n.TargetType, "scheduled", n.ScheduledDate.Format("2006-01-02"))
	return n, nil
}

// setNotificationTarget resolves the member name for specific notifications.
func setNotificationTarget(ctx context.Context, n *notification.Notification, memberID string, members MemberStore) error {
	if n.TargetType != notification.TargetSpecific {
		n.MemberID = ""
		n.MemberName = ""
		return nil
	}
	if memberID == "" {
		return notification.ErrMissingMember
	}
	m, err := members.GetByID(ctx, memberID)
	if err != nil {
		return notFound(err, ErrMemberNotFound)
	}
	n.MemberID = m.ID
	n.MemberName = m.FullName()
	return nil
}

// EditNotificationInput carries a partial update. Nil fields are left unchanged.
type EditNotificationInput struct {
	ID             string
	Title          *string
	Message        *string
	Type           *string
	TargetType     *string
	MemberID       *string
	ScheduledDate  *time.Time
	SendTime       *string
	IsRecurring    *bool
	RecurrenceType *string
}

// ExecuteEditNotification changes a notification that has not gone out.
// PRE: notification exists and is Scheduled
// POST: Changed fields persisted
func ExecuteEditNotification(ctx context.Context, input EditNotificationInput, deps NotificationDeps) (notification.Notification, error) {
	n, err := deps.Notifications.GetByID(ctx, input.ID)
	if err != nil {
		return notification.Notification{}, notFound(err, ErrNotificationNotFound)
	}
	if n.Status != notification.StatusScheduled {
		return notification.Notification{}, notification.ErrNotScheduled
	}

	if input.Title != nil {
		n.Title = strings.TrimSpace(*input.Title)
	}
	if input.Message != nil {
		n.Message = *input.Message
	}
	if input.Type != nil {
		n.Type = *input.Type
	}
	if input.ScheduledDate != nil {
		n.ScheduledDate = *input.ScheduledDate
		n.RecurrenceAnchor = time.Time{}
	}
	if input.SendTime != nil {
		n.SendTime = *input.SendTime
	}
	if input.IsRecurring != nil {
		n.IsRecurring = *input.IsRecurring
	}
	if input.RecurrenceType != nil {
		n.RecurrenceType = *input.RecurrenceType
	}
	if !n.IsRecurring {
		n.RecurrenceType = ""
	}
	if input.TargetType != nil || input.MemberID != nil {
		if input.TargetType != nil {
			n.TargetType = *input.TargetType
		}
		memberID := n.MemberID
		if input.MemberID != nil {
			memberID = *input.MemberID
		}
		if err := setNotificationTarget(ctx, &n, memberID, deps.Members); err != nil {
			return notification.Notification{}, err
		}
	}
	n.UpdatedAt = deps.Clock.now()

	if err := n.Validate(); err != nil {
		return notification.Notification{}, err
	}
	if err := deps.Notifications.Save(ctx, n); err != nil {
		return notification.Notification{}, err
	}
	slog.Info("notification_event", "event", "notification_edited", "notification_id", n.ID)
	return n, nil
}

// ExecuteDeleteNotification removes a notification in any status.
func ExecuteDeleteNotification(ctx context.Context, id string, deps NotificationDeps) error {
	if _, err := deps.Notifications.GetByID(ctx, id); err != nil {
		return notFound(err, ErrNotificationNotFound)
	}
	if err := deps.Notifications.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("notification_event", "event", "notification_deleted", "notification_id", id)
	return nil
}

// ExecuteCancelNotification stops a scheduled notification.
// PRE: notification is Scheduled
// POST: Status Cancelled
func ExecuteCancelNotification(ctx context.Context, id string, deps NotificationDeps) (notification.Notification, error) {
	n, err := deps.Notifications.GetByID(ctx, id)
	if err != nil {
		return notification.Notification{}, notFound(err, ErrNotificationNotFound)
	}
	if err := n.Cancel(); err != nil {
		return notification.Notification{}, err
	}
	n.UpdatedAt = deps.Clock.now()
	if err := deps.Notifications.Save(ctx, n); err != nil {
		return notification.Notification{}, err
	}
	slog.Info("notification_event", "event", "notification_cancelled", "notification_id", n.ID)
	return n, nil
}

// ExecuteMarkNotificationSent flips a notification to Sent without emailing
// anyone, for messages delivered by hand at the front desk.
// PRE: notification exists and is not Cancelled
// POST: Status Sent, SentAt now; a second call returns it unchanged
func ExecuteMarkNotificationSent(ctx context.Context, id string, deps NotificationDeps) (notification.Notification, error) {
	n, err := deps.Notifications.GetByID(ctx, id)
	if err != nil {
		return notification.Notification{}, notFound(err, ErrNotificationNotFound)
	}
	if n.Status == notification.StatusCancelled {
		return notification.Notification{}, notification.ErrNotScheduled
	}
	if n.Status == notification.StatusSent {
		return n, nil
	}
	recipients := 0
	if deps.ResolveTargets != nil {
		targets, err := deps.ResolveTargets(ctx, n, deps.Clock.Today())
		if err != nil {
			return notification.Notification{}, err
		}
		recipients = len(targets)
	}
	if err := completeNotification(ctx, &n, recipients, deps); err != nil {
		return notification.Notification{}, err
	}
	slog.Info("notification_event", "event", "notification_marked_sent", "notification_id", n.ID, "recipients", recipients)
	return n, nil
}

// completeNotification saves n as Sent and schedules its next occurrence in
// one transaction. n is left unchanged when the transaction fails.
func completeNotification(ctx context.Context, n *notification.Notification, recipients int, deps NotificationDeps) error {
	now := deps.Clock.now()
	sent := *n
	sent.MarkSent(now, recipients)
	sent.UpdatedAt = now

	var next notification.Notification
	if sent.IsRecurring {
		var err error
		if next, err = sent.NextOccurrence(); err != nil {
			return err
		}
		next.ID = deps.GenerateID()
		next.CreatedAt = now
		next.UpdatedAt = now
	}

	err := deps.Atomic(ctx, func(ctx context.Context, s TxStores) error {
		if err := s.Notifications.Save(ctx, sent); err != nil {
			return err
		}
		if next.ID == "" {
			return nil
		}
		return s.Notifications.Save(ctx, next)
	})
	if err != nil {
		return err
	}
	*n = sent
	if next.ID != "" {
		slog.Info("notification_event", "event", "next_occurrence_scheduled", "notification_id", next.ID, "from", n.ID, "scheduled", next.ScheduledDate.Format("2006-01-02"))
	}
	return nil
}

// DispatchResult reports one dispatch.
type DispatchResult struct {
	Notification notification.Notification
	Sent         int
	Queued       int
	Skipped      int // targets without an email address
}

// EmailPayload is the JSON stored in the outbox for an email that must be retried.
type EmailPayload struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// ExecuteDispatchNotification emails a notification to its audience.
// PRE: notification exists and is Scheduled
// POST: Status Sent before any email goes out; each failed send is queued in
// the outbox; recurring notifications get their next occurrence scheduled
// INVARIANT: A Sent notification is never emailed again
func ExecuteDispatchNotification(ctx context.Context, id string, deps NotificationDeps) (DispatchResult, error) {
	n, err := deps.Notifications.GetByID(ctx, id)
	if err != nil {
		return DispatchResult{}, notFound(err, ErrNotificationNotFound)
	}
	return dispatch(ctx, n, deps)
}

func dispatch(ctx context.Context, n notification.Notification, deps NotificationDeps) (DispatchResult, error) {
	switch n.Status {
	case notification.StatusSent:
		return DispatchResult{Notification: n}, nil
	case notification.StatusCancelled:
		return DispatchResult{}, notification.ErrNotScheduled
	}

	targets, err := deps.ResolveTargets(ctx, n, deps.Clock.Today())
	if err != nil {
		return DispatchResult{}, fmt.Errorf("resolve targets: %w", err)
	}
	html, err := emailAdapter.RenderMessage(n.Title, n.Message, deps.GymName)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("render notification: %w", err)
	}
	if err := completeNotification(ctx, &n, len(targets), deps); err != nil {
		return DispatchResult{}, err
	}

	result := DispatchResult{Notification: n}
	var reqs []emailAdapter.SendRequest
	var recipients []string
	for _, m := range targets {
		if !strings.Contains(m.Email, "@") {
			result.Skipped++
			continue
		}
		reqs = append(reqs, emailAdapter.SendRequest{To: []string{m.Email}, From: deps.From, Subject: n.Title, HTML: html})
		recipients = append(recipients, m.ID)
	}
	if len(reqs) == 0 {
		slog.Info("notification_event", "event", "notification_dispatched", "notification_id", n.ID, "sent", 0, "queued", 0, "skipped", result.Skipped)
		return result, nil
	}

	// The batch reports the prefix it delivered; the rest go one by one so a
	// single bad mailbox only queues its own message.
	sent, err := deps.Sender.SendBatch(ctx, reqs)
	if err == nil {
		result.Sent = len(reqs)
	} else {
		slog.Warn("notification_event", "event", "batch_failed", "notification_id", n.ID, "delivered", len(sent), "error", err)
		result.Sent = len(sent)
	}
	for i := len(sent); err != nil && i < len(reqs); i++ {
		_, sendErr := deps.Sender.Send(ctx, reqs[i])
		if sendErr == nil {
			result.Sent++
			continue
		}
		slog.Warn("notification_event", "event", "send_failed", "notification_id", n.ID, "member_id", recipients[i], "error", sendErr)
		if qErr := enqueueEmail(ctx, deps.Outbox, outbox.ActionNotificationEmail, reqs[i], deps.GenerateID, deps.Clock.now()); qErr != nil {
			slog.Error("notification_event", "event", "queue_failed", "notification_id", n.ID, "member_id", recipients[i], "error", qErr)
			continue
		}
		result.Queued++
	}

	slog.Info("notification_event", "event", "notification_dispatched", "notification_id", n.ID, "sent", result.Sent, "queued", result.Queued, "skipped", result.Skipped)
	return result, nil
}

// enqueueEmail stores an email for the outbox processor to retry.
func enqueueEmail(ctx context.Context, store OutboxStore, action string, req emailAdapter.SendRequest, generateID func() string, now time.Time) error {
	payload, err := json.Marshal(EmailPayload{To: req.To, Subject: req.Subject, HTML: req.HTML})
	if err != nil {
		return err
	}
	entry := outbox.Entry{
		ID:         generateID(),
		ActionType: action,
		Payload:    string(payload),
		CreatedAt:  now,
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	return store.Save(ctx, entry)
}

// ExecuteDispatchDue dispatches every Scheduled notification whose date and
// send time have passed in the gym timezone.
// POST: Returns the number of notifications dispatched
func ExecuteDispatchDue(ctx context.Context, deps NotificationDeps) (int, error) {
	now := deps.Clock.now()
	due, err := deps.Notifications.ListScheduledUntil(ctx, deps.Clock.Today())
	if err != nil {
		return 0, fmt.Errorf("list due notifications: %w", err)
	}
	dispatched := 0
	for _, n := range due {
		if !n.IsDue(now, deps.Clock.loc()) {
			continue
		}
		if _, err := dispatch(ctx, n, deps); err != nil {
			slog.Error("notification_event", "event", "dispatch_failed", "notification_id", n.ID, "error", err)
			continue
		}
		dispatched++
	}
	return dispatched, nil
}
