package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gymdesk/internal/domain/outbox"
)

func queueEmail(t *testing.T, db *fakeDB, id, action, to string) {
	t.Helper()
	payload, _ := json.Marshal(EmailPayload{To: []string{to}, Subject: "Receipt", HTML: "<p>thanks</p>"})
	e := outbox.Entry{ID: id, ActionType: action, Payload: string(payload), CreatedAt: fixedTime}
	if err := e.Validate(); err != nil {
		t.Fatal(err)
	}
	db.outbox[id] = e
}

// TestOutboxProcessor_ProcessPending tests success, failure with backoff and unknown actions.
func TestOutboxProcessor_ProcessPending(t *testing.T) {
	db := newFakeDB()
	queueEmail(t, db, "ok", outbox.ActionReceiptEmail, "ravi@gym.in")
	queueEmail(t, db, "bounce", outbox.ActionNotificationEmail, "meera@gym.in")
	queueEmail(t, db, "odd", "sms", "kiran@gym.in")

	sender := &fakeSender{failFor: map[string]bool{"meera@gym.in": true}}
	exec := &EmailExecutor{Sender: sender, From: "desk@gym.in"}
	now := fixedTime
	p := NewOutboxProcessor(fakeOutbox{db}, map[string]ActionExecutor{
		outbox.ActionReceiptEmail:      exec,
		outbox.ActionNotificationEmail: exec,
	}, func() time.Time { return now })

	if err := p.ProcessPending(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e := db.outbox["ok"]; e.Status != outbox.StatusDone || e.ExternalID != "msg-1" {
		t.Errorf("unexpected ok entry: %+v", e)
	}
	if e := db.outbox["bounce"]; e.Status != outbox.StatusRetrying || e.Attempts != 1 || e.ErrorMessage == "" {
		t.Errorf("unexpected bounce entry: %+v", e)
	}
	if e := db.outbox["odd"]; e.Status != outbox.StatusAbandoned {
		t.Errorf("unknown action should be abandoned, got %+v", e)
	}
	if sender.sent[0].From != "desk@gym.in" {
		t.Errorf("From = %q", sender.sent[0].From)
	}

	// Inside the backoff window nothing is attempted.
	now = fixedTime.Add(10 * time.Second)
	if err := p.ProcessPending(context.Background()); err != nil {
		t.Fatal(err)
	}
	if db.outbox["bounce"].Attempts != 1 {
		t.Error("entry retried before its backoff elapsed")
	}

	delete(sender.failFor, "meera@gym.in")
	now = fixedTime.Add(31 * time.Second)
	if err := p.ProcessPending(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e := db.outbox["bounce"]; e.Status != outbox.StatusDone || e.Attempts != 2 {
		t.Errorf("expected delivery on retry, got %+v", e)
	}
}

// TestOutboxProcessor_SingleAndAbandon tests the admin retry paths.
func TestOutboxProcessor_SingleAndAbandon(t *testing.T) {
	db := newFakeDB()
	queueEmail(t, db, "a", outbox.ActionReceiptEmail, "ravi@gym.in")
	queueEmail(t, db, "b", outbox.ActionReceiptEmail, "meera@gym.in")
	p := NewOutboxProcessor(fakeOutbox{db}, map[string]ActionExecutor{
		outbox.ActionReceiptEmail: &EmailExecutor{Sender: &fakeSender{}},
	}, fixedNow)

	if err := p.AbandonEntry(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}
	if err := p.ProcessSingle(context.Background(), "b"); err == nil {
		t.Error("abandoned entry must not be retried")
	}
	if err := p.ProcessSingle(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	if db.outbox["a"].Status != outbox.StatusDone {
		t.Errorf("expected done, got %s", db.outbox["a"].Status)
	}
}

// TestEmailExecutor_BadPayload tests an unreadable payload is an error.
func TestEmailExecutor_BadPayload(t *testing.T) {
	e := &EmailExecutor{Sender: &fakeSender{}}
	if _, err := e.Execute(context.Background(), "{not json"); err == nil {
		t.Error("expected error")
	}
}

// TestRunJobs tests a failing job does not stop later jobs.
func TestRunJobs(t *testing.T) {
	var ran []string
	RunJobs(context.Background(), []Job{
		{Name: "first", Run: func(context.Context) error { ran = append(ran, "first"); return errors.New("boom") }},
		{Name: "second", Run: func(context.Context) error { ran = append(ran, "second"); return nil }},
	})
	if len(ran) != 2 || ran[1] != "second" {
		t.Errorf("ran = %v", ran)
	}
}
