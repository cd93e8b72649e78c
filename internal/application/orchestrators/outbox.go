package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	emailAdapter "gymdesk/internal/adapters/email"
	domain "gymdesk/internal/domain/outbox"
)

// OutboxQueue is the outbox persistence needed by the processor.
type OutboxQueue interface {
	GetByID(ctx context.Context, id string) (domain.Entry, error)
	Save(ctx context.Context, e domain.Entry) error
	ListRetryable(ctx context.Context, limit int) ([]domain.Entry, error)
}

// OutboxProcessor retries queued emails that failed on first delivery.
type OutboxProcessor struct {
	store     OutboxQueue
	executors map[string]ActionExecutor
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
	now       func() time.Time
}

// ActionExecutor executes a specific type of external action.
type ActionExecutor interface {
	// Execute runs the external action with the given payload.
	// Returns the provider's message id and any error.
	Execute(ctx context.Context, payload string) (string, error)
}

// NewOutboxProcessor creates a new outbox processor.
func NewOutboxProcessor(store OutboxQueue, executors map[string]ActionExecutor, now func() time.Time) *OutboxProcessor {
	if now == nil {
		now = time.Now
	}
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 20,
		now:       now,
	}
}

// ProcessPending attempts every retryable entry whose backoff has elapsed.
// PRE: Context is valid
// POST: Attempted entries are saved as done, retrying or failed
func (p *OutboxProcessor) ProcessPending(ctx context.Context) error {
	entries, err := p.store.ListRetryable(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("list retryable outbox entries: %w", err)
	}

	for _, entry := range entries {
		if p.now().Before(entry.ReadyAt(p.baseDelay, p.maxDelay)) {
			continue
		}
		if err := p.processEntry(ctx, entry); err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err.Error())
		}
	}
	return nil
}

func (p *OutboxProcessor) processEntry(ctx context.Context, entry domain.Entry) error {
	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.MarkAbandoned()
		entry.ErrorMessage = fmt.Sprintf("no executor registered for action type: %s", entry.ActionType)
		return p.store.Save(ctx, entry)
	}

	entry.MarkAttempt(p.now())
	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "error", err.Error())
	} else {
		entry.MarkSuccess(externalID)
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	}
	return p.store.Save(ctx, entry)
}

// ProcessSingle retries one entry immediately, ignoring backoff (admin retry).
// PRE: entryID is non-empty
// POST: Entry is processed, status updated
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.IsTerminal() {
		return fmt.Errorf("entry %s is in terminal state and cannot be retried", entryID)
	}
	return p.processEntry(ctx, entry)
}

// AbandonEntry stops all further attempts for an entry.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	entry.MarkAbandoned()
	return p.store.Save(ctx, entry)
}

// EmailExecutor replays a queued EmailPayload through the email Sender.
type EmailExecutor struct {
	Sender emailAdapter.Sender
	From   string
}

// Execute sends an email from the payload.
// PRE: payload is valid JSON matching EmailPayload
// POST: email accepted by the provider, returns its message id
func (e *EmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p EmailPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal payload: %w", err)
	}
	res, err := e.Sender.Send(ctx, emailAdapter.SendRequest{To: p.To, From: e.From, Subject: p.Subject, HTML: p.HTML})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// Job is one unit of periodic background work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// RunJobs runs each job once in order. A failing job is logged and does not
// stop the ones after it.
func RunJobs(ctx context.Context, jobs []Job) {
	for _, job := range jobs {
		start := time.Now()
		if err := job.Run(ctx); err != nil {
			slog.Error("background_job_failed", "job", job.Name, "error", err.Error())
			continue
		}
		slog.Debug("background_job_done", "job", job.Name, "duration_ms", time.Since(start).Milliseconds())
	}
}

// StartBackgroundWorker runs jobs once at start and then on every tick.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed
func StartBackgroundWorker(interval time.Duration, stopCh <-chan struct{}, jobs ...Job) {
	go func() {
		tick := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			RunJobs(ctx, jobs)
		}
		tick()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				tick()
			case <-stopCh:
				slog.Info("background_worker_stopped")
				return
			}
		}
	}()
}
