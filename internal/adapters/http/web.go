package web

import (
	"bytes"
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"gymdesk/internal/adapters/email"
	"gymdesk/internal/adapters/export"
	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/adapters/http/perf"
	"gymdesk/internal/adapters/storage"
	accountStore "gymdesk/internal/adapters/storage/account"
	billStore "gymdesk/internal/adapters/storage/bill"
	dietPlanStore "gymdesk/internal/adapters/storage/dietplan"
	packageStore "gymdesk/internal/adapters/storage/feepackage"
	memberStore "gymdesk/internal/adapters/storage/member"
	notificationStore "gymdesk/internal/adapters/storage/notification"
	outboxStore "gymdesk/internal/adapters/storage/outbox"
	registrationStore "gymdesk/internal/adapters/storage/registration"
	supplementStore "gymdesk/internal/adapters/storage/supplement"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
	"gymdesk/internal/domain/billing"
	domainOutbox "gymdesk/internal/domain/outbox"
	"gymdesk/internal/domain/supplement"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore      accountStore.Store
	MemberStore       memberStore.Store
	BillStore         billStore.Store
	PackageStore      packageStore.Store
	NotificationStore notificationStore.Store
	SupplementStore   supplementStore.Store
	OrderStore        supplementStore.OrderStore
	RegistrationStore registrationStore.Store
	OutboxStore       outboxStore.Store
	DietPlanStore     dietPlanStore.Store
}

// NewSQLiteStores binds every SQLite store to db, which may be the pool or
// an open transaction.
func NewSQLiteStores(db storage.SQLDB) *Stores {
	return &Stores{
		AccountStore:      accountStore.NewSQLiteStore(db),
		MemberStore:       memberStore.NewSQLiteStore(db),
		BillStore:         billStore.NewSQLiteStore(db),
		PackageStore:      packageStore.NewSQLiteStore(db),
		NotificationStore: notificationStore.NewSQLiteStore(db),
		SupplementStore:   supplementStore.NewSQLiteStore(db),
		OrderStore:        supplementStore.NewSQLiteOrderStore(db),
		RegistrationStore: registrationStore.NewSQLiteStore(db),
		OutboxStore:       outboxStore.NewSQLiteStore(db),
		DietPlanStore:     dietPlanStore.NewSQLiteStore(db),
	}
}

// TxStores exposes the stores in the shape orchestrators write through.
func (s *Stores) TxStores() orchestrators.TxStores {
	return orchestrators.TxStores{
		Accounts:      s.AccountStore,
		Members:       s.MemberStore,
		Bills:         s.BillStore,
		Packages:      s.PackageStore,
		Notifications: s.NotificationStore,
		Supplements:   s.SupplementStore,
		Orders:        s.OrderStore,
		Registrations: s.RegistrationStore,
		Outbox:        s.OutboxStore,
	}
}

// NewAtomic returns an AtomicFunc that hands fn a fresh set of stores bound
// to one transaction from runner.
func NewAtomic(runner *storage.TxRunner) orchestrators.AtomicFunc {
	return func(ctx context.Context, fn func(ctx context.Context, s orchestrators.TxStores) error) error {
		return runner.InTx(ctx, func(ctx context.Context, q storage.SQLDB) error {
			return fn(ctx, NewSQLiteStores(q).TxStores())
		})
	}
}

// Options configures the HTTP layer.
type Options struct {
	Atomic            orchestrators.AtomicFunc
	Files             orchestrators.FileStore
	UploadDir         string // served under /uploads/
	Sender            email.Sender
	From              string
	ReplyTo           string
	GymName           string
	GymAddress        string
	Location          *time.Location
	StockPolicy       string
	LowStockThreshold int
	CSRFKey           []byte
	Secure            bool // HTTPS cookies and strict CSRF origin checks
	SlowRequestMs     int
}

// timeNow is a variable for testability.
var timeNow = time.Now

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// settings holds the Options passed to NewMux.
var settings Options

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, collector *perf.Collector, opts Options) http.Handler {
	stores = s
	perfCollector = collector
	settings = withDefaults(opts)
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = settings.Secure

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	limiter.OnLimit = func(string) { countEvent("rate_limited") }

	// Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(settings.CSRFKey, settings.Secure, nil),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(collector, settings.SlowRequestMs),
	)
}

func withDefaults(opts Options) Options {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.StockPolicy == "" {
		opts.StockPolicy = supplement.PolicyClamp
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = 5
	}
	if opts.Sender == nil {
		opts.Sender = email.NewNoopSender()
	}
	if len(opts.CSRFKey) == 0 {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(err)
		}
		slog.Warn("csrf_event", "event", "random_key", "reason", "no GYM_CSRF_KEY; forms break across restarts")
		opts.CSRFKey = key
	}
	if opts.Atomic == nil && stores != nil {
		// without a transaction runner writes go straight to the shared stores
		opts.Atomic = func(ctx context.Context, fn func(ctx context.Context, s orchestrators.TxStores) error) error {
			return fn(ctx, stores.TxStores())
		}
	}
	return opts
}

func clock() orchestrators.Clock {
	return orchestrators.Clock{Now: timeNow, Location: settings.Location}
}

func today() time.Time {
	return clock().Today()
}

func countEvent(event string) {
	if perfCollector != nil {
		perfCollector.Metrics().CountEvent(event)
	}
}

// renderReceipt renders the receipt document emailed when a bill is paid.
func renderReceipt(b billing.Bill) (string, error) {
	var buf bytes.Buffer
	err := export.WriteReceipt(&buf, export.Receipt{
		GymName:    settings.GymName,
		GymAddress: settings.GymAddress,
		Bill:       b,
		PrintedAt:  timeNow().In(settings.Location),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func billingDeps() orchestrators.BillingDeps {
	return orchestrators.BillingDeps{
		Atomic:        settings.Atomic,
		GenerateID:    generateID,
		RandInt:       orchestrators.RandomInt,
		Clock:         clock(),
		RenderReceipt: renderReceipt,
	}
}

func memberDeps() orchestrators.MemberDeps {
	return orchestrators.MemberDeps{MemberStore: stores.MemberStore, GenerateID: generateID, Clock: clock()}
}

func packageDeps() orchestrators.PackageDeps {
	return orchestrators.PackageDeps{Atomic: settings.Atomic, GenerateID: generateID, Clock: clock()}
}

func notificationDeps() orchestrators.NotificationDeps {
	return orchestrators.NotificationDeps{
		Atomic:         settings.Atomic,
		Notifications:  stores.NotificationStore,
		Members:        stores.MemberStore,
		Outbox:         stores.OutboxStore,
		Sender:         settings.Sender,
		ResolveTargets: projections.NewTargetResolver(stores.MemberStore),
		From:           settings.From,
		GymName:        settings.GymName,
		GenerateID:     generateID,
		Clock:          clock(),
	}
}

func supplementDeps() orchestrators.SupplementDeps {
	return orchestrators.SupplementDeps{SupplementStore: stores.SupplementStore, GenerateID: generateID, Clock: clock()}
}

func dietPlanDeps() orchestrators.DietPlanDeps {
	return orchestrators.DietPlanDeps{
		Plans:      stores.DietPlanStore,
		Members:    stores.MemberStore,
		GenerateID: generateID,
		Clock:      clock(),
	}
}

func orderDeps() orchestrators.OrderDeps {
	return orchestrators.OrderDeps{
		Atomic:      settings.Atomic,
		GenerateID:  generateID,
		Clock:       clock(),
		StockPolicy: settings.StockPolicy,
	}
}

func registrationDeps() orchestrators.RegistrationDeps {
	return orchestrators.RegistrationDeps{
		Atomic:     settings.Atomic,
		GenerateID: generateID,
		RandInt:    orchestrators.RandomInt,
		Clock:      clock(),
	}
}

func accountDeps() orchestrators.CreateAccountDeps {
	return orchestrators.CreateAccountDeps{
		AccountStore: stores.AccountStore,
		GenerateID:   generateID,
		RandInt:      orchestrators.RandomInt,
		Clock:        clock(),
	}
}

func outboxProcessor() *orchestrators.OutboxProcessor {
	return NewOutboxProcessor(stores.OutboxStore, settings.Sender, settings.From)
}

// NewOutboxProcessor wires the email executors for every queued action.
func NewOutboxProcessor(store outboxStore.Store, sender email.Sender, from string) *orchestrators.OutboxProcessor {
	exec := &orchestrators.EmailExecutor{Sender: sender, From: from}
	return orchestrators.NewOutboxProcessor(store, map[string]orchestrators.ActionExecutor{
		domainOutbox.ActionNotificationEmail: exec,
		domainOutbox.ActionReceiptEmail:      exec,
	}, timeNow)
}

// BackgroundJobs returns the periodic work the server runs: status
// reconciliation, due notification dispatch and outbox retries.
// PRE: NewMux has been called
func BackgroundJobs() []orchestrators.Job {
	return []orchestrators.Job{
		{Name: "reconcile_statuses", Run: func(ctx context.Context) error {
			res, err := orchestrators.ExecuteReconcileStatuses(ctx, orchestrators.ReconcileDeps{Atomic: settings.Atomic, Clock: clock()})
			if err != nil {
				return err
			}
			if res.Members+res.Bills+res.Packages > 0 {
				slog.Info("reconcile_event", "event", "statuses_refreshed", "members", res.Members, "bills", res.Bills, "packages", res.Packages)
			}
			return nil
		}},
		{Name: "dispatch_due_notifications", Run: func(ctx context.Context) error {
			n, err := orchestrators.ExecuteDispatchDue(ctx, notificationDeps())
			if n > 0 {
				countEvent("notifications_dispatched")
			}
			return err
		}},
		{Name: "outbox_retry", Run: func(ctx context.Context) error {
			return outboxProcessor().ProcessPending(ctx)
		}},
	}
}
