package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"gymdesk/internal/adapters/email"
	"gymdesk/internal/adapters/filestore"
	web "gymdesk/internal/adapters/http"
	"gymdesk/internal/adapters/http/perf"
	"gymdesk/internal/adapters/storage"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err.Error())
		os.Exit(1)
	}
	setupLogging(cfg)

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		fatal("failed to open database", err)
	}
	defer db.Close()

	if err := storage.MigrateDB(db); err != nil {
		fatal("failed to migrate database", err)
	}
	slog.Info("database_ready", "path", cfg.DBPath, "schema", storage.LatestSchemaVersion())

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize, perf.NewMetrics())
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)

	stores := web.NewSQLiteStores(timedDB)

	files, err := filestore.NewLocalStore(cfg.UploadDir, "/uploads/")
	if err != nil {
		fatal("failed to prepare upload directory", err)
	}

	adminPassword := cfg.AdminPassword
	if adminPassword == "" {
		adminPassword = randomPassword()
		slog.Warn("auth_event", "event", "admin_password_generated", "email", cfg.AdminEmail, "password", adminPassword,
			"reason", "GYM_ADMIN_PASSWORD is not set; only used when no accounts exist")
	}
	seedDeps := orchestrators.CreateAccountDeps{
		AccountStore: stores.AccountStore,
		GenerateID:   func() string { return uuid.New().String() },
		RandInt:      orchestrators.RandomInt,
		Clock:        orchestrators.Clock{Now: time.Now, Location: cfg.Location},
	}
	if err := orchestrators.ExecuteSeedAdmin(context.Background(), stores.AccountStore, seedDeps, cfg.AdminEmail, adminPassword); err != nil {
		fatal("failed to seed admin", err)
	}

	sender := email.NewSender(cfg.ResendKey, cfg.ResendFrom)
	if cfg.ResendKey == "" {
		if cfg.IsProduction() {
			slog.Warn("email_event", "event", "delivery_disabled", "reason", "GYM_RESEND_KEY is not set")
		} else {
			slog.Info("email_event", "event", "noop_sender", "reason", "set GYM_RESEND_KEY for real delivery")
		}
	}

	mux := web.NewMux(stores, collector, web.Options{
		Atomic:            web.NewAtomic(storage.NewTxRunner(timedDB)),
		Files:             files,
		UploadDir:         cfg.UploadDir,
		Sender:            sender,
		From:              cfg.ResendFrom,
		ReplyTo:           cfg.ReplyTo,
		GymName:           cfg.GymName,
		GymAddress:        cfg.GymAddress,
		Location:          cfg.Location,
		StockPolicy:       cfg.StockPolicy,
		LowStockThreshold: cfg.LowStockThreshold,
		CSRFKey:           cfg.CSRFKey,
		Secure:            cfg.IsProduction(),
		SlowRequestMs:     cfg.SlowRequestMs,
	})

	// Status reconciliation, due notifications and outbox retries
	stopCh := make(chan struct{})
	orchestrators.StartBackgroundWorker(cfg.ReconcileInterval, stopCh, web.BackgroundJobs()...)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "stock_policy", cfg.StockPolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	slog.Info("server_stopping")
	close(stopCh)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown_failed", "error", err.Error())
	}
}

// setupLogging installs JSON logs in production and text logs elsewhere.
func setupLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err.Error())
	os.Exit(1)
}

func randomPassword() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
