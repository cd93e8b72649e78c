package web

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/domain/outbox"
)

// handleAdminOutbox handles GET /api/admin/outbox?status=failed|retryable.
// Failed lists entries whose attempts are spent; retryable lists what the
// worker will still try.
func handleAdminOutbox(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	ctx := r.Context()

	limit := 50
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 100 {
		limit = n
	}

	var entries []outbox.Entry
	var err error
	if r.URL.Query().Get("status") == "retryable" {
		entries, err = stores.OutboxStore.ListRetryable(ctx, limit)
	} else {
		entries, err = stores.OutboxStore.ListExhausted(ctx, limit)
	}
	if err != nil {
		internalError(w, err)
		return
	}
	counts, err := stores.OutboxStore.CountByStatus(ctx)
	if err != nil {
		internalError(w, err)
		return
	}
	if entries == nil {
		entries = []outbox.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "counts": counts})
}

// handleAdminOutboxAction handles POST /api/admin/outbox/{id}/retry|abandon
func handleAdminOutboxAction(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	ctx := r.Context()
	entryID := r.PathValue("id")
	processor := outboxProcessor()

	var err error
	status := "abandoned"
	switch r.PathValue("action") {
	case "retry":
		err = processor.ProcessSingle(ctx, entryID)
		status = "retry triggered"
	case "abandon":
		err = processor.AbandonEntry(ctx, entryID)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// handleAdminPerf handles GET /api/admin/perf?minutes=60
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if perfCollector == nil {
		http.Error(w, "performance collection is disabled", http.StatusNotFound)
		return
	}
	minutes := 60
	if n, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && n > 0 {
		minutes = n
	}
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(since, 10))
}

// handleAdminReconcile handles POST /api/admin/reconcile, running the
// status sweep the background worker runs on every tick.
func handleAdminReconcile(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	res, err := orchestrators.ExecuteReconcileStatuses(r.Context(), orchestrators.ReconcileDeps{Atomic: settings.Atomic, Clock: clock()})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"members":  res.Members,
		"bills":    res.Bills,
		"packages": res.Packages,
	})
}

// handleMetrics serves Prometheus metrics to admins.
func handleMetrics(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if perfCollector == nil || perfCollector.Metrics() == nil {
		http.Error(w, "metrics are disabled", http.StatusNotFound)
		return
	}
	perfCollector.Metrics().Handler().ServeHTTP(w, r)
}

// handleHealth reports liveness.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
