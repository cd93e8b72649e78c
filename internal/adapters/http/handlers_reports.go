package web

import (
	"bytes"
	"fmt"
	"net/http"

	"gymdesk/internal/adapters/export"
	"gymdesk/internal/application/listutil"
	"gymdesk/internal/application/projections"
	domainExport "gymdesk/internal/domain/export"
)

// handleDashboard handles GET /api/dashboard for the caller's role.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	d, err := projections.QueryDashboard(r.Context(), projections.DashboardQuery{
		Role:              sess.Role,
		AccountID:         sess.AccountID,
		Today:             today(),
		LowStockThreshold: settings.LowStockThreshold,
	}, projections.DashboardDeps{
		Members:       stores.MemberStore,
		Bills:         stores.BillStore,
		Packages:      stores.PackageStore,
		Notifications: stores.NotificationStore,
		Supplements:   stores.SupplementStore,
		Orders:        stores.OrderStore,
		Registrations: stores.RegistrationStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleReport handles GET /api/reports/{type}?format=csv|json|xlsx
func handleReport(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	q := r.URL.Query()
	typ, err := domainExport.ParseReportType(r.PathValue("type"))
	if err != nil {
		writeError(w, err)
		return
	}
	format, err := domainExport.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}
	dates, err := listutil.ParseDateRange(q, "from", "to")
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := projections.QueryReport(r.Context(), projections.ReportQuery{
		Type:    typ,
		Filters: listutil.ParseFilterParams(q, projections.ReportFilterKeys[typ]).Filters,
		Dates:   dates,
		Today:   today(),
		Now:     timeNow().In(settings.Location),
	}, projections.ReportDeps{
		Members:     stores.MemberStore,
		Bills:       stores.BillStore,
		Packages:    stores.PackageStore,
		Orders:      stores.OrderStore,
		Supplements: stores.SupplementStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, report, format); err != nil {
		internalError(w, err)
		return
	}
	countEvent("report_exported")
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(format)))
	w.Write(buf.Bytes())
}
