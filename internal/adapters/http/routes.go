package web

import (
	"io/fs"
	"net/http"
)

// registerRoutes wires every endpoint. Handlers do their own role checks.
func registerRoutes(mux *http.ServeMux) {
	// Sessions
	mux.HandleFunc("POST /login", handleLogin)
	mux.HandleFunc("POST /logout", handleLogout)
	mux.HandleFunc("GET /api/session", handleSession)
	mux.HandleFunc("POST /api/password", handleChangePassword)

	// Registration requests
	mux.HandleFunc("POST /api/register", handleSubmitRegistration)
	mux.HandleFunc("GET /api/registrations", handleRegistrations)
	mux.HandleFunc("POST /api/registrations/{id}/approve", handleApproveRegistration)
	mux.HandleFunc("POST /api/registrations/{id}/reject", handleRejectRegistration)

	// Accounts
	mux.HandleFunc("/api/accounts", handleAccounts)
	mux.HandleFunc("/api/accounts/{id}", handleAccountByID)

	// Members
	mux.HandleFunc("/api/members", handleMembers)
	mux.HandleFunc("/api/members/{id}", handleMemberByID)
	mux.HandleFunc("GET /api/me", handleMyProfile)
	mux.HandleFunc("POST /api/members/{id}/photo", handleMemberPhoto)
	mux.HandleFunc("POST /api/members/{id}/checkin", handleMemberCheckIn)
	mux.HandleFunc("POST /api/members/{id}/reconcile", handleMemberReconcileDues)
	mux.HandleFunc("POST /api/members/{id}/suspend", handleMemberSuspend)
	mux.HandleFunc("POST /api/members/{id}/reinstate", handleMemberReinstate)

	// Bills
	mux.HandleFunc("/api/bills", handleBills)
	mux.HandleFunc("/api/bills/{id}", handleBillByID)
	mux.HandleFunc("POST /api/bills/{id}/pay", handleBillPay)
	mux.HandleFunc("GET /bills/{id}/receipt", handleBillReceipt)

	// Fee packages
	mux.HandleFunc("/api/packages", handlePackages)
	mux.HandleFunc("GET /api/packages/catalog", handlePackageCatalog)
	mux.HandleFunc("POST /api/packages/{id}/cancel", handlePackageCancel)

	// Notifications
	mux.HandleFunc("/api/notifications", handleNotifications)
	mux.HandleFunc("/api/notifications/{id}", handleNotificationByID)
	mux.HandleFunc("POST /api/notifications/{id}/send", handleNotificationSend)
	mux.HandleFunc("POST /api/notifications/{id}/mark-sent", handleNotificationMarkSent)
	mux.HandleFunc("POST /api/notifications/{id}/cancel", handleNotificationCancel)
	mux.HandleFunc("GET /api/notifications/{id}/targets", handleNotificationTargets)

	// Supplements and orders
	mux.HandleFunc("/api/supplements", handleSupplements)
	mux.HandleFunc("/api/supplements/{id}", handleSupplementByID)
	mux.HandleFunc("/api/orders", handleOrders)
	mux.HandleFunc("POST /api/orders/{id}/cancel", handleOrderCancel)

	// Diet plans
	mux.HandleFunc("/api/diet-plans", handleDietPlans)
	mux.HandleFunc("/api/diet-plans/{id}", handleDietPlanByID)
	mux.HandleFunc("POST /api/diet-plans/{id}/archive", handleDietPlanArchive)

	// Dashboards and exports
	mux.HandleFunc("GET /api/dashboard", handleDashboard)
	mux.HandleFunc("GET /api/reports/{type}", handleReport)

	// Operations
	mux.HandleFunc("GET /api/admin/outbox", handleAdminOutbox)
	mux.HandleFunc("POST /api/admin/outbox/{id}/{action}", handleAdminOutboxAction)
	mux.HandleFunc("GET /api/admin/perf", handleAdminPerf)
	mux.HandleFunc("POST /api/admin/reconcile", handleAdminReconcile)
	mux.HandleFunc("GET /metrics", handleMetrics)
	mux.HandleFunc("GET /healthz", handleHealth)

	if settings.UploadDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(noListing{http.Dir(settings.UploadDir)})))
	}
}

// noListing hides directory indexes under /uploads/.
type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}
