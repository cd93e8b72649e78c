package web

import (
	"bytes"
	"net/http"

	"gymdesk/internal/adapters/export"
	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/application/listutil"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/billing"
)

// memberScope resolves which member a non-admin caller may see. Admins get
// "" (no restriction). Members get their own profile id; anyone else is
// refused with 403.
func memberScope(w http.ResponseWriter, r *http.Request, sess middleware.Session) (string, bool) {
	switch sess.Role {
	case account.RoleAdmin:
		return "", true
	case account.RoleMember:
		m, err := ownMember(r, sess)
		if err != nil {
			http.Error(w, "no member profile is linked to this account", http.StatusForbidden)
			return "", false
		}
		return m.ID, true
	}
	http.Error(w, "forbidden", http.StatusForbidden)
	return "", false
}

// loadVisibleBill fetches a bill the caller may see.
func loadVisibleBill(w http.ResponseWriter, r *http.Request) (billing.Bill, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return billing.Bill{}, false
	}
	scope, ok := memberScope(w, r, sess)
	if !ok {
		return billing.Bill{}, false
	}
	b, err := stores.BillStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return billing.Bill{}, false
	}
	if scope != "" && b.MemberID != scope {
		http.Error(w, "not found", http.StatusNotFound)
		return billing.Bill{}, false
	}
	return b, true
}

// handleBills handles GET (list) and POST (create) for /api/bills
func handleBills(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case "GET":
		scope, ok := memberScope(w, r, sess)
		if !ok {
			return
		}
		q := r.URL.Query()
		due, err := listutil.ParseDateRange(q, "dueFrom", "dueTo")
		if err != nil {
			writeError(w, err)
			return
		}
		result, err := projections.QueryBillList(ctx, projections.BillListQuery{
			Params:   listutil.ParseListParams(q, nil, projections.BillListFilterKeys),
			Due:      due,
			MemberID: scope,
			Today:    today(),
		}, projections.BillListDeps{Bills: stores.BillStore})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case "POST":
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		var input struct {
			MemberID    string    `json:"memberId"`
			Amount      rupees    `json:"amount"`
			Description string    `json:"description"`
			DueDate     civilDate `json:"dueDate"`
		}
		if !decodeBody(w, r, &input) {
			return
		}
		b, err := orchestrators.ExecuteCreateBill(ctx, orchestrators.CreateBillInput{
			MemberID:    input.MemberID,
			Amount:      input.Amount.Paise,
			Description: input.Description,
			DueDate:     input.DueDate.Time,
		}, billingDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		countEvent("bill_created")
		writeJSON(w, http.StatusCreated, projections.NewBillView(b, today()))

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleBillByID handles GET and DELETE for /api/bills/{id}
func handleBillByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		b, ok := loadVisibleBill(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, projections.NewBillView(b, today()))

	case "DELETE":
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		if err := orchestrators.ExecuteDeleteBill(r.Context(), r.PathValue("id"), billingDeps()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleBillPay handles POST /api/bills/{id}/pay with {paymentMethod}.
func handleBillPay(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	var input struct {
		PaymentMethod string `json:"paymentMethod"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	b, err := orchestrators.ExecuteMarkBillPaid(r.Context(), orchestrators.MarkBillPaidInput{
		BillID:        r.PathValue("id"),
		PaymentMethod: input.PaymentMethod,
	}, billingDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	countEvent("bill_paid")
	writeJSON(w, http.StatusOK, projections.NewBillView(b, today()))
}

// handleBillReceipt handles GET /bills/{id}/receipt as a printable page.
func handleBillReceipt(w http.ResponseWriter, r *http.Request) {
	b, ok := loadVisibleBill(w, r)
	if !ok {
		return
	}
	receipt := export.Receipt{
		GymName:    settings.GymName,
		GymAddress: settings.GymAddress,
		Bill:       b,
		Status:     b.EffectiveStatus(today()),
		PrintedAt:  timeNow().In(settings.Location),
	}
	// the member may be gone; the bill keeps their name
	if m, err := stores.MemberStore.GetByID(r.Context(), b.MemberID); err == nil {
		receipt.MemberEmail = m.Email
		receipt.MemberPhone = m.Phone
	}

	var buf bytes.Buffer
	if err := export.WriteReceipt(&buf, receipt); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
