package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"gymdesk/internal/adapters/filestore"
	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/application/listutil"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/billing"
	"gymdesk/internal/domain/dietplan"
	"gymdesk/internal/domain/export"
	"gymdesk/internal/domain/feepackage"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/membership"
	"gymdesk/internal/domain/notification"
	"gymdesk/internal/domain/registration"
	"gymdesk/internal/domain/supplement"
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode_response_failed", "error", err.Error())
	}
}

var notFoundErrors = []error{
	sql.ErrNoRows,
	orchestrators.ErrAccountNotFound,
	orchestrators.ErrMemberNotFound,
	orchestrators.ErrBillNotFound,
	orchestrators.ErrPackageNotFound,
	orchestrators.ErrNotificationNotFound,
	orchestrators.ErrSupplementNotFound,
	orchestrators.ErrOrderNotFound,
	orchestrators.ErrRegistrationNotFound,
	orchestrators.ErrDietPlanNotFound,
}

var conflictErrors = []error{
	orchestrators.ErrDuplicateEmail,
	orchestrators.ErrRegistrationPending,
	registration.ErrNotPending,
	notification.ErrNotScheduled,
	feepackage.ErrAlreadyCancelled,
	supplement.ErrOrderCancelled,
	supplement.ErrInsufficientStock,
	dietplan.ErrAlreadyArchived,
}

var badRequestErrors = []error{
	account.ErrInvalidEmail, account.ErrEmptyEmail, account.ErrEmptyName, account.ErrInvalidRole,
	account.ErrEmptyPassword, account.ErrPasswordTooShort,
	orchestrators.ErrPasswordFieldsRequired, orchestrators.ErrCurrentPasswordWrong, orchestrators.ErrNewPasswordSame,
	orchestrators.ErrUnsupportedPhoto,
	member.ErrEmptyName, member.ErrInvalidEmail, member.ErrInvalidStatus, member.ErrInvalidType,
	member.ErrDateOrder, member.ErrNegativeDues, member.ErrNotActive,
	billing.ErrEmptyMemberID, billing.ErrNonPositiveAmount, billing.ErrMissingDueDate,
	billing.ErrInvalidStatus, billing.ErrInvalidPaymentMethod, billing.ErrDescriptionTooLong, billing.ErrInvalidAmount,
	feepackage.ErrUnknownPackage, feepackage.ErrEmptyMemberID, feepackage.ErrNegativeAmount,
	feepackage.ErrMissingStartDate, feepackage.ErrInvalidStatus,
	supplement.ErrEmptyName, supplement.ErrNameTooLong, supplement.ErrNegativePrice, supplement.ErrNegativeStock,
	supplement.ErrNoItems, supplement.ErrNonPositiveQuantity, supplement.ErrInvalidPolicy,
	notification.ErrEmptyTitle, notification.ErrTitleTooLong, notification.ErrEmptyMessage,
	notification.ErrInvalidType, notification.ErrInvalidTarget, notification.ErrMissingMember,
	notification.ErrMissingDate, notification.ErrInvalidSendTime, notification.ErrInvalidRecurrence,
	notification.ErrInvalidStatus,
	dietplan.ErrEmptyMemberID, dietplan.ErrEmptyTitle, dietplan.ErrTitleTooLong, dietplan.ErrInvalidGoal,
	dietplan.ErrNegativeCalories, dietplan.ErrMissingStartDate, dietplan.ErrDateOrder, dietplan.ErrEmptyMeal,
	dietplan.ErrInvalidMealTime, dietplan.ErrInvalidStatus,
	registration.ErrEmptyReason, registration.ErrAdminRequest, registration.ErrInvalidStatus,
	membership.ErrInvalidDate, membership.ErrInvalidDuration,
	export.ErrUnknownReport, export.ErrUnknownFormat,
	listutil.ErrDateRangeOrder,
	filestore.ErrInvalidKey,
}

// statusFor maps an orchestrator error to an HTTP status. Unknown errors
// are internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestrators.ErrInvalidCredentials), errors.Is(err, orchestrators.ErrAccountLocked):
		return http.StatusUnauthorized
	case errors.Is(err, orchestrators.ErrRoleMismatch), errors.Is(err, orchestrators.ErrSelfDelete):
		return http.StatusForbidden
	case errors.Is(err, filestore.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	}
	for _, e := range notFoundErrors {
		if errors.Is(err, e) {
			return http.StatusNotFound
		}
	}
	for _, e := range conflictErrors {
		if errors.Is(err, e) {
			return http.StatusConflict
		}
	}
	for _, e := range badRequestErrors {
		if errors.Is(err, e) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeError answers with the status statusFor picks. Internal errors are
// logged and hidden from the client.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		internalError(w, err)
		return
	}
	msg := err.Error()
	if status == http.StatusNotFound {
		msg = "not found"
	}
	http.Error(w, msg, status)
}

// requireSession returns the caller's session or answers 401.
func requireSession(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return middleware.Session{}, false
	}
	return sess, true
}

// requireAdmin checks that the request carries an admin session.
func requireAdmin(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return sess, false
	}
	if sess.Role != account.RoleAdmin {
		slog.Warn("auth_denied", "path", r.URL.Path, "role", sess.Role, "account_id", sess.AccountID)
		http.Error(w, "admin required", http.StatusForbidden)
		return sess, false
	}
	return sess, true
}

// rupees is a money amount sent as a JSON number or string, e.g. 1500 or
// "1,500.50". It decodes to paise.
type rupees struct {
	Paise int64
	Set   bool
}

func (a *rupees) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		return nil
	}
	p, err := billing.ParseAmount(s)
	if err != nil {
		return err
	}
	a.Paise, a.Set = p, true
	return nil
}

func (a rupees) ptr() *int64 {
	if !a.Set {
		return nil
	}
	v := a.Paise
	return &v
}

// civilDate is a YYYY-MM-DD date in a JSON body. Empty strings decode to the
// zero time and leave Set false.
type civilDate struct {
	Time time.Time
	Set  bool
}

func (d *civilDate) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		return nil
	}
	t, err := membership.ParseDate(s)
	if err != nil {
		return err
	}
	d.Time, d.Set = t, true
	return nil
}

func (d civilDate) ptr() *time.Time {
	if !d.Set {
		return nil
	}
	t := d.Time
	return &t
}

// decodeBody decodes JSON and answers 400 on failure. Money and date format
// errors keep their message so the form can show it.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := strictDecode(r, v); err != nil {
		switch {
		case errors.Is(err, billing.ErrInvalidAmount), errors.Is(err, membership.ErrInvalidDate):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "invalid request body", http.StatusBadRequest)
		}
		return false
	}
	return true
}
