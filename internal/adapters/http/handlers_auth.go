package web

import (
	"net/http"
	"time"

	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/application/listutil"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
)

type sessionView struct {
	AccountID string    `json:"accountId"`
	DisplayID string    `json:"displayId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func newSessionView(s middleware.Session) sessionView {
	return sessionView{
		AccountID: s.AccountID,
		DisplayID: s.DisplayID,
		Email:     s.Email,
		Name:      s.Name,
		Role:      s.Role,
		CreatedAt: s.CreatedAt,
	}
}

// handleLogin handles POST /login with {Email, Password, Role}.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"Email"`
		Password string `json:"Password"`
		Role     string `json:"Role"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	result, err := orchestrators.ExecuteVerifyCredentials(r.Context(), orchestrators.LoginInput{
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
	}, orchestrators.LoginDeps{AccountStore: stores.AccountStore, Clock: clock()})
	if err != nil {
		countEvent("login_failed")
		writeError(w, err)
		return
	}

	sess := middleware.Session{
		AccountID: result.ID,
		DisplayID: result.AccountID,
		Email:     result.Email,
		Name:      result.Name,
		Role:      result.Role,
		CreatedAt: timeNow(),
	}
	token, err := sessions.Create(sess)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	countEvent("login")
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleSession handles GET /api/session
func handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

// handleChangePassword handles POST /api/password for the signed-in account.
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var input struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		ID:              sess.AccountID,
		CurrentPassword: input.CurrentPassword,
		NewPassword:     input.NewPassword,
	}, orchestrators.ChangePasswordDeps{AccountStore: stores.AccountStore, Clock: clock()})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmitRegistration handles POST /api/register. No session needed.
func handleSubmitRegistration(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		Password  string `json:"password"`
		Role      string `json:"role"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	req, err := orchestrators.ExecuteSubmitRegistration(r.Context(), orchestrators.SubmitRegistrationInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Password:  input.Password,
		Role:      input.Role,
	}, registrationDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	countEvent("registration_submitted")
	writeJSON(w, http.StatusCreated, projections.NewRegistrationView(req))
}

// handleRegistrations handles GET /api/registrations?status=Pending
func handleRegistrations(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	params := listutil.ParseListParams(r.URL.Query(), nil, []string{"status"})
	result, err := projections.QueryRegistrationList(r.Context(), params, projections.DirectoryDeps{
		Accounts:      stores.AccountStore,
		Registrations: stores.RegistrationStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleApproveRegistration handles POST /api/registrations/{id}/approve
func handleApproveRegistration(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	result, err := orchestrators.ExecuteApproveRegistration(r.Context(), orchestrators.ReviewRegistrationInput{
		RequestID:  r.PathValue("id"),
		ReviewerID: sess.AccountID,
	}, registrationDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{
		"request": projections.NewRegistrationView(result.Request),
		"account": projections.NewAccountView(result.Account, timeNow()),
	}
	if result.Member != nil {
		resp["member"] = projections.NewMemberView(*result.Member, today())
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRejectRegistration handles POST /api/registrations/{id}/reject with {reason}.
func handleRejectRegistration(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var input struct {
		Reason string `json:"reason"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	req, err := orchestrators.ExecuteRejectRegistration(r.Context(), orchestrators.ReviewRegistrationInput{
		RequestID:  r.PathValue("id"),
		ReviewerID: sess.AccountID,
		Reason:     input.Reason,
	}, registrationDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.NewRegistrationView(req))
}
