package web

import (
	"log/slog"
	"net/http"

	"gymdesk/internal/application/listutil"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
)

// handleAccounts handles GET (list) and POST (create) for /api/accounts
func handleAccounts(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case "GET":
		params := listutil.ParseListParams(r.URL.Query(), nil, []string{"role"})
		result, err := projections.QueryAccountList(ctx, projections.AccountListQuery{Params: params, Now: timeNow()},
			projections.DirectoryDeps{Accounts: stores.AccountStore, Registrations: stores.RegistrationStore})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case "POST":
		var input struct {
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
			Email     string `json:"email"`
			Password  string `json:"password"`
			Role      string `json:"role"`
		}
		if !decodeBody(w, r, &input) {
			return
		}
		acct, err := orchestrators.ExecuteCreateAccount(ctx, orchestrators.CreateAccountInput{
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     input.Email,
			Password:  input.Password,
			Role:      input.Role,
		}, accountDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, projections.NewAccountView(acct, timeNow()))

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleAccountByID handles PATCH and DELETE for /api/accounts/{id}
func handleAccountByID(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	id := r.PathValue("id")

	switch r.Method {
	case "PATCH":
		var input struct {
			FirstName *string `json:"firstName"`
			LastName  *string `json:"lastName"`
			Email     *string `json:"email"`
			Password  *string `json:"password"`
			Role      *string `json:"role"`
		}
		if !decodeBody(w, r, &input) {
			return
		}
		acct, err := orchestrators.ExecuteUpdateAccount(ctx, orchestrators.UpdateAccountInput{
			ID:        id,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     input.Email,
			Password:  input.Password,
			Role:      input.Role,
		}, orchestrators.UpdateAccountDeps{AccountStore: stores.AccountStore, Clock: clock()})
		if err != nil {
			writeError(w, err)
			return
		}
		// a new role or password takes effect at the next login
		if input.Role != nil || input.Password != nil {
			if n := sessions.DeleteAccount(acct.ID); n > 0 {
				slog.Info("auth_event", "event", "sessions_revoked", "account_id", acct.ID, "count", n)
			}
		}
		writeJSON(w, http.StatusOK, projections.NewAccountView(acct, timeNow()))

	case "DELETE":
		err := orchestrators.ExecuteDeleteAccount(ctx, orchestrators.DeleteAccountInput{ID: id, ActorID: sess.AccountID}, stores.AccountStore)
		if err != nil {
			writeError(w, err)
			return
		}
		sessions.DeleteAccount(id)
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}
