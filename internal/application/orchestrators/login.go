package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"gymdesk/internal/domain/account"
)

// LoginInput carries input for the login orchestrator. Role is the portal
// the user picked on the login form.
type LoginInput struct {
	Email    string
	Password string
	Role     string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	ID        string
	AccountID string
	Email     string
	Name      string
	Role      string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore AccountStore
	Clock        Clock
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts")
	ErrRoleMismatch       = errors.New("this account cannot sign in with the selected role")
)

// ExecuteVerifyCredentials validates credentials and returns account info for session creation.
// PRE: Email, password and role provided
// POST: Returns account info on success, records failed login on wrong password
// INVARIANT: Account must not be locked
func ExecuteVerifyCredentials(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	email := account.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	now := deps.Clock.now()

	acct, err := deps.AccountStore.GetByEmail(ctx, email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}

	if acct.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "email", email, "reason", "locked")
		return LoginResult{}, ErrAccountLocked
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin(now)
		if saveErr := deps.AccountStore.Save(ctx, acct); saveErr != nil {
			slog.Error("auth_event", "event", "failed_login_not_recorded", "email", email, "error", saveErr)
		}
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		return LoginResult{}, ErrInvalidCredentials
	}

	if input.Role != acct.Role {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "role_mismatch", "selected", input.Role)
		return LoginResult{}, ErrRoleMismatch
	}

	if acct.FailedLogins > 0 {
		acct.ResetFailedLogins()
		_ = deps.AccountStore.Save(ctx, acct)
	}

	slog.Info("auth_event", "event", "login_success", "email", email, "role", acct.Role)

	return LoginResult{
		ID:        acct.ID,
		AccountID: acct.AccountID,
		Email:     acct.Email,
		Name:      acct.FullName(),
		Role:      acct.Role,
	}, nil
}
