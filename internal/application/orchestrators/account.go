package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	accountStore "gymdesk/internal/adapters/storage/account"
	"gymdesk/internal/domain/account"
)

var (
	ErrDuplicateEmail     = errors.New("an account with this email already exists")
	ErrAccountIDExhausted = errors.New("could not allocate a unique account id")
	ErrSelfDelete         = errors.New("you cannot delete your own account")
	ErrAccountNotFound    = errors.New("account not found")
)

// CreateAccountInput carries input for the orchestrator.
type CreateAccountInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	AccountStore AccountStore
	GenerateID   func() string
	RandInt      func(n int) int
	Clock        Clock
}

// ExecuteCreateAccount coordinates account creation.
// PRE: Valid email, password >= 8 chars, valid role
// POST: Account created with hashed password and a role-prefixed account id
// INVARIANT: Normalized email is unique across all accounts
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (account.Account, error) {
	now := deps.Clock.now()
	acct := account.Account{
		ID:           deps.GenerateID(),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        account.NormalizeEmail(input.Email),
		DisplayEmail: strings.TrimSpace(input.Email),
		Role:         input.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := acct.Validate(); err != nil {
		return account.Account{}, err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return account.Account{}, err
	}
	if err := insertAccount(ctx, deps.AccountStore, &acct, deps.RandInt); err != nil {
		return account.Account{}, err
	}

	slog.Info("auth_event", "event", "account_created", "account_id", acct.AccountID, "role", acct.Role)
	return acct, nil
}

// insertAccount assigns an account id and saves a new account. A concurrent
// create for the same email loses at the UNIQUE index and reports
// ErrDuplicateEmail; an account id collision draws a new number.
func insertAccount(ctx context.Context, store AccountStore, acct *account.Account, randInt func(int) int) error {
	if randInt == nil {
		randInt = RandomInt
	}
	if _, err := store.GetByEmail(ctx, acct.Email); err == nil {
		return ErrDuplicateEmail
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := account.GenerateAccountID(acct.Role, randInt(1000000))
		if err != nil {
			return err
		}
		acct.AccountID = id
		err = store.Save(ctx, *acct)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, accountStore.ErrEmailTaken):
			return ErrDuplicateEmail
		case errors.Is(err, accountStore.ErrAccountIDTaken):
			slog.Warn("auth_event", "event", "account_id_collision", "account_id", id, "attempt", attempt+1)
			continue
		default:
			return err
		}
	}
	return ErrAccountIDExhausted
}

// UpdateAccountInput carries a partial update. Nil fields are left unchanged.
type UpdateAccountInput struct {
	ID        string
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	Role      *string
}

// UpdateAccountDeps holds dependencies for UpdateAccount.
type UpdateAccountDeps struct {
	AccountStore AccountStore
	Clock        Clock
}

// ExecuteUpdateAccount applies a partial update to an account.
// PRE: input.ID names an existing account
// POST: Changed fields persisted; a new password is re-hashed
// INVARIANT: A changed email stays unique against every other account
func ExecuteUpdateAccount(ctx context.Context, input UpdateAccountInput, deps UpdateAccountDeps) (account.Account, error) {
	acct, err := deps.AccountStore.GetByID(ctx, input.ID)
	if err != nil {
		return account.Account{}, notFound(err, ErrAccountNotFound)
	}

	if input.FirstName != nil {
		acct.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		acct.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Role != nil {
		acct.Role = *input.Role
	}
	if input.Email != nil {
		email := account.NormalizeEmail(*input.Email)
		if email != acct.Email {
			other, err := deps.AccountStore.GetByEmail(ctx, email)
			if err == nil && other.ID != acct.ID {
				return account.Account{}, ErrDuplicateEmail
			}
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return account.Account{}, err
			}
		}
		acct.Email = email
		acct.DisplayEmail = strings.TrimSpace(*input.Email)
	}
	if err := acct.Validate(); err != nil {
		return account.Account{}, err
	}
	if input.Password != nil {
		if err := acct.SetPassword(*input.Password); err != nil {
			return account.Account{}, err
		}
	}
	acct.UpdatedAt = deps.Clock.now()

	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		if errors.Is(err, accountStore.ErrEmailTaken) {
			return account.Account{}, ErrDuplicateEmail
		}
		return account.Account{}, err
	}

	slog.Info("auth_event", "event", "account_updated", "account_id", acct.AccountID, "password_changed", input.Password != nil)
	return acct, nil
}

// DeleteAccountInput carries input for DeleteAccount.
type DeleteAccountInput struct {
	ID      string
	ActorID string
}

// ExecuteDeleteAccount removes an account. A linked member profile is kept.
// PRE: input.ID names an existing account other than the actor's
// POST: Account removed
func ExecuteDeleteAccount(ctx context.Context, input DeleteAccountInput, store AccountStore) error {
	if input.ID == input.ActorID {
		return ErrSelfDelete
	}
	acct, err := store.GetByID(ctx, input.ID)
	if err != nil {
		return notFound(err, ErrAccountNotFound)
	}
	if err := store.Delete(ctx, acct.ID); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "account_deleted", "account_id", acct.AccountID)
	return nil
}

// AccountCounter counts accounts for first-run seeding.
type AccountCounter interface {
	Count(ctx context.Context, filter accountStore.ListFilter) (int, error)
}

// ExecuteSeedAdmin creates a default admin account if no accounts exist.
// PRE: Database is initialized
// POST: Admin account created if count == 0
func ExecuteSeedAdmin(ctx context.Context, counter AccountCounter, deps CreateAccountDeps, email, password string) error {
	count, err := counter.Count(ctx, accountStore.ListFilter{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	acct, err := ExecuteCreateAccount(ctx, CreateAccountInput{
		FirstName: "Gym",
		LastName:  "Admin",
		Email:     email,
		Password:  password,
		Role:      account.RoleAdmin,
	}, deps)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	slog.Info("auth_event", "event", "admin_seeded", "account_id", acct.AccountID)
	return nil
}

// notFound maps a store miss to a domain error and passes other errors through.
func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}
