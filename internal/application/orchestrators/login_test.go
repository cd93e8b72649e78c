package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymdesk/internal/domain/account"
)

func seedLoginAccount(t *testing.T, db *fakeDB, role string) account.Account {
	t.Helper()
	a := account.Account{ID: "a1", AccountID: "MEM-000001", FirstName: "Ravi", LastName: "Kumar", Email: "ravi@gym.in", Role: role}
	if err := a.SetPassword("bench-press-5"); err != nil {
		t.Fatal(err)
	}
	db.accounts[a.ID] = a
	return a
}

// TestExecuteVerifyCredentials_Success tests a good login with a messy email.
func TestExecuteVerifyCredentials_Success(t *testing.T) {
	db := newFakeDB()
	seedLoginAccount(t, db, account.RoleMember)

	res, err := ExecuteVerifyCredentials(context.Background(), LoginInput{
		Email: " Ravi@GYM.in", Password: "bench-press-5", Role: account.RoleMember,
	}, LoginDeps{AccountStore: fakeAccounts{db}, Clock: testClock})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != "a1" || res.AccountID != "MEM-000001" || res.Name != "Ravi Kumar" || res.Role != account.RoleMember {
		t.Errorf("unexpected result: %+v", res)
	}
}

// TestExecuteVerifyCredentials_RoleMismatch tests the role selected at login must match.
func TestExecuteVerifyCredentials_RoleMismatch(t *testing.T) {
	db := newFakeDB()
	seedLoginAccount(t, db, account.RoleMember)

	_, err := ExecuteVerifyCredentials(context.Background(), LoginInput{
		Email: "ravi@gym.in", Password: "bench-press-5", Role: account.RoleAdmin,
	}, LoginDeps{AccountStore: fakeAccounts{db}, Clock: testClock})
	if !errors.Is(err, ErrRoleMismatch) {
		t.Errorf("expected ErrRoleMismatch, got %v", err)
	}
}

// TestExecuteVerifyCredentials_Lockout tests five failures lock the account.
func TestExecuteVerifyCredentials_Lockout(t *testing.T) {
	db := newFakeDB()
	seedLoginAccount(t, db, account.RoleMember)
	now := fixedTime
	deps := LoginDeps{AccountStore: fakeAccounts{db}, Clock: Clock{Now: func() time.Time { return now }}}

	for i := 0; i < 5; i++ {
		_, err := ExecuteVerifyCredentials(context.Background(), LoginInput{Email: "ravi@gym.in", Password: "wrong-password", Role: account.RoleMember}, deps)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	_, err := ExecuteVerifyCredentials(context.Background(), LoginInput{Email: "ravi@gym.in", Password: "bench-press-5", Role: account.RoleMember}, deps)
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}

	now = fixedTime.Add(16 * time.Minute)
	if _, err := ExecuteVerifyCredentials(context.Background(), LoginInput{Email: "ravi@gym.in", Password: "bench-press-5", Role: account.RoleMember}, deps); err != nil {
		t.Fatalf("expected login after lock expiry, got %v", err)
	}
	if db.accounts["a1"].FailedLogins != 0 {
		t.Error("failed logins not reset after success")
	}
}

// TestExecuteVerifyCredentials_Unknown tests unknown and empty credentials.
func TestExecuteVerifyCredentials_Unknown(t *testing.T) {
	deps := LoginDeps{AccountStore: fakeAccounts{newFakeDB()}, Clock: testClock}
	for _, in := range []LoginInput{
		{Email: "ghost@gym.in", Password: "whatever-1", Role: account.RoleUser},
		{Email: "", Password: "whatever-1", Role: account.RoleUser},
		{Email: "ghost@gym.in", Password: "", Role: account.RoleUser},
	} {
		if _, err := ExecuteVerifyCredentials(context.Background(), in, deps); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%+v: expected ErrInvalidCredentials, got %v", in, err)
		}
	}
}
