package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/registration"
)

var (
	ErrRegistrationPending  = errors.New("a registration request for this email is already awaiting review")
	ErrRegistrationNotFound = errors.New("registration request not found")
)

// SubmitRegistrationInput carries a public sign-up request.
type SubmitRegistrationInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Role      string
}

// RegistrationDeps holds dependencies for the registration orchestrators.
type RegistrationDeps struct {
	Atomic     AtomicFunc
	GenerateID func() string
	RandInt    func(n int) int
	Clock      Clock
}

// ExecuteSubmitRegistration records a pending sign-up request.
// PRE: Role is member or user
// POST: Request persisted as Pending with a hashed password
// INVARIANT: No account and no other pending request uses the same email
func ExecuteSubmitRegistration(ctx context.Context, input SubmitRegistrationInput, deps RegistrationDeps) (registration.Request, error) {
	req := registration.Request{
		ID:          deps.GenerateID(),
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		Email:       account.NormalizeEmail(input.Email),
		Phone:       strings.TrimSpace(input.Phone),
		Role:        input.Role,
		Status:      registration.StatusPending,
		RequestedAt: deps.Clock.now(),
	}
	hash, err := account.HashPassword(input.Password)
	if err != nil {
		return registration.Request{}, err
	}
	req.PasswordHash = hash
	if err := req.Validate(); err != nil {
		return registration.Request{}, err
	}

	err = deps.Atomic(ctx, func(ctx context.Context, s TxStores) error {
		if _, err := s.Accounts.GetByEmail(ctx, req.Email); err == nil {
			return ErrDuplicateEmail
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if _, err := s.Registrations.GetPendingByEmail(ctx, req.Email); err == nil {
			return ErrRegistrationPending
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return s.Registrations.Save(ctx, req)
	})
	if err != nil {
		return registration.Request{}, err
	}

	slog.Info("registration_event", "event", "submitted", "request_id", req.ID, "role", req.Role)
	return req, nil
}

// ReviewRegistrationInput carries an admin decision.
type ReviewRegistrationInput struct {
	RequestID  string
	ReviewerID string
	Reason     string // required for rejection
}

// ApproveRegistrationResult carries what approval created.
type ApproveRegistrationResult struct {
	Request registration.Request
	Account account.Account
	Member  *member.Member
}

// ExecuteApproveRegistration turns a pending request into an account. Member
// requests also get an Inactive member profile linked to the account.
// PRE: Request is Pending
// POST: Account (and member profile) created and request Approved, atomically
func ExecuteApproveRegistration(ctx context.Context, input ReviewRegistrationInput, deps RegistrationDeps) (ApproveRegistrationResult, error) {
	var result ApproveRegistrationResult
	now := deps.Clock.now()

	err := deps.Atomic(ctx, func(ctx context.Context, s TxStores) error {
		req, err := s.Registrations.GetByID(ctx, input.RequestID)
		if err != nil {
			return notFound(err, ErrRegistrationNotFound)
		}
		if req.Status != registration.StatusPending {
			return registration.ErrNotPending
		}

		acct := account.Account{
			ID:           deps.GenerateID(),
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        req.Email,
			DisplayEmail: req.Email,
			PasswordHash: req.PasswordHash,
			Role:         req.Role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := acct.Validate(); err != nil {
			return err
		}
		if err := insertAccount(ctx, s.Accounts, &acct, deps.RandInt); err != nil {
			return err
		}

		if req.Role == account.RoleMember {
			m := member.Member{
				ID:        deps.GenerateID(),
				AccountID: acct.ID,
				FirstName: req.FirstName,
				LastName:  req.LastName,
				Email:     req.Email,
				Phone:     req.Phone,
				Status:    member.StatusInactive,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := m.Validate(); err != nil {
				return err
			}
			if err := s.Members.Save(ctx, m); err != nil {
				return err
			}
			result.Member = &m
		}

		if err := req.Approve(input.ReviewerID, acct.ID, now); err != nil {
			return err
		}
		if err := s.Registrations.Save(ctx, req); err != nil {
			return err
		}
		result.Request = req
		result.Account = acct
		return nil
	})
	if err != nil {
		return ApproveRegistrationResult{}, err
	}

	slog.Info("registration_event", "event", "approved", "request_id", result.Request.ID, "account_id", result.Account.AccountID, "reviewer", input.ReviewerID)
	return result, nil
}

// ExecuteRejectRegistration closes a pending request with a reason.
// PRE: Request is Pending, reason not blank
// POST: Request Rejected; no account created
func ExecuteRejectRegistration(ctx context.Context, input ReviewRegistrationInput, deps RegistrationDeps) (registration.Request, error) {
	var req registration.Request
	err := deps.Atomic(ctx, func(ctx context.Context, s TxStores) error {
		var err error
		req, err = s.Registrations.GetByID(ctx, input.RequestID)
		if err != nil {
			return notFound(err, ErrRegistrationNotFound)
		}
		if err := req.Reject(input.ReviewerID, input.Reason, deps.Clock.now()); err != nil {
			return err
		}
		return s.Registrations.Save(ctx, req)
	})
	if err != nil {
		return registration.Request{}, err
	}

	slog.Info("registration_event", "event", "rejected", "request_id", req.ID, "reviewer", input.ReviewerID)
	return req, nil
}
