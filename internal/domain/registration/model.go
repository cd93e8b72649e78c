package registration

import (
	"errors"
	"strings"
	"time"

	"gymdesk/internal/domain/account"
)

// Request statuses
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// Domain errors
var (
	ErrNotPending    = errors.New("registration request has already been reviewed")
	ErrEmptyReason   = errors.New("a rejection reason is required")
	ErrAdminRequest  = errors.New("admin accounts cannot be requested")
	ErrInvalidStatus = errors.New("status must be one of: Pending, Approved, Rejected")
)

// Request is a self-service sign-up awaiting admin review.
type Request struct {
	ID              string
	FirstName       string
	LastName        string
	Email           string // normalized
	Phone           string
	Role            string
	PasswordHash    string `json:"-"`
	Status          string
	RequestedAt     time.Time
	ReviewedAt      time.Time
	ReviewedBy      string
	RejectionReason string
	AccountID       string // set on approval
}

// Validate checks if the Request has valid data.
// PRE: Request struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Request) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" {
		return account.ErrEmptyName
	}
	if r.Email == "" {
		return account.ErrEmptyEmail
	}
	if !strings.Contains(r.Email, "@") {
		return account.ErrInvalidEmail
	}
	if r.Role == account.RoleAdmin {
		return ErrAdminRequest
	}
	if r.Role != account.RoleMember && r.Role != account.RoleUser {
		return account.ErrInvalidRole
	}
	if r.PasswordHash == "" {
		return account.ErrEmptyPassword
	}
	if r.Status != StatusPending && r.Status != StatusApproved && r.Status != StatusRejected {
		return ErrInvalidStatus
	}
	return nil
}

// Approve records the review outcome.
// PRE: Status is Pending
// POST: Status is Approved, reviewer fields set
func (r *Request) Approve(reviewer, accountID string, now time.Time) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	r.Status = StatusApproved
	r.ReviewedAt = now
	r.ReviewedBy = reviewer
	r.AccountID = accountID
	return nil
}

// Reject records the review outcome with a reason.
// PRE: Status is Pending, reason not blank
// POST: Status is Rejected, reviewer fields set
func (r *Request) Reject(reviewer, reason string, now time.Time) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrEmptyReason
	}
	r.Status = StatusRejected
	r.ReviewedAt = now
	r.ReviewedBy = reviewer
	r.RejectionReason = reason
	return nil
}
