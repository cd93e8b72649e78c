package billing

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Bill statuses
const (
	StatusPending = "Pending"
	StatusPaid    = "Paid"
	StatusOverdue = "Overdue"
)

// Payment methods accepted at the desk.
const (
	MethodCash         = "Cash"
	MethodCard         = "Card"
	MethodUPI          = "UPI"
	MethodBankTransfer = "BankTransfer"
	MethodOther        = "Other"
)

// ValidPaymentMethods contains all valid payment methods.
var ValidPaymentMethods = []string{MethodCash, MethodCard, MethodUPI, MethodBankTransfer, MethodOther}

// MaxDescriptionLength bounds the free-text description.
const MaxDescriptionLength = 500

// Domain errors
var (
	ErrEmptyMemberID        = errors.New("member ID is required")
	ErrNonPositiveAmount    = errors.New("amount must be greater than zero")
	ErrMissingDueDate       = errors.New("due date is required")
	ErrInvalidStatus        = errors.New("status must be one of: Pending, Paid, Overdue")
	ErrInvalidPaymentMethod = errors.New("payment method must be one of: Cash, Card, UPI, BankTransfer, Other")
	ErrDescriptionTooLong   = errors.New("description cannot exceed 500 characters")
)

// Bill is a single charge raised against a member.
type Bill struct {
	ID            string
	MemberID      string
	MemberName    string // denormalized; survives member deletion
	BillNumber    string
	Amount        int64 // paise
	Description   string
	DueDate       time.Time
	Status        string
	PaymentDate   time.Time
	PaymentMethod string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks if the Bill has valid data.
// PRE: Bill struct is populated
// POST: Returns nil if valid, error otherwise
func (b *Bill) Validate() error {
	if strings.TrimSpace(b.MemberID) == "" {
		return ErrEmptyMemberID
	}
	if b.Amount <= 0 {
		return ErrNonPositiveAmount
	}
	if b.DueDate.IsZero() {
		return ErrMissingDueDate
	}
	if len(b.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if b.Status != StatusPending && b.Status != StatusPaid && b.Status != StatusOverdue {
		return ErrInvalidStatus
	}
	if b.Status == StatusPaid && !IsValidPaymentMethod(b.PaymentMethod) {
		return ErrInvalidPaymentMethod
	}
	return nil
}

// InitialStatus is the status of a new bill: Overdue if its due date has
// already passed, Pending otherwise.
// PRE: dueDate and today are civil dates
func InitialStatus(dueDate, today time.Time) string {
	if dueDate.Before(today) {
		return StatusOverdue
	}
	return StatusPending
}

// IsUnpaid reports whether the bill still counts towards member dues.
// INVARIANT: Bill fields are not mutated
func (b *Bill) IsUnpaid() bool {
	return b.Status == StatusPending || b.Status == StatusOverdue
}

// IsPaid reports whether the bill has been settled.
func (b *Bill) IsPaid() bool {
	return b.Status == StatusPaid
}

// EffectiveStatus derives Overdue on read for pending bills past their due date.
// INVARIANT: Bill fields are not mutated
func (b *Bill) EffectiveStatus(today time.Time) string {
	if b.Status == StatusPending && b.DueDate.Before(today) {
		return StatusOverdue
	}
	return b.Status
}

// MarkOverdue flips a pending bill past its due date to Overdue.
// POST: returns true if the status changed
func (b *Bill) MarkOverdue(today time.Time) bool {
	if b.EffectiveStatus(today) == b.Status {
		return false
	}
	b.Status = StatusOverdue
	return true
}

// MarkPaid settles the bill.
// PRE: method is a valid payment method; bill is unpaid
// POST: Status is Paid, PaymentDate is today, PaymentMethod is method
func (b *Bill) MarkPaid(method string, today time.Time) error {
	if !IsValidPaymentMethod(method) {
		return ErrInvalidPaymentMethod
	}
	b.Status = StatusPaid
	b.PaymentDate = today
	b.PaymentMethod = method
	return nil
}

// GenerateBillNumber builds BILL-YYYYMMDD-dddd from the issue date and a
// random number (only its last four digits are used).
func GenerateBillNumber(issued time.Time, n int) string {
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("BILL-%s-%04d", issued.Format("20060102"), n%10000)
}

// SumUnpaid totals the amounts of unpaid bills.
func SumUnpaid(bills []Bill) int64 {
	var total int64
	for _, b := range bills {
		if b.IsUnpaid() {
			total += b.Amount
		}
	}
	return total
}

// IsValidPaymentMethod reports whether method is accepted.
func IsValidPaymentMethod(method string) bool {
	for _, m := range ValidPaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}
