package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	emailAdapter "gymdesk/internal/adapters/email"
	billStore "gymdesk/internal/adapters/storage/bill"
	"gymdesk/internal/domain/billing"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/outbox"
)

var (
	ErrBillNotFound        = errors.New("bill not found")
	ErrBillNumberExhausted = errors.New("could not allocate a unique bill number")
)

// CreateBillInput carries a new charge.
type CreateBillInput struct {
	MemberID    string
	Amount      int64 // paise
	Description string
	DueDate     time.Time
}

// BillingDeps holds dependencies for the billing orchestrators.
type BillingDeps struct {
	Atomic     AtomicFunc
	GenerateID func() string
	RandInt    func(n int) int
	Clock      Clock
	// RenderReceipt, when set, makes MarkBillPaid queue a receipt email for
	// members with an email address.
	RenderReceipt func(b billing.Bill) (string, error)
}

// ExecuteCreateBill raises a bill and adds its amount to the member's dues.
// PRE: member exists; Amount > 0; DueDate set
// POST: Bill saved with Status Overdue if DueDate < today else Pending;
// member.Dues increased by Amount; both writes in one transaction
// INVARIANT: BillNumber is unique
func ExecuteCreateBill(ctx context.Context, input CreateBillInput, deps BillingDeps) (billing.Bill, error) {
	randInt := deps.RandInt
	if randInt == nil {
		randInt = RandomInt
	}
	now := deps.Clock.now()
	today := deps.Clock.Today()
	b := billing.Bill{
		ID:          deps.GenerateID(),
		MemberID:    input.MemberID,
		Amount:      input.Amount,
		Description: strings.TrimSpace(input.Description),
		DueDate:     input.DueDate,
		Status:      billing.InitialStatus(input.DueDate, today),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := b.Validate(); err != nil {
		return billing.Bill{}, err
	}

	err := deps.Atomic(ctx, func(ctx context.Context, s TxStores) error {
		m, err := s.Members.GetByID(ctx, input.MemberID)
		if err != nil {
			return notFound(err, ErrMemberNotFound)
		}
		b.MemberName = m.FullName()

		saved := false
		for attempt := 0; attempt < maxIDAttempts && !saved; attempt++ {
			b.BillNumber = billing.GenerateBillNumber(today, randInt(10000))
			err := s.Bills.Save(ctx, b)
			switch {
			case err == nil:
				saved = true
			case errors.Is(err, billStore.ErrBillNumberTaken):
				slog.Warn("billing_event", "event", "bill_number_collision", "bill_number", b.BillNumber, "attempt", attempt+1)
			default:
				return err
			}
		}
		if !saved {
			return ErrBillNumberExhausted
		}

		m.AddDues(b.Amount)
		return s.Members.UpdateDues(ctx, m.ID, m.Dues)
	})
	if err != nil {
		return billing.Bill{}, err
	}

	slog.Info("billing_event", "event", "bill_created", "bill_id", b.ID, "bill_number", b.BillNumber, "member_id", b.MemberID, "amount", b.Amount, "status", b.Status)
	return b, nil
}

// MarkBillPaidInput carries a settlement.
type MarkBillPaidInput struct {
	BillID        string
	PaymentMethod string
}

// ExecuteMarkBillPaid settles a bill and reduces the member's dues.
// PRE: bill exists; PaymentMethod is valid
// POST: Status Paid, PaymentDate today; member.Dues = max(0, Dues - Amount);
// both writes in one transaction
// INVARIANT: Paying a Paid bill returns it unchanged and leaves dues alone
func ExecuteMarkBillPaid(ctx context.Context, input MarkBillPaidInput, deps BillingDeps) (billing.Bill, error) {
	if !billing.IsValidPaymentMethod(input.PaymentMethod) {
		return billing.Bill{}, billing.ErrInvalidPaymentMethod
	}
	var b billing.Bill
	alreadyPaid := false

	err := deps.Atomic(ctx, func(ctx context.Context, s TxStores) error {
		var err error
		b, err = s.Bills.GetByID(ctx, input.BillID)
		if err != nil {
			return notFound(err, ErrBillNotFound)
		}
		if b.IsPaid() {
			alreadyPaid = true
			return nil
		}
		if err := b.MarkPaid(input.PaymentMethod, deps.Clock.Today()); err != nil {
			return err
		}
		b.UpdatedAt = deps.Clock.now()
		if err := s.Bills.Save(ctx, b); err != nil {
			return err
		}

		m, err := s.Members.GetByID(ctx, b.MemberID)
		if errors.Is(err, sql.ErrNoRows) {
			slog.Warn("billing_event", "event", "dues_skipped", "bill_id", b.ID, "reason", "member_deleted")
			return nil
		}
		if err != nil {
			return err
		}
		m.SettleDues(b.Amount)
		if err := s.Members.UpdateDues(ctx, m.ID, m.Dues); err != nil {
			return err
		}
		return queueReceipt(ctx, s, b, m, deps)
	})
	if err != nil {
		return billing.Bill{}, err
	}

	if alreadyPaid {
		slog.Info("billing_event", "event", "bill_already_paid", "bill_id", b.ID)
		return b, nil
	}
	slog.Info("billing_event", "event", "bill_paid", "bill_id", b.ID, "member_id", b.MemberID, "amount", b.Amount, "method", b.PaymentMethod)
	return b, nil
}

// queueReceipt adds a receipt email to the outbox in the caller's transaction.
func queueReceipt(ctx context.Context, s TxStores, b billing.Bill, m member.Member, deps BillingDeps) error {
	if deps.RenderReceipt == nil || s.Outbox == nil || !strings.Contains(m.Email, "@") {
		return nil
	}
	html, err := deps.RenderReceipt(b)
	if err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}
	req := emailAdapter.SendRequest{
		To:      []string{m.Email},
		Subject: fmt.Sprintf("Payment receipt %s", b.BillNumber),
		HTML:    html,
	}
	return enqueueEmail(ctx, s.Outbox, outbox.ActionReceiptEmail, req, deps.GenerateID, deps.Clock.now())
}

// ExecuteDeleteBill deletes a bill; an unpaid bill's amount comes off the
// member's dues in the same transaction.
// PRE: bill exists
// POST: Bill removed; dues reduced (floored at 0) if it was Pending or Overdue
func ExecuteDeleteBill(ctx context.Context, billID string, deps BillingDeps) error {
	var b billing.Bill
	err := deps.Atomic(ctx, func(ctx context.Context, s TxStores) error {
		var err error
		b, err = s.Bills.GetByID(ctx, billID)
		if err != nil {
			return notFound(err, ErrBillNotFound)
		}
		if err := s.Bills.Delete(ctx, b.ID); err != nil {
			return err
		}
		if !b.IsUnpaid() {
			return nil
		}
		m, err := s.Members.GetByID(ctx, b.MemberID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		m.SettleDues(b.Amount)
		return s.Members.UpdateDues(ctx, m.ID, m.Dues)
	})
	if err != nil {
		return err
	}

	slog.Info("billing_event", "event", "bill_deleted", "bill_id", b.ID, "member_id", b.MemberID, "was_unpaid", b.IsUnpaid())
	return nil
}

// ReconcileDuesResult reports a dues correction.
type ReconcileDuesResult struct {
	MemberID string
	Before   int64
	After    int64
}

// ExecuteReconcileDues recomputes a member's dues from their unpaid bills.
// PRE: member exists
// POST: member.Dues = Σ amount of the member's Pending and Overdue bills
func ExecuteReconcileDues(ctx context.Context, memberID string, deps BillingDeps) (ReconcileDuesResult, error) {
	var result ReconcileDuesResult
	err := deps.Atomic(ctx, func(ctx context.Context, s TxStores) error {
		m, err := s.Members.GetByID(ctx, memberID)
		if err != nil {
			return notFound(err, ErrMemberNotFound)
		}
		sum, err := s.Bills.SumUnpaidForMember(ctx, m.ID)
		if err != nil {
			return err
		}
		result = ReconcileDuesResult{MemberID: m.ID, Before: m.Dues, After: sum}
		if sum == m.Dues {
			return nil
		}
		return s.Members.UpdateDues(ctx, m.ID, sum)
	})
	if err != nil {
		return ReconcileDuesResult{}, err
	}
	if result.Before != result.After {
		slog.Warn("billing_event", "event", "dues_reconciled", "member_id", memberID, "before", result.Before, "after", result.After)
	}
	return result, nil
}
