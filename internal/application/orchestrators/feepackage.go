package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gymdesk/internal/domain/feepackage"
)

var ErrPackageNotFound = errors.New("fee package not found")

// AssignPackageInput carries a package assignment.
type AssignPackageInput struct {
	MemberID    string
	PackageType string
	Amount      int64 // 0 takes the plan default
	StartDate   time.Time
}

// PackageDeps holds dependencies for the package orchestrators.
type PackageDeps struct {
	Atomic     AtomicFunc
	GenerateID func() string
	Clock      Clock
}

// ExecuteAssignPackage records a package and moves the member onto it.
// PRE: member exists; PackageType is in the catalog; StartDate set
// POST: Package saved; member MembershipType, StartDate, EndDate and Status
// overwritten from the package; both writes in one transaction
func ExecuteAssignPackage(ctx context.Context, input AssignPackageInput, deps PackageDeps) (feepackage.FeePackage, error) {
	p, err := feepackage.New(input.MemberID, input.PackageType, input.Amount, input.StartDate, deps.Clock.Today())
	if err != nil {
		return feepackage.FeePackage{}, err
	}
	now := deps.Clock.now()
	p.ID = deps.GenerateID()
	p.CreatedAt = now
	p.UpdatedAt = now

	err = deps.Atomic(ctx, func(ctx context.Context, s TxStores) error {
		m, err := s.Members.GetByID(ctx, p.MemberID)
		if err != nil {
			return notFound(err, ErrMemberNotFound)
		}
		p.MemberName = m.FullName()
		if err := s.Packages.Save(ctx, p); err != nil {
			return err
		}

		m.MembershipType = p.PackageType
		m.StartDate = p.StartDate
		m.EndDate = p.EndDate
		m.Status = p.Status
		m.UpdatedAt = now
		if err := m.Validate(); err != nil {
			return err
		}
		return s.Members.Save(ctx, m)
	})
	if err != nil {
		return feepackage.FeePackage{}, err
	}

	slog.Info("package_event", "event", "package_assigned", "package_id", p.ID, "member_id", p.MemberID, "type", p.PackageType, "end_date", p.EndDate.Format("2006-01-02"), "status", p.Status)
	return p, nil
}

// ExecuteCancelPackage marks a package Cancelled. The member keeps their dates.
// PRE: package exists and is not already Cancelled
// POST: Status Cancelled
func ExecuteCancelPackage(ctx context.Context, packageID string, deps PackageDeps) (feepackage.FeePackage, error) {
	var p feepackage.FeePackage
	err := deps.Atomic(ctx, func(ctx context.Context, s TxStores) error {
		var err error
		p, err = s.Packages.GetByID(ctx, packageID)
		if err != nil {
			return notFound(err, ErrPackageNotFound)
		}
		if err := p.Cancel(); err != nil {
			return err
		}
		p.UpdatedAt = deps.Clock.now()
		return s.Packages.Save(ctx, p)
	})
	if err != nil {
		return feepackage.FeePackage{}, err
	}
	slog.Info("package_event", "event", "package_cancelled", "package_id", p.ID, "member_id", p.MemberID)
	return p, nil
}
