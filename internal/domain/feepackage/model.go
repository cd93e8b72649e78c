package feepackage

import (
	"errors"
	"sort"
	"strings"
	"time"

	"gymdesk/internal/domain/membership"
)

// Package statuses
const (
	StatusActive    = membership.StatusActive
	StatusExpired   = membership.StatusExpired
	StatusCancelled = "Cancelled"
)

// Domain errors
var (
	ErrUnknownPackage   = errors.New("package type must be one of: basic, premium, gold, platinum")
	ErrEmptyMemberID    = errors.New("member ID is required")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrMissingStartDate = errors.New("start date is required")
	ErrInvalidStatus    = errors.New("status must be 'Active', 'Expired', or 'Cancelled'")
	ErrAlreadyCancelled = errors.New("package is already cancelled")
)

// Plan is a catalog entry.
type Plan struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	Months        int    `json:"months"`
	DefaultAmount int64  `json:"defaultAmount"` // paise
}

// Catalog is the static plan table keyed by package type.
var Catalog = map[string]Plan{
	"basic":    {Type: "basic", Name: "Basic Monthly", Months: 1, DefaultAmount: 150000},
	"premium":  {Type: "premium", Name: "Premium Quarterly", Months: 3, DefaultAmount: 400000},
	"gold":     {Type: "gold", Name: "Gold Half-Yearly", Months: 6, DefaultAmount: 750000},
	"platinum": {Type: "platinum", Name: "Platinum Annual", Months: 12, DefaultAmount: 1400000},
}

// LookupPlan resolves a package type to its catalog entry.
// PRE: packageType is any string
// POST: Returns the plan or ErrUnknownPackage
func LookupPlan(packageType string) (Plan, error) {
	p, ok := Catalog[strings.ToLower(strings.TrimSpace(packageType))]
	if !ok {
		return Plan{}, ErrUnknownPackage
	}
	return p, nil
}

// Plans returns the catalog ordered by duration.
func Plans() []Plan {
	out := make([]Plan, 0, len(Catalog))
	for _, p := range Catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Months < out[j].Months })
	return out
}

// FeePackage is a plan assigned to a member for a fixed window.
type FeePackage struct {
	ID          string
	MemberID    string
	MemberName  string
	PackageType string
	PackageName string
	Amount      int64
	Duration    int // months
	StartDate   time.Time
	EndDate     time.Time
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New builds a package from the catalog. A zero amount takes the plan default.
// PRE: start is a civil date, today is a civil date
// POST: EndDate = start + plan months (clamped), Status derived from EndDate
func New(memberID, packageType string, amount int64, start, today time.Time) (FeePackage, error) {
	plan, err := LookupPlan(packageType)
	if err != nil {
		return FeePackage{}, err
	}
	if start.IsZero() {
		return FeePackage{}, ErrMissingStartDate
	}
	if amount < 0 {
		return FeePackage{}, ErrNegativeAmount
	}
	if amount == 0 {
		amount = plan.DefaultAmount
	}
	end, err := membership.CalculateEndDate(start, plan.Months)
	if err != nil {
		return FeePackage{}, err
	}
	p := FeePackage{
		MemberID:    memberID,
		PackageType: plan.Type,
		PackageName: plan.Name,
		Amount:      amount,
		Duration:    plan.Months,
		StartDate:   start,
		EndDate:     end,
		Status:      membership.CalculateStatus(end, today),
	}
	return p, p.Validate()
}

// Validate checks if the FeePackage has valid data.
// PRE: FeePackage struct is populated
// POST: Returns nil if valid, error otherwise
func (p *FeePackage) Validate() error {
	if strings.TrimSpace(p.MemberID) == "" {
		return ErrEmptyMemberID
	}
	if _, ok := Catalog[p.PackageType]; !ok {
		return ErrUnknownPackage
	}
	if p.Amount < 0 {
		return ErrNegativeAmount
	}
	if p.StartDate.IsZero() {
		return ErrMissingStartDate
	}
	if p.Status != StatusActive && p.Status != StatusExpired && p.Status != StatusCancelled {
		return ErrInvalidStatus
	}
	return nil
}

// Cancel marks the package Cancelled.
// POST: Status is Cancelled; ErrAlreadyCancelled if it already was
func (p *FeePackage) Cancel() error {
	if p.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	p.Status = StatusCancelled
	return nil
}

// RecalculateStatus refreshes Active/Expired from EndDate. Cancelled is final.
// POST: returns true if Status changed
func (p *FeePackage) RecalculateStatus(today time.Time) bool {
	if p.Status == StatusCancelled {
		return false
	}
	next := membership.CalculateStatus(p.EndDate, today)
	if next == p.Status {
		return false
	}
	p.Status = next
	return true
}
