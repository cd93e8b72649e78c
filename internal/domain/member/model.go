package member

import (
	"errors"
	"strings"
	"time"

	"gymdesk/internal/domain/membership"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Status constants. Active and Expired are derived from EndDate; Inactive is
// set by staff and survives recalculation.
const (
	StatusActive   = membership.StatusActive
	StatusInactive = "Inactive"
	StatusExpired  = membership.StatusExpired
)

// Membership types. They match the fee package catalog keys.
const (
	TypeBasic    = "basic"
	TypePremium  = "premium"
	TypeGold     = "gold"
	TypePlatinum = "platinum"
)

// ValidTypes contains all valid membership types.
var ValidTypes = []string{TypeBasic, TypePremium, TypeGold, TypePlatinum}

// Domain errors
var (
	ErrEmptyName     = errors.New("member first name cannot be empty")
	ErrInvalidEmail  = errors.New("member email must be valid")
	ErrInvalidStatus = errors.New("status must be 'Active', 'Inactive', or 'Expired'")
	ErrInvalidType   = errors.New("membership type must be one of: basic, premium, gold, platinum")
	ErrDateOrder     = errors.New("end date cannot be before start date")
	ErrNegativeDues  = errors.New("dues cannot be negative")
	ErrNotActive     = errors.New("member does not have an active membership")
)

// Member holds state for the concept.
type Member struct {
	ID               string
	AccountID        string // optional link to a login account
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	DateOfBirth      time.Time
	Gender           string
	Address          string
	City             string
	State            string
	ZipCode          string
	EmergencyContact string
	EmergencyPhone   string
	MembershipType   string
	StartDate        time.Time
	EndDate          time.Time
	Status           string
	Dues             int64 // unpaid balance in paise
	PhotoURL         string
	LastCheckIn      time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FullName joins first and last name.
func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Validate checks if the Member has valid data.
// PRE: Member struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Email must contain '@', FirstName must not be empty
func (m *Member) Validate() error {
	if strings.TrimSpace(m.FirstName) == "" {
		return ErrEmptyName
	}
	if len(m.FirstName) > MaxNameLength || len(m.LastName) > MaxNameLength {
		return errors.New("member name cannot exceed 100 characters")
	}
	if !strings.Contains(m.Email, "@") {
		return ErrInvalidEmail
	}
	if m.MembershipType != "" && !IsValidType(m.MembershipType) {
		return ErrInvalidType
	}
	if m.Status != StatusActive && m.Status != StatusInactive && m.Status != StatusExpired {
		return ErrInvalidStatus
	}
	if !m.StartDate.IsZero() && !m.EndDate.IsZero() && m.EndDate.Before(m.StartDate) {
		return ErrDateOrder
	}
	if m.Dues < 0 {
		return ErrNegativeDues
	}
	return nil
}

// EffectiveStatus derives the status as of today. Inactive members stay
// Inactive; everyone else is Active or Expired by EndDate.
// INVARIANT: Member fields are not mutated
func (m *Member) EffectiveStatus(today time.Time) string {
	if m.Status == StatusInactive {
		return StatusInactive
	}
	if m.EndDate.IsZero() {
		return m.Status
	}
	return membership.CalculateStatus(m.EndDate, today)
}

// RecalculateStatus refreshes the persisted Status from EndDate.
// PRE: today is a civil date
// POST: Status equals EffectiveStatus(today); returns true if it changed
func (m *Member) RecalculateStatus(today time.Time) bool {
	next := m.EffectiveStatus(today)
	if next == m.Status {
		return false
	}
	m.Status = next
	return true
}

// AddDues increases the unpaid balance.
// PRE: amount >= 0
// POST: Dues increased by amount
func (m *Member) AddDues(amount int64) {
	m.Dues += amount
}

// SettleDues decreases the unpaid balance, never below zero.
// PRE: amount >= 0
// POST: Dues = max(0, Dues - amount)
func (m *Member) SettleDues(amount int64) {
	m.Dues -= amount
	if m.Dues < 0 {
		m.Dues = 0
	}
}

// IsValidType reports whether t is a known membership type.
func IsValidType(t string) bool {
	for _, v := range ValidTypes {
		if v == t {
			return true
		}
	}
	return false
}
