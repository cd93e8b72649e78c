package supplement

import (
	"errors"
	"strings"
	"time"
)

// MaxNameLength bounds product names.
const MaxNameLength = 120

// Domain errors
var (
	ErrEmptyName     = errors.New("supplement name cannot be empty")
	ErrNameTooLong   = errors.New("supplement name cannot exceed 120 characters")
	ErrNegativePrice = errors.New("price cannot be negative")
	ErrNegativeStock = errors.New("stock cannot be negative")
)

// Supplement is a product sold at the front desk.
type Supplement struct {
	ID          string
	Name        string
	Brand       string
	Category    string
	Description string
	Price       int64 // paise
	Stock       int
	Barcode     string
	ExpiryDate  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks if the Supplement has valid data.
// PRE: Supplement struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Supplement) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if len(s.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if s.Price < 0 {
		return ErrNegativePrice
	}
	if s.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// InStock reports whether at least one unit is available.
func (s *Supplement) InStock() bool {
	return s.Stock > 0
}

// IsLowStock reports whether stock is at or below threshold.
func (s *Supplement) IsLowStock(threshold int) bool {
	return s.Stock <= threshold
}

// ExpiresWithin reports whether the product expires before today+days.
// Products without an expiry date never expire.
func (s *Supplement) ExpiresWithin(today time.Time, days int) bool {
	if s.ExpiryDate.IsZero() {
		return false
	}
	return s.ExpiryDate.Before(today.AddDate(0, 0, days+1))
}
