package supplement

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Order statuses
const (
	OrderCompleted = "Completed"
	OrderCancelled = "Cancelled"
)

// Stock policies for orders that exceed available stock.
const (
	// PolicyClamp accepts the order and floors stock at zero.
	PolicyClamp = "clamp"
	// PolicyReject refuses the whole order.
	PolicyReject = "reject"
)

// Order errors
var (
	ErrNoItems             = errors.New("order must contain at least one item")
	ErrNonPositiveQuantity = errors.New("quantity must be at least 1")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidPolicy       = errors.New("stock policy must be 'clamp' or 'reject'")
	ErrOrderCancelled      = errors.New("order is already cancelled")
)

// OrderItem is one line of an order. Name and UnitPrice are captured at order
// time. Fulfilled is the number of units taken out of stock, which is below
// Quantity when the clamp policy covered a shortfall.
type OrderItem struct {
	SupplementID string `json:"supplementId"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	Fulfilled    int    `json:"fulfilled"`
	UnitPrice    int64  `json:"unitPrice"`
}

// Subtotal is Quantity × UnitPrice.
func (i OrderItem) Subtotal() int64 {
	return int64(i.Quantity) * i.UnitPrice
}

// Order is a sale of one or more supplements to a member.
type Order struct {
	ID            string
	MemberID      string
	MemberName    string
	PlacedBy      string // account id of a self-service customer; empty for desk sales
	Items         []OrderItem
	TotalAmount   int64
	Status        string
	OrderDate     time.Time
	PaymentMethod string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks if the Order has valid data.
// PRE: Order struct is populated
// POST: Returns nil if valid, error otherwise
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrNoItems
	}
	for _, it := range o.Items {
		if strings.TrimSpace(it.SupplementID) == "" {
			return errors.New("order item needs a supplement")
		}
		if it.Quantity < 1 {
			return ErrNonPositiveQuantity
		}
		if it.Fulfilled < 0 || it.Fulfilled > it.Quantity {
			return errors.New("fulfilled units must be between 0 and the quantity")
		}
		if it.UnitPrice < 0 {
			return ErrNegativePrice
		}
	}
	if o.Status != OrderCompleted && o.Status != OrderCancelled {
		return errors.New("order status must be 'Completed' or 'Cancelled'")
	}
	return nil
}

// ComputeTotal sums the item subtotals into TotalAmount.
// POST: TotalAmount = Σ Quantity × UnitPrice
func (o *Order) ComputeTotal() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.Subtotal()
	}
	o.TotalAmount = total
	return total
}

// Cancel marks the order Cancelled.
func (o *Order) Cancel() error {
	if o.Status == OrderCancelled {
		return ErrOrderCancelled
	}
	o.Status = OrderCancelled
	return nil
}

// ValidPolicy reports whether p is a known stock policy.
func ValidPolicy(p string) bool {
	return p == PolicyClamp || p == PolicyReject
}

// ApplyStock decrements stock for an ordered quantity under policy.
// PRE: qty >= 1, policy is valid
// POST: with PolicyClamp Stock = max(0, Stock-qty) and shortfall is the
// number of units that could not be covered; with PolicyReject an
// insufficient stock leaves Stock unchanged and returns ErrInsufficientStock
func (s *Supplement) ApplyStock(qty int, policy string) (shortfall int, err error) {
	if qty < 1 {
		return 0, ErrNonPositiveQuantity
	}
	if qty > s.Stock {
		if policy == PolicyReject {
			return 0, fmt.Errorf("%w: %s has %d, ordered %d", ErrInsufficientStock, s.Name, s.Stock, qty)
		}
		shortfall = qty - s.Stock
		s.Stock = 0
		return shortfall, nil
	}
	s.Stock -= qty
	return 0, nil
}

// RestoreStock adds units back, used when an order is cancelled.
func (s *Supplement) RestoreStock(qty int) {
	if qty > 0 {
		s.Stock += qty
	}
}
