package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"gymdesk/internal/domain/billing"
	"gymdesk/internal/domain/supplement"
)

var (
	ErrSupplementNotFound = errors.New("supplement not found")
	ErrOrderNotFound      = errors.New("order not found")
)

// SupplementInput carries supplement fields. Nil fields are left unchanged on update.
type SupplementInput struct {
	Name        *string
	Brand       *string
	Category    *string
	Description *string
	Price       *int64
	Stock       *int
	Barcode     *string
	ExpiryDate  *time.Time
}

// SupplementDeps holds dependencies for the catalog orchestrators.
type SupplementDeps struct {
	SupplementStore SupplementStore
	GenerateID      func() string
	Clock           Clock
}

func (in SupplementInput) apply(s *supplement.Supplement) {
	setString(&s.Name, in.Name)
	setString(&s.Brand, in.Brand)
	setString(&s.Category, in.Category)
	setString(&s.Description, in.Description)
	setString(&s.Barcode, in.Barcode)
	if in.Price != nil {
		s.Price = *in.Price
	}
	if in.Stock != nil {
		s.Stock = *in.Stock
	}
	if in.ExpiryDate != nil {
		s.ExpiryDate = *in.ExpiryDate
	}
}

// ExecuteCreateSupplement adds a product to the catalog.
// PRE: Name non-empty; Price >= 0; Stock >= 0
// POST: Supplement saved
func ExecuteCreateSupplement(ctx context.Context, input SupplementInput, deps SupplementDeps) (supplement.Supplement, error) {
	now := deps.Clock.now()
	s := supplement.Supplement{ID: deps.GenerateID(), CreatedAt: now, UpdatedAt: now}
	input.apply(&s)
	if err := s.Validate(); err != nil {
		return supplement.Supplement{}, err
	}
	if err := deps.SupplementStore.Save(ctx, s); err != nil {
		return supplement.Supplement{}, err
	}
	slog.Info("supplement_event", "event", "supplement_created", "supplement_id", s.ID, "stock", s.Stock)
	return s, nil
}

// ExecuteUpdateSupplement applies a partial update.
// PRE: supplement exists
// POST: Changed fields persisted; Price and Stock stay non-negative
func ExecuteUpdateSupplement(ctx context.Context, id string, input SupplementInput, deps SupplementDeps) (supplement.Supplement, error) {
	s, err := deps.SupplementStore.GetByID(ctx, id)
	if err != nil {
		return supplement.Supplement{}, notFound(err, ErrSupplementNotFound)
	}
	input.apply(&s)
	s.UpdatedAt = deps.Clock.now()
	if err := s.Validate(); err != nil {
		return supplement.Supplement{}, err
	}
	if err := deps.SupplementStore.Save(ctx, s); err != nil {
		return supplement.Supplement{}, err
	}
	slog.Info("supplement_event", "event", "supplement_updated", "supplement_id", s.ID, "stock", s.Stock)
	return s, nil
}

// ExecuteDeleteSupplement removes a product. Past orders keep its name and price.
func ExecuteDeleteSupplement(ctx context.Context, id string, deps SupplementDeps) error {
	if _, err := deps.SupplementStore.GetByID(ctx, id); err != nil {
		return notFound(err, ErrSupplementNotFound)
	}
	if err := deps.SupplementStore.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("supplement_event", "event", "supplement_deleted", "supplement_id", id)
	return nil
}

// OrderLine is one requested product and quantity.
type OrderLine struct {
	SupplementID string
	Quantity     int
}

// CreateOrderInput carries a front-desk sale.
type CreateOrderInput struct {
	MemberID      string // empty for walk-in sales
	PlacedBy      string // account placing a self-service order
	Lines         []OrderLine
	PaymentMethod string
}

// OrderDeps holds dependencies for the order orchestrators.
type OrderDeps struct {
	Atomic      AtomicFunc
	GenerateID  func() string
	Clock       Clock
	StockPolicy string // supplement.PolicyClamp or supplement.PolicyReject
}

// ExecuteCreateOrder records a sale and takes the items out of stock.
// PRE: at least one line; every quantity >= 1; every supplement exists
// POST: Order saved Completed with names and prices captured now; stock of
// every item reduced; all writes in one transaction. Under the clamp policy
// stock stops at 0 and the shortfall is logged; under the reject policy a
// shortfall fails the order and nothing is written
func ExecuteCreateOrder(ctx context.Context, input CreateOrderInput, deps OrderDeps) (supplement.Order, error) {
	if len(input.Lines) == 0 {
		return supplement.Order{}, supplement.ErrNoItems
	}
	if input.PaymentMethod != "" && !billing.IsValidPaymentMethod(input.PaymentMethod) {
		return supplement.Order{}, billing.ErrInvalidPaymentMethod
	}
	policy := deps.StockPolicy
	if policy == "" {
		policy = supplement.PolicyClamp
	}
	if !supplement.ValidPolicy(policy) {
		return supplement.Order{}, supplement.ErrInvalidPolicy
	}

	now := deps.Clock.now()
	o := supplement.Order{
		ID:            deps.GenerateID(),
		MemberID:      input.MemberID,
		PlacedBy:      input.PlacedBy,
		Status:        supplement.OrderCompleted,
		OrderDate:     deps.Clock.Today(),
		PaymentMethod: input.PaymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := deps.Atomic(ctx, func(ctx context.Context, s TxStores) error {
		if o.MemberID != "" {
			m, err := s.Members.GetByID(ctx, o.MemberID)
			if err != nil {
				return notFound(err, ErrMemberNotFound)
			}
			o.MemberName = m.FullName()
		}

		loaded := map[string]*supplement.Supplement{}
		var touched []string
		for _, line := range input.Lines {
			p, ok := loaded[line.SupplementID]
			if !ok {
				got, err := s.Supplements.GetByID(ctx, line.SupplementID)
				if err != nil {
					return notFound(err, ErrSupplementNotFound)
				}
				p = &got
				loaded[line.SupplementID] = p
				touched = append(touched, line.SupplementID)
			}
			shortfall, err := p.ApplyStock(line.Quantity, policy)
			if err != nil {
				return err
			}
			if shortfall > 0 {
				slog.Warn("supplement_event", "event", "stock_shortfall", "order_id", o.ID, "supplement_id", p.ID, "shortfall", shortfall)
			}
			o.Items = append(o.Items, supplement.OrderItem{
				SupplementID: p.ID,
				Name:         p.Name,
				Quantity:     line.Quantity,
				Fulfilled:    line.Quantity - shortfall,
				UnitPrice:    p.Price,
			})
		}
		o.ComputeTotal()
		if err := o.Validate(); err != nil {
			return err
		}
		for _, id := range touched {
			if err := s.Supplements.UpdateStock(ctx, id, loaded[id].Stock, now); err != nil {
				return err
			}
		}
		return s.Orders.Save(ctx, o)
	})
	if err != nil {
		return supplement.Order{}, err
	}

	slog.Info("supplement_event", "event", "order_created", "order_id", o.ID, "member_id", o.MemberID, "items", len(o.Items), "total", o.TotalAmount)
	return o, nil
}

// ExecuteCancelOrder cancels a completed order and puts its items back in stock.
// PRE: order exists and is Completed
// POST: Status Cancelled; the units each item actually took are restored for
// items whose supplement still exists
func ExecuteCancelOrder(ctx context.Context, orderID string, deps OrderDeps) (supplement.Order, error) {
	var o supplement.Order
	now := deps.Clock.now()
	err := deps.Atomic(ctx, func(ctx context.Context, s TxStores) error {
		var err error
		o, err = s.Orders.GetByID(ctx, orderID)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		if err := o.Cancel(); err != nil {
			return err
		}
		for _, it := range o.Items {
			p, err := s.Supplements.GetByID(ctx, it.SupplementID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue
				}
				return err
			}
			p.RestoreStock(it.Fulfilled)
			if err := s.Supplements.UpdateStock(ctx, p.ID, p.Stock, now); err != nil {
				return err
			}
		}
		o.UpdatedAt = now
		return s.Orders.Save(ctx, o)
	})
	if err != nil {
		return supplement.Order{}, err
	}
	slog.Info("supplement_event", "event", "order_cancelled", "order_id", o.ID)
	return o, nil
}

