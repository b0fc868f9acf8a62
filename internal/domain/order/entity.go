// internal/domain/order/entity.go
package order

import (
	"errors"
	"strings"
	"time"

	buyerdom "tcon/internal/domain/buyer"
	cartdom "tcon/internal/domain/cart"
)

// ========================================
// Payment methods
// ========================================

// PaymentMethod is drawn from a fixed allowed set.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard:
		return true
	}
	return false
}

// ParsePaymentMethod normalizes a raw string into a PaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", ErrInvalidPaymentMethod
	}
	return m, nil
}

// ========================================
// Errors
// ========================================

var (
	ErrInvalidID            = errors.New("order: invalid id")
	ErrInvalidItems         = errors.New("order: invalid items")
	ErrInvalidItemSnapshot  = errors.New("order: invalid item snapshot")
	ErrInvalidBuyer         = errors.New("order: invalid buyer")
	ErrInvalidOrderTime     = errors.New("order: invalid orderTime")
	ErrInvalidTotal         = errors.New("order: invalid total")
	ErrInvalidPaymentMethod = errors.New("order: invalid payment method")

	ErrNotFound = errors.New("order: not found")
)

// ========================================
// Entity
// ========================================

// Order is the immutable persisted record of a completed checkout.
// Items is a detached snapshot of the cart at submission time; Total must equal
// the snapshot sum at construction. Orders are created once and never mutated.
type Order struct {
	ID            string
	Items         []cartdom.LineItem
	Buyer         buyerdom.Buyer
	OrderTime     time.Time
	Total         int64
	PaymentMethod PaymentMethod
}

// New builds a validated Order. items must be a non-empty snapshot.
func New(
	id string,
	items []cartdom.LineItem,
	b buyerdom.Buyer,
	orderTime time.Time,
	total int64,
	method PaymentMethod,
) (Order, error) {
	o := Order{
		ID:            strings.TrimSpace(id),
		Items:         snapshotItems(items),
		Buyer:         b,
		OrderTime:     orderTime.UTC(),
		Total:         total,
		PaymentMethod: method,
	}
	if err := o.validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// ========================================
// Validation
// ========================================

func (o Order) validate() error {
	if o.ID == "" {
		return ErrInvalidID
	}
	if err := validateItems(o.Items); err != nil {
		return err
	}
	if err := o.Buyer.Validate(); err != nil {
		return ErrInvalidBuyer
	}
	if o.OrderTime.IsZero() {
		return ErrInvalidOrderTime
	}
	if o.Total < 0 || o.Total != sumItems(o.Items) {
		return ErrInvalidTotal
	}
	if !o.PaymentMethod.IsValid() {
		return ErrInvalidPaymentMethod
	}
	return nil
}

func validateItems(items []cartdom.LineItem) error {
	if len(items) == 0 {
		return ErrInvalidItems
	}
	for _, it := range items {
		if strings.TrimSpace(it.ProductID) == "" {
			return ErrInvalidItemSnapshot
		}
		if it.Qty <= 0 || it.UnitPrice < 0 {
			return ErrInvalidItemSnapshot
		}
	}
	return nil
}

// ========================================
// Helpers
// ========================================

func sumItems(items []cartdom.LineItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.UnitPrice * int64(it.Qty)
	}
	return sum
}

func snapshotItems(items []cartdom.LineItem) []cartdom.LineItem {
	out := make([]cartdom.LineItem, len(items))
	copy(out, items)
	return out
}
