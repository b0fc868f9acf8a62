// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidCart = errors.New("cart: invalid")
	ErrInvalidItem = errors.New("cart: invalid item")
)

// DefaultCartTTL is the inactivity window after which the cart becomes eligible for auto deletion
// (Firestore TTL should be configured on expiresAt).
const DefaultCartTTL = 7 * 24 * time.Hour

// LineItem represents one product entry in a cart.
// UnitPrice is in minor currency units and must be >= 0; Qty must be >= 1.
type LineItem struct {
	ProductID string `json:"productId" firestore:"productId"`
	Name      string `json:"name" firestore:"name"`
	UnitPrice int64  `json:"unitPrice" firestore:"unitPrice"`
	Qty       int    `json:"qty" firestore:"qty"`
}

// Cart represents "a cart document".
//   - docId = sessionId (Firestore)
//   - Items: ordered []LineItem (order is what the buyer sees)
//   - ExpiresAt: for Firestore TTL (auto deletion), refreshed on each cart mutation
type Cart struct {
	// ID is Firestore docId (= sessionId).
	ID string `json:"id" firestore:"id"`

	// Items is the ordered list of line items. Uniqueness is defined by ProductID.
	Items []LineItem `json:"items" firestore:"items"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`

	// ExpiresAt is used for Firestore TTL.
	ExpiresAt time.Time `json:"expiresAt" firestore:"expiresAt"`
}

// NewCart creates a new cart doc. id is the Firestore docId (sessionId).
// items can be nil (treated as empty).
func NewCart(id string, items []LineItem, now time.Time) (*Cart, error) {
	docID := strings.TrimSpace(id)

	c := &Cart{
		ID:        docID,
		Items:     cloneItems(items),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(DefaultCartTTL),
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Total returns sum(UnitPrice*Qty) over current items.
// Always recomputed from the item list; never patched incrementally.
func (c *Cart) Total() int64 {
	if c == nil {
		return 0
	}
	var sum int64
	for _, it := range c.Items {
		sum += it.UnitPrice * int64(it.Qty)
	}
	return sum
}

// Add appends a line item, or increases qty when ProductID already exists.
// qty must be >= 1.
func (c *Cart) Add(productID, name string, unitPrice int64, qty int, now time.Time) error {
	if c == nil {
		return ErrInvalidCart
	}

	pid := strings.TrimSpace(productID)
	if pid == "" || unitPrice < 0 || qty <= 0 {
		return ErrInvalidItem
	}

	if idx := findItemIndex(c.Items, pid); idx >= 0 {
		c.Items[idx].Qty += qty
		c.Items[idx].Name = strings.TrimSpace(name)
		c.Items[idx].UnitPrice = unitPrice
	} else {
		c.Items = append(c.Items, LineItem{
			ProductID: pid,
			Name:      strings.TrimSpace(name),
			UnitPrice: unitPrice,
			Qty:       qty,
		})
	}

	c.touch(now)
	return c.validate()
}

// SetQty sets quantity for productID. If qty <= 0, the item is removed.
// Display order of the remaining items is preserved.
func (c *Cart) SetQty(productID string, qty int, now time.Time) error {
	if c == nil {
		return ErrInvalidCart
	}

	pid := strings.TrimSpace(productID)
	if pid == "" {
		return ErrInvalidItem
	}

	idx := findItemIndex(c.Items, pid)

	if qty <= 0 {
		if idx >= 0 {
			c.Items = removeIndex(c.Items, idx)
		}
		c.touch(now)
		return c.validate()
	}

	if idx < 0 {
		return ErrInvalidItem
	}
	c.Items[idx].Qty = qty

	c.touch(now)
	return c.validate()
}

// Remove removes productID from the cart.
func (c *Cart) Remove(productID string, now time.Time) error {
	return c.SetQty(productID, 0, now)
}

// ClearItems empties the item list (the cart doc itself survives).
func (c *Cart) ClearItems(now time.Time) error {
	if c == nil {
		return ErrInvalidCart
	}
	c.Items = []LineItem{}
	c.touch(now)
	return c.validate()
}

// Snapshot returns a copy of the current items for order creation.
// The copy is detached: later cart mutations do not affect it.
func (c *Cart) Snapshot() []LineItem {
	if c == nil {
		return []LineItem{}
	}
	return cloneItems(c.Items)
}

func (c *Cart) touch(now time.Time) {
	c.UpdatedAt = now
	c.ExpiresAt = now.Add(DefaultCartTTL)
}

func (c *Cart) validate() error {
	if c == nil {
		return ErrInvalidCart
	}

	if strings.TrimSpace(c.ID) == "" {
		return ErrInvalidCart
	}

	if c.CreatedAt.IsZero() || c.UpdatedAt.IsZero() || c.ExpiresAt.IsZero() {
		return ErrInvalidCart
	}
	if c.UpdatedAt.Before(c.CreatedAt) {
		return ErrInvalidCart
	}
	if c.ExpiresAt.Before(c.UpdatedAt) {
		return ErrInvalidCart
	}

	for _, it := range c.Items {
		if strings.TrimSpace(it.ProductID) == "" || it.UnitPrice < 0 || it.Qty <= 0 {
			return ErrInvalidItem
		}
	}

	return nil
}

// ----------------------------
// Helpers
// ----------------------------

func findItemIndex(items []LineItem, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func removeIndex(items []LineItem, idx int) []LineItem {
	if idx < 0 || idx >= len(items) {
		return items
	}
	// preserve order
	return append(items[:idx], items[idx+1:]...)
}

func cloneItems(src []LineItem) []LineItem {
	if len(src) == 0 {
		return []LineItem{}
	}
	cp := make([]LineItem, len(src))
	copy(cp, src)
	return cp
}
