// internal/domain/order/repository_port.go
package order

import (
	"context"
	"time"

	buyerdom "tcon/internal/domain/buyer"
	cartdom "tcon/internal/domain/cart"
)

// GuestOrder is the pre-submission record stored for an unauthenticated checkout
// (cart snapshot + guest contact info), kept separate from the finalized Order.
type GuestOrder struct {
	ID        string
	Items     []cartdom.LineItem
	Guest     buyerdom.GuestInfo
	CreatedAt time.Time
}

// Repository is a persistence port for orders.
//
// Storage recommendation (Firestore):
// - collection: orders       (docId: provider-generated via NewID)
// - collection: guest_orders (docId: provider-generated)
type Repository interface {
	// NewID returns a fresh provider-generated unique order id.
	// It must not touch the network (Firestore ids are client-generated).
	NewID() string

	// Create durably stores a finalized order. Exactly-once per checkout is the
	// caller's concern; the id is assumed fresh from NewID.
	Create(ctx context.Context, o Order) error

	// CreateGuestOrder stores the guest pre-submission record.
	CreateGuestOrder(ctx context.Context, g GuestOrder) error

	// GetByID returns a stored order, or ErrNotFound.
	GetByID(ctx context.Context, id string) (Order, error)
}
