// internal/domain/cart/repository_port.go
package cart

import "context"

// Repository is a persistence port for Cart.
//
// Storage recommendation (Firestore):
// - collection: carts
// - docId: sessionId
// - fields: items(array), createdAt, updatedAt, expiresAt
//
// TTL:
// - Configure Firestore TTL on the "expiresAt" field.
// - expiresAt is refreshed on each cart mutation (handled by the entity via touch()).
type Repository interface {
	// GetBySessionID returns the cart for the session, or (nil, nil) when absent.
	GetBySessionID(ctx context.Context, sessionID string) (*Cart, error)

	// Upsert saves the cart (create or update).
	Upsert(ctx context.Context, c *Cart) error

	// DeleteBySessionID deletes the cart for the session (e.g. after a confirmed order).
	DeleteBySessionID(ctx context.Context, sessionID string) error
}
