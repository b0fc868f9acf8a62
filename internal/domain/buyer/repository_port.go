// internal/domain/buyer/repository_port.go
package buyer

import (
	"context"
	"errors"
)

// Repository is a persistence port for buyer profiles.
//
// Storage recommendation (Firestore):
// - collection: users
// - docId: uid (Firebase Auth uid is the source of truth)
type Repository interface {
	// GetByUID returns the profile for uid, or (nil, ErrNotFound).
	GetByUID(ctx context.Context, uid string) (*Profile, error)

	// Update overwrites the stored profile for uid.
	Update(ctx context.Context, uid string, p Profile) error
}

var ErrNotFound = errors.New("buyer: not found")
