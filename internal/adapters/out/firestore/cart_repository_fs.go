// internal/adapters/out/firestore/cart_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cartdom "tcon/internal/domain/cart"
)

// CartRepositoryFS implements cart.Repository using Firestore.
//
// Collection design:
// - collection: carts
// - docId: sessionId (docId is the source of truth)
// - fields: items(array), createdAt, updatedAt, expiresAt
//
// TTL:
// - Configure Firestore TTL on "expiresAt".
type CartRepositoryFS struct {
	Client *firestore.Client
}

func NewCartRepositoryFS(client *firestore.Client) *CartRepositoryFS {
	return &CartRepositoryFS{Client: client}
}

func (r *CartRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("carts")
}

// GetBySessionID returns (nil, nil) if not found (nil policy).
func (r *CartRepositoryFS) GetBySessionID(ctx context.Context, sessionID string) (*cartdom.Cart, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cart_repository_fs: firestore client is nil")
	}

	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, errors.New("cart_repository_fs: sessionID is empty")
	}

	snap, err := r.col().Doc(sid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc cartDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}

	d := doc.toDomain()
	// docId is the source of truth (even if the doc lacks an id field)
	d.ID = sid
	return d, nil
}

// Upsert saves the cart by docId=cart.ID (= sessionId).
// Overwrites the full doc (simple & predictable).
func (r *CartRepositoryFS) Upsert(ctx context.Context, c *cartdom.Cart) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}
	if c == nil {
		return errors.New("cart_repository_fs: cart is nil")
	}

	sid := strings.TrimSpace(c.ID)
	if sid == "" {
		return errors.New("cart_repository_fs: Upsert requires cart.ID (= sessionId) as docId")
	}

	_, err := r.col().Doc(sid).Set(ctx, cartDocFromDomain(c))
	return err
}

func (r *CartRepositoryFS) DeleteBySessionID(ctx context.Context, sessionID string) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}

	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return errors.New("cart_repository_fs: sessionID is empty")
	}

	_, err := r.col().Doc(sid).Delete(ctx)
	return err
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

type cartDoc struct {
	// Items is stored as an ordered array; display order is part of the data.
	Items []cartItemDoc `firestore:"items"`

	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
	ExpiresAt time.Time `firestore:"expiresAt"`
}

type cartItemDoc struct {
	ProductID string `firestore:"productId"`
	Name      string `firestore:"name"`
	UnitPrice int64  `firestore:"unitPrice"`
	Qty       int    `firestore:"qty"`
}

func cartDocFromDomain(c *cartdom.Cart) cartDoc {
	items := make([]cartItemDoc, 0, len(c.Items))
	for _, it := range c.Items {
		pid := strings.TrimSpace(it.ProductID)
		if pid == "" || it.Qty <= 0 {
			continue
		}
		items = append(items, cartItemDoc{
			ProductID: pid,
			Name:      strings.TrimSpace(it.Name),
			UnitPrice: it.UnitPrice,
			Qty:       it.Qty,
		})
	}

	return cartDoc{
		Items:     items,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		ExpiresAt: c.ExpiresAt,
	}
}

func (d cartDoc) toDomain() *cartdom.Cart {
	items := make([]cartdom.LineItem, 0, len(d.Items))
	for _, it := range d.Items {
		pid := strings.TrimSpace(it.ProductID)
		if pid == "" || it.Qty <= 0 {
			continue
		}
		items = append(items, cartdom.LineItem{
			ProductID: pid,
			Name:      strings.TrimSpace(it.Name),
			UnitPrice: it.UnitPrice,
			Qty:       it.Qty,
		})
	}

	return &cartdom.Cart{
		// ID is always filled by the caller (docId)
		Items:     items,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}
