// internal/adapters/out/firestore/order_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	buyerdom "tcon/internal/domain/buyer"
	cartdom "tcon/internal/domain/cart"
	orderdom "tcon/internal/domain/order"
)

// OrderRepositoryFS implements order.Repository using Firestore.
//
// Collection design:
// - collection: orders       (docId: client-generated via NewID)
// - collection: guest_orders (docId: client-generated)
type OrderRepositoryFS struct {
	Client *firestore.Client
}

func NewOrderRepositoryFS(client *firestore.Client) *OrderRepositoryFS {
	return &OrderRepositoryFS{Client: client}
}

func (r *OrderRepositoryFS) orders() *firestore.CollectionRef {
	return r.Client.Collection("orders")
}

func (r *OrderRepositoryFS) guestOrders() *firestore.CollectionRef {
	return r.Client.Collection("guest_orders")
}

// NewID returns a fresh Firestore doc id without touching the network.
func (r *OrderRepositoryFS) NewID() string {
	if r == nil || r.Client == nil {
		return ""
	}
	return r.orders().NewDoc().ID
}

// Create stores a finalized order. Doc(id).Create rejects a duplicate id, so a
// retried submit cannot silently overwrite an existing order.
func (r *OrderRepositoryFS) Create(ctx context.Context, o orderdom.Order) error {
	if r == nil || r.Client == nil {
		return errors.New("order_repository_fs: firestore client is nil")
	}

	id := strings.TrimSpace(o.ID)
	if id == "" {
		return orderdom.ErrInvalidID
	}

	doc, err := orderDocFromDomain(o)
	if err != nil {
		return err
	}

	_, err = r.orders().Doc(id).Create(ctx, doc)
	return err
}

// CreateGuestOrder stores the guest pre-submission record; docId is assigned here.
func (r *OrderRepositoryFS) CreateGuestOrder(ctx context.Context, g orderdom.GuestOrder) error {
	if r == nil || r.Client == nil {
		return errors.New("order_repository_fs: firestore client is nil")
	}

	ref := r.guestOrders().NewDoc()
	doc := guestOrderDoc{
		ID:        ref.ID,
		Items:     itemDocsFromDomain(g.Items),
		Guest:     guestDocFromDomain(g.Guest),
		CreatedAt: g.CreatedAt,
	}

	_, err := ref.Create(ctx, doc)
	return err
}

func (r *OrderRepositoryFS) GetByID(ctx context.Context, id string) (orderdom.Order, error) {
	if r == nil || r.Client == nil {
		return orderdom.Order{}, errors.New("order_repository_fs: firestore client is nil")
	}

	oid := strings.TrimSpace(id)
	if oid == "" {
		return orderdom.Order{}, orderdom.ErrInvalidID
	}

	snap, err := r.orders().Doc(oid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return orderdom.Order{}, orderdom.ErrNotFound
		}
		return orderdom.Order{}, err
	}

	var doc orderDoc
	if err := snap.DataTo(&doc); err != nil {
		return orderdom.Order{}, err
	}
	return doc.toDomain(oid)
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

type orderDoc struct {
	ID            string        `firestore:"id"`
	Items         []cartItemDoc `firestore:"cartItems"`
	Buyer         buyerDoc      `firestore:"buyer"`
	OrderTime     time.Time     `firestore:"orderTime"`
	Total         int64         `firestore:"total"`
	PaymentMethod string        `firestore:"paymentMethod"`
}

type guestOrderDoc struct {
	ID        string        `firestore:"id"`
	Items     []cartItemDoc `firestore:"cartItems"`
	Guest     guestInfoDoc  `firestore:"guestInfo"`
	CreatedAt time.Time     `firestore:"createdAt"`
}

// buyerDoc flattens the tagged buyer variant; kind discriminates on read.
type buyerDoc struct {
	Kind        string `firestore:"kind"`
	UID         string `firestore:"uid,omitempty"`
	DisplayName string `firestore:"displayName,omitempty"`
	Name        string `firestore:"name,omitempty"`
	Email       string `firestore:"email"`
	Address     string `firestore:"address"`
	Phone       string `firestore:"phone"`
}

type guestInfoDoc struct {
	Name    string `firestore:"name"`
	Email   string `firestore:"email"`
	Address string `firestore:"address"`
	Phone   string `firestore:"phone"`
}

func orderDocFromDomain(o orderdom.Order) (orderDoc, error) {
	b, err := buyerDocFromDomain(o.Buyer)
	if err != nil {
		return orderDoc{}, err
	}
	return orderDoc{
		ID:            o.ID,
		Items:         itemDocsFromDomain(o.Items),
		Buyer:         b,
		OrderTime:     o.OrderTime,
		Total:         o.Total,
		PaymentMethod: string(o.PaymentMethod),
	}, nil
}

func buyerDocFromDomain(b buyerdom.Buyer) (buyerDoc, error) {
	if p, ok := b.Profile(); ok {
		return buyerDoc{
			Kind:        string(buyerdom.KindAuthenticated),
			UID:         p.UID,
			DisplayName: p.DisplayName,
			Email:       p.Email,
			Address:     p.Address,
			Phone:       p.Phone,
		}, nil
	}
	if g, ok := b.Guest(); ok {
		return buyerDoc{
			Kind:    string(buyerdom.KindGuest),
			Name:    g.Name,
			Email:   g.Email,
			Address: g.Address,
			Phone:   g.Phone,
		}, nil
	}
	return buyerDoc{}, orderdom.ErrInvalidBuyer
}

func (d buyerDoc) toDomain() (buyerdom.Buyer, error) {
	switch buyerdom.Kind(d.Kind) {
	case buyerdom.KindAuthenticated:
		return buyerdom.Authenticated(buyerdom.Profile{
			UID:         d.UID,
			DisplayName: d.DisplayName,
			Email:       d.Email,
			Address:     d.Address,
			Phone:       d.Phone,
		})
	case buyerdom.KindGuest:
		return buyerdom.Guest(buyerdom.GuestInfo{
			Name:    d.Name,
			Email:   d.Email,
			Address: d.Address,
			Phone:   d.Phone,
		})
	}
	return buyerdom.Buyer{}, orderdom.ErrInvalidBuyer
}

func (d orderDoc) toDomain(docID string) (orderdom.Order, error) {
	b, err := d.Buyer.toDomain()
	if err != nil {
		return orderdom.Order{}, err
	}

	items := make([]cartdom.LineItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, cartdom.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Qty:       it.Qty,
		})
	}

	method, err := orderdom.ParsePaymentMethod(d.PaymentMethod)
	if err != nil {
		return orderdom.Order{}, err
	}

	// docId is the source of truth for the id
	return orderdom.New(docID, items, b, d.OrderTime, d.Total, method)
}

func itemDocsFromDomain(items []cartdom.LineItem) []cartItemDoc {
	out := make([]cartItemDoc, 0, len(items))
	for _, it := range items {
		out = append(out, cartItemDoc{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Qty:       it.Qty,
		})
	}
	return out
}

func guestDocFromDomain(g buyerdom.GuestInfo) guestInfoDoc {
	return guestInfoDoc{
		Name:    g.Name,
		Email:   g.Email,
		Address: g.Address,
		Phone:   g.Phone,
	}
}
