// internal/adapters/out/firestore/buyer_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	buyerdom "tcon/internal/domain/buyer"
)

// BuyerRepositoryFS implements buyer.Repository using Firestore.
//
// Collection design:
// - collection: users
// - docId: uid (Firebase Auth uid)
type BuyerRepositoryFS struct {
	Client *firestore.Client
}

func NewBuyerRepositoryFS(client *firestore.Client) *BuyerRepositoryFS {
	return &BuyerRepositoryFS{Client: client}
}

func (r *BuyerRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("users")
}

func (r *BuyerRepositoryFS) GetByUID(ctx context.Context, uid string) (*buyerdom.Profile, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("buyer_repository_fs: firestore client is nil")
	}

	id := strings.TrimSpace(uid)
	if id == "" {
		return nil, buyerdom.ErrInvalidUID
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, buyerdom.ErrNotFound
		}
		return nil, err
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}

	p := doc.toDomain()
	// docId is the source of truth
	p.UID = id
	return &p, nil
}

// Update overwrites the stored profile for uid (full doc set, simple & predictable).
func (r *BuyerRepositoryFS) Update(ctx context.Context, uid string, p buyerdom.Profile) error {
	if r == nil || r.Client == nil {
		return errors.New("buyer_repository_fs: firestore client is nil")
	}

	id := strings.TrimSpace(uid)
	if id == "" {
		return buyerdom.ErrInvalidUID
	}

	_, err := r.col().Doc(id).Set(ctx, profileDocFromDomain(id, p))
	return err
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

type profileDoc struct {
	UID         string `firestore:"uid"`
	DisplayName string `firestore:"displayName"`
	Email       string `firestore:"email"`
	Address     string `firestore:"address"`
	Phone       string `firestore:"phone"`
}

func profileDocFromDomain(uid string, p buyerdom.Profile) profileDoc {
	return profileDoc{
		UID:         uid,
		DisplayName: strings.TrimSpace(p.DisplayName),
		Email:       strings.TrimSpace(p.Email),
		Address:     strings.TrimSpace(p.Address),
		Phone:       strings.TrimSpace(p.Phone),
	}
}

func (d profileDoc) toDomain() buyerdom.Profile {
	return buyerdom.Profile{
		UID:         d.UID,
		DisplayName: d.DisplayName,
		Email:       d.Email,
		Address:     d.Address,
		Phone:       d.Phone,
	}
}
