// internal/domain/buyer/entity.go
package buyer

import (
	"errors"
	"strings"
)

var (
	ErrInvalidUID     = errors.New("buyer: invalid uid")
	ErrInvalidProfile = errors.New("buyer: invalid profile")
	ErrInvalidGuest   = errors.New("buyer: invalid guest info")
	ErrInvalidBuyer   = errors.New("buyer: invalid buyer")
)

// Profile is the stored identity/contact record for an authenticated user.
// Firestore: collection "users", docId = uid.
type Profile struct {
	UID         string `json:"uid" firestore:"uid"`
	DisplayName string `json:"displayName" firestore:"displayName"`
	Email       string `json:"email" firestore:"email"`
	Address     string `json:"address" firestore:"address"`
	Phone       string `json:"phone" firestore:"phone"`
}

// GuestInfo is the transient contact record for an unauthenticated checkout.
// Owned entirely by the checkout workflow; created fresh per attempt and reset after submission.
type GuestInfo struct {
	Name    string `json:"name" firestore:"name"`
	Email   string `json:"email" firestore:"email"`
	Address string `json:"address" firestore:"address"`
	Phone   string `json:"phone" firestore:"phone"`
}

// Kind discriminates the Buyer variant.
type Kind string

const (
	KindAuthenticated Kind = "authenticated"
	KindGuest         Kind = "guest"
)

// Buyer is a tagged variant: exactly one of Profile or Guest is set.
// Use Authenticated() / Guest() to construct; downstream code must branch on Kind()
// rather than poking at both fields.
type Buyer struct {
	kind    Kind
	profile Profile
	guest   GuestInfo
}

// Authenticated builds the authenticated variant from a profile.
func Authenticated(p Profile) (Buyer, error) {
	p = normalizeProfile(p)
	if err := validateProfile(p); err != nil {
		return Buyer{}, err
	}
	return Buyer{kind: KindAuthenticated, profile: p}, nil
}

// Guest builds the guest variant from guest form fields.
func Guest(g GuestInfo) (Buyer, error) {
	g = normalizeGuest(g)
	if err := validateGuest(g); err != nil {
		return Buyer{}, err
	}
	return Buyer{kind: KindGuest, guest: g}, nil
}

func (b Buyer) Kind() Kind { return b.kind }

// Profile returns the authenticated profile; ok is false for the guest variant.
func (b Buyer) Profile() (Profile, bool) {
	if b.kind != KindAuthenticated {
		return Profile{}, false
	}
	return b.profile, true
}

// Guest returns the guest info; ok is false for the authenticated variant.
func (b Buyer) Guest() (GuestInfo, bool) {
	if b.kind != KindGuest {
		return GuestInfo{}, false
	}
	return b.guest, true
}

// Email returns the contact email regardless of variant (may be empty for guests).
func (b Buyer) Email() string {
	switch b.kind {
	case KindAuthenticated:
		return b.profile.Email
	case KindGuest:
		return b.guest.Email
	}
	return ""
}

// Name returns the display/contact name regardless of variant.
func (b Buyer) Name() string {
	switch b.kind {
	case KindAuthenticated:
		return b.profile.DisplayName
	case KindGuest:
		return b.guest.Name
	}
	return ""
}

func (b Buyer) Validate() error {
	switch b.kind {
	case KindAuthenticated:
		return validateProfile(b.profile)
	case KindGuest:
		return validateGuest(b.guest)
	}
	return ErrInvalidBuyer
}

// ----------------------------
// Normalization / validation
// ----------------------------

func normalizeProfile(p Profile) Profile {
	p.UID = strings.TrimSpace(p.UID)
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	p.Email = strings.TrimSpace(p.Email)
	p.Address = strings.TrimSpace(p.Address)
	p.Phone = strings.TrimSpace(p.Phone)
	return p
}

func normalizeGuest(g GuestInfo) GuestInfo {
	g.Name = strings.TrimSpace(g.Name)
	g.Email = strings.TrimSpace(g.Email)
	g.Address = strings.TrimSpace(g.Address)
	g.Phone = strings.TrimSpace(g.Phone)
	return g
}

func validateProfile(p Profile) error {
	if p.UID == "" {
		return ErrInvalidUID
	}
	if p.DisplayName == "" {
		return ErrInvalidProfile
	}
	return nil
}

func validateGuest(g GuestInfo) error {
	if g.Name == "" {
		return ErrInvalidGuest
	}
	return nil
}
