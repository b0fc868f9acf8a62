// internal/application/usecase/ports.go
package usecase

import (
	"context"
	"time"

	orderdom "tcon/internal/domain/order"
)

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// AuthState is one identity-state event delivered to a workflow subscription.
// SignedIn=false means the session reverted to guest; UID is empty in that case.
type AuthState struct {
	SignedIn bool
	UID      string
}

// IdentityWatcher delivers identity-state changes for a storefront session.
//
// Contract:
// - the stream is long-lived and session-scoped
// - at most one active subscription per workflow; cancel releases it
// - the current state is delivered first, then subsequent transitions
type IdentityWatcher interface {
	Subscribe(sessionID string) (<-chan AuthState, func())
}

// Notifier surfaces user-facing messages (the storefront's toast / alert channel).
// Success is transient; BlockingError requires user acknowledgement client-side.
type Notifier interface {
	Success(ctx context.Context, msg string)
	BlockingError(ctx context.Context, msg string)
}

// OrderArchiver mirrors finalized orders to secondary storage for reporting.
// Best-effort: failures are logged by the caller and never fail a checkout.
type OrderArchiver interface {
	Archive(ctx context.Context, o orderdom.Order) error
}

// ConfirmationMailer sends the buyer an order confirmation.
// Best-effort, same policy as OrderArchiver.
type ConfirmationMailer interface {
	SendOrderConfirmation(ctx context.Context, o orderdom.Order) error
}
