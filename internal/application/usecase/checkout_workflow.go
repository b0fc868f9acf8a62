// internal/application/usecase/checkout_workflow.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	buyerdom "tcon/internal/domain/buyer"
	cartdom "tcon/internal/domain/cart"
	orderdom "tcon/internal/domain/order"
)

var (
	ErrCheckoutInvalidArgument = errors.New("checkout_workflow: invalid argument")
	ErrNotReady                = errors.New("checkout_workflow: cart empty or payment method not accepted")
	ErrCheckoutInFlight        = errors.New("checkout_workflow: checkout already in flight")
	ErrCartBusy                = errors.New("checkout_workflow: cart mutation in progress")
	ErrNotActivated            = errors.New("checkout_workflow: not activated")

	// Failure taxonomy. Each is recovered locally (blocking user message) and
	// never fatal: the workflow stays usable for a retry.
	ErrProfileUpdateFailed  = errors.New("checkout_workflow: profile update failed")
	ErrGuestOrderSaveFailed = errors.New("checkout_workflow: guest order save failed")
	ErrOrderSaveFailed      = errors.New("checkout_workflow: order save failed")
)

// DefaultCallTimeout bounds each persistence/identity call made by the workflow.
const DefaultCallTimeout = 15 * time.Second

// GuestForm holds the buyer-info form fields. The same form serves both signed-in
// edits (mapped onto the profile at checkout) and guest checkout.
type GuestForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (f GuestForm) normalized() GuestForm {
	return GuestForm{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Address: strings.TrimSpace(f.Address),
		Phone:   strings.TrimSpace(f.Phone),
	}
}

// CheckoutWorkflow orchestrates one storefront session's checkout:
// cart state, buyer identity, readiness validation, order submission, reset.
//
// Concurrency: all state is guarded by mu. Cart mutations are rejected with
// ErrCheckoutInFlight while a checkout is running, and a checkout is rejected
// with ErrCartBusy while a mutation's repository round-trip is running, so the
// snapshot taken at order build time cannot race with a concurrent
// clear/remove in either direction.
//
// Cart-clear policy: the cart is cleared only after the order save is confirmed.
// A failed save keeps the cart intact so the buyer can retry.
type CheckoutWorkflow struct {
	mu sync.Mutex

	sessionID string

	carts    cartdom.Repository
	buyers   buyerdom.Repository
	orders   orderdom.Repository
	identity IdentityWatcher
	notifier Notifier
	clock    Clock

	// optional post-success sinks (best-effort)
	archiver OrderArchiver
	mailer   ConfirmationMailer

	callTimeout time.Duration

	// session state
	items   []cartdom.LineItem
	total   int64
	profile *buyerdom.Profile // non-nil iff signed in with a resolved profile
	form    GuestForm
	method  orderdom.PaymentMethod

	inFlight  bool
	mutating  int
	activated bool

	unsubscribe func()
	loopDone    chan struct{}
}

// WorkflowDeps bundles the required collaborators.
type WorkflowDeps struct {
	Carts    cartdom.Repository
	Buyers   buyerdom.Repository
	Orders   orderdom.Repository
	Identity IdentityWatcher
	Notifier Notifier

	// optional
	Clock       Clock
	Archiver    OrderArchiver
	Mailer      ConfirmationMailer
	CallTimeout time.Duration
}

func NewCheckoutWorkflow(sessionID string, deps WorkflowDeps) (*CheckoutWorkflow, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, ErrCheckoutInvalidArgument
	}
	if deps.Carts == nil || deps.Buyers == nil || deps.Orders == nil || deps.Identity == nil || deps.Notifier == nil {
		return nil, ErrCheckoutInvalidArgument
	}

	clock := deps.Clock
	if clock == nil {
		clock = systemClock{}
	}
	timeout := deps.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	return &CheckoutWorkflow{
		sessionID:   sid,
		carts:       deps.Carts,
		buyers:      deps.Buyers,
		orders:      deps.Orders,
		identity:    deps.Identity,
		notifier:    deps.Notifier,
		clock:       clock,
		archiver:    deps.Archiver,
		mailer:      deps.Mailer,
		callTimeout: timeout,
		items:       []cartdom.LineItem{},
	}, nil
}

// ========================================
// Lifecycle
// ========================================

// Activate loads current cart items, computes the total, and subscribes to
// identity-state changes. Re-activation cancels the previous subscription
// first, so there is never more than one active subscription per workflow.
func (w *CheckoutWorkflow) Activate(ctx context.Context) error {
	if w == nil {
		return ErrCheckoutInvalidArgument
	}

	cctx, cancel := w.callCtx(ctx)
	c, err := w.carts.GetBySessionID(cctx, w.sessionID)
	cancel()
	if err != nil {
		return fmt.Errorf("checkout_workflow: load cart: %w", err)
	}

	w.mu.Lock()
	if w.inFlight {
		// do not overwrite the snapshot a running checkout is built on
		w.mu.Unlock()
		return ErrCheckoutInFlight
	}
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
	prevDone := w.loopDone

	if c != nil {
		w.items = c.Snapshot()
		w.total = c.Total()
	} else {
		w.items = []cartdom.LineItem{}
		w.total = 0
	}

	events, cancelSub := w.identity.Subscribe(w.sessionID)
	w.unsubscribe = cancelSub
	done := make(chan struct{})
	w.loopDone = done
	w.activated = true
	w.mu.Unlock()

	// wait out the previous event loop before starting a new one
	if prevDone != nil {
		<-prevDone
	}

	go w.eventLoop(events, done)

	log.Printf("[checkout] activated session=%s items=%d total=%d", w.sessionID, len(w.items), w.total)
	return nil
}

// Close cancels the identity subscription and waits for the event loop to stop.
func (w *CheckoutWorkflow) Close() {
	if w == nil {
		return
	}
	w.mu.Lock()
	unsub := w.unsubscribe
	done := w.loopDone
	w.unsubscribe = nil
	w.loopDone = nil
	w.activated = false
	w.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if done != nil {
		<-done
	}
}

func (w *CheckoutWorkflow) eventLoop(events <-chan AuthState, done chan struct{}) {
	defer close(done)
	for st := range events {
		w.onAuthState(st)
	}
}

// onAuthState reacts to one identity transition. On sign-in the profile is
// fetched and the form is pre-populated from it (the same form widgets serve
// both flows); on sign-out the session reverts to guest.
func (w *CheckoutWorkflow) onAuthState(st AuthState) {
	if !st.SignedIn {
		w.mu.Lock()
		w.profile = nil
		w.mu.Unlock()
		log.Printf("[checkout] session=%s signed out", w.sessionID)
		return
	}

	uid := strings.TrimSpace(st.UID)
	if uid == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.callTimeout)
	p, err := w.buyers.GetByUID(ctx, uid)
	cancel()
	if err != nil {
		// No stored profile yet -> checkout proceeds on the guest branch,
		// same as an unresolved userInfo in the storefront UI.
		if !errors.Is(err, buyerdom.ErrNotFound) {
			log.Printf("[checkout] WARN: session=%s profile fetch failed uid=%s: %v", w.sessionID, uid, err)
		}
		w.mu.Lock()
		w.profile = nil
		w.mu.Unlock()
		return
	}

	w.mu.Lock()
	w.profile = p
	w.form = GuestForm{
		Name:    p.DisplayName,
		Email:   p.Email,
		Address: p.Address,
		Phone:   p.Phone,
	}
	w.mu.Unlock()
	log.Printf("[checkout] session=%s signed in uid=%s profile loaded", w.sessionID, uid)
}

// ========================================
// Form / state accessors
// ========================================

func (w *CheckoutWorkflow) SetGuestForm(f GuestForm) {
	w.mu.Lock()
	w.form = f.normalized()
	w.mu.Unlock()
}

func (w *CheckoutWorkflow) SetPaymentMethod(raw string) error {
	m, err := orderdom.ParsePaymentMethod(raw)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.method = m
	w.mu.Unlock()
	return nil
}

func (w *CheckoutWorkflow) GuestForm() GuestForm {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

func (w *CheckoutWorkflow) PaymentMethod() orderdom.PaymentMethod {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.method
}

// Items returns a copy of the current line items.
func (w *CheckoutWorkflow) Items() []cartdom.LineItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]cartdom.LineItem, len(w.items))
	copy(out, w.items)
	return out
}

func (w *CheckoutWorkflow) Total() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.total
}

func (w *CheckoutWorkflow) SignedIn() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.profile != nil
}

// CanCheckout is true iff the cart is non-empty and the selected payment
// method is in the accepted set.
func (w *CheckoutWorkflow) CanCheckout() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items) > 0 && w.method.IsValid()
}

// ========================================
// Cart mutations
// ========================================

// AddItem adds qty of a product to the cart and recomputes the total.
func (w *CheckoutWorkflow) AddItem(ctx context.Context, productID, name string, unitPrice int64, qty int) error {
	return w.mutateCart(ctx, func(c *cartdom.Cart, now time.Time) error {
		return c.Add(productID, name, unitPrice, qty, now)
	})
}

// UpdateQuantity sets the quantity for a product and recomputes the total.
func (w *CheckoutWorkflow) UpdateQuantity(ctx context.Context, productID string, qty int) error {
	return w.mutateCart(ctx, func(c *cartdom.Cart, now time.Time) error {
		return c.SetQty(productID, qty, now)
	})
}

// RemoveItem removes a product from the cart and recomputes the total.
func (w *CheckoutWorkflow) RemoveItem(ctx context.Context, productID string) error {
	return w.mutateCart(ctx, func(c *cartdom.Cart, now time.Time) error {
		return c.Remove(productID, now)
	})
}

// ClearCart empties the cart and resets the local total.
func (w *CheckoutWorkflow) ClearCart(ctx context.Context) error {
	return w.mutateCart(ctx, func(c *cartdom.Cart, now time.Time) error {
		return c.ClearItems(now)
	})
}

// mutateCart applies fn to the stored cart, persists it, then refreshes the
// local mirror (items + recomputed total). Rejected while a checkout is in
// flight. The mutating count is held across the repository round-trip so a
// checkout cannot start between the in-flight check and the final write.
func (w *CheckoutWorkflow) mutateCart(ctx context.Context, fn func(c *cartdom.Cart, now time.Time) error) error {
	if w == nil {
		return ErrCheckoutInvalidArgument
	}

	w.mu.Lock()
	if w.inFlight {
		w.mu.Unlock()
		return ErrCheckoutInFlight
	}
	w.mutating++
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.mutating--
		w.mu.Unlock()
	}()

	now := w.clock.Now()

	cctx, cancel := w.callCtx(ctx)
	defer cancel()

	c, err := w.carts.GetBySessionID(cctx, w.sessionID)
	if err != nil {
		return fmt.Errorf("checkout_workflow: load cart: %w", err)
	}
	if c == nil {
		c, err = cartdom.NewCart(w.sessionID, nil, now)
		if err != nil {
			return err
		}
	}

	if err := fn(c, now); err != nil {
		return err
	}
	if err := w.carts.Upsert(cctx, c); err != nil {
		return fmt.Errorf("checkout_workflow: save cart: %w", err)
	}

	w.mu.Lock()
	w.items = c.Snapshot()
	w.total = c.Total()
	w.mu.Unlock()
	return nil
}

// ========================================
// Checkout
// ========================================

// Checkout runs the two-branch checkout transition and, when the branch
// succeeds, order submission. The readiness predicate failing is a validation
// error (ErrNotReady), never a silent success.
func (w *CheckoutWorkflow) Checkout(ctx context.Context) (orderdom.Order, error) {
	if w == nil {
		return orderdom.Order{}, ErrCheckoutInvalidArgument
	}

	w.mu.Lock()
	if !w.activated {
		w.mu.Unlock()
		return orderdom.Order{}, ErrNotActivated
	}
	if w.inFlight {
		w.mu.Unlock()
		return orderdom.Order{}, ErrCheckoutInFlight
	}
	if w.mutating > 0 {
		w.mu.Unlock()
		return orderdom.Order{}, ErrCartBusy
	}
	if len(w.items) == 0 || !w.method.IsValid() {
		w.mu.Unlock()
		return orderdom.Order{}, ErrNotReady
	}

	w.inFlight = true
	items := make([]cartdom.LineItem, len(w.items))
	copy(items, w.items)
	total := w.total
	form := w.form
	method := w.method
	var profile *buyerdom.Profile
	if w.profile != nil {
		p := *w.profile
		profile = &p
	}
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.inFlight = false
		w.mu.Unlock()
	}()

	var b buyerdom.Buyer
	var err error

	if profile != nil {
		b, err = w.checkoutAuthenticated(ctx, *profile, form)
	} else {
		b, err = w.checkoutGuest(ctx, items, form)
	}
	if err != nil {
		// pre-submission failure: no order submission, state retained for retry
		return orderdom.Order{}, err
	}

	return w.submit(ctx, items, total, b, method)
}

// checkoutAuthenticated maps the form edits onto the stored profile and
// persists the update. This is how edits made in the buyer form reach the
// stored profile.
func (w *CheckoutWorkflow) checkoutAuthenticated(ctx context.Context, p buyerdom.Profile, form GuestForm) (buyerdom.Buyer, error) {
	p.DisplayName = form.Name
	p.Email = form.Email
	p.Address = form.Address
	p.Phone = form.Phone

	// validate before touching the store; an invalid profile must never be persisted
	b, err := buyerdom.Authenticated(p)
	if err != nil {
		w.notifier.BlockingError(ctx, "Please fill in your contact details.")
		return buyerdom.Buyer{}, err
	}
	p, _ = b.Profile() // normalized form

	cctx, cancel := w.callCtx(ctx)
	err = w.buyers.Update(cctx, p.UID, p)
	cancel()
	if err != nil {
		log.Printf("[checkout] session=%s profile update failed uid=%s: %v", w.sessionID, p.UID, err)
		w.notifier.BlockingError(ctx, "Saving your account details failed. Please try again.")
		return buyerdom.Buyer{}, fmt.Errorf("%w: %v", ErrProfileUpdateFailed, err)
	}

	w.mu.Lock()
	w.profile = &p
	w.mu.Unlock()

	w.notifier.Success(ctx, "Order placed successfully!")
	return b, nil
}

// checkoutGuest assembles GuestInfo from the form and records the guest order
// as the pre-submission step.
func (w *CheckoutWorkflow) checkoutGuest(ctx context.Context, items []cartdom.LineItem, form GuestForm) (buyerdom.Buyer, error) {
	guest := buyerdom.GuestInfo{
		Name:    form.Name,
		Email:   form.Email,
		Address: form.Address,
		Phone:   form.Phone,
	}

	b, err := buyerdom.Guest(guest)
	if err != nil {
		w.notifier.BlockingError(ctx, "Please fill in your contact details.")
		return buyerdom.Buyer{}, err
	}

	// docId is assigned by the repository
	g := orderdom.GuestOrder{
		Items:     items,
		Guest:     guest,
		CreatedAt: w.clock.Now().UTC(),
	}

	cctx, cancel := w.callCtx(ctx)
	err = w.orders.CreateGuestOrder(cctx, g)
	cancel()
	if err != nil {
		log.Printf("[checkout] session=%s guest order save failed: %v", w.sessionID, err)
		w.notifier.BlockingError(ctx, "Saving your order details failed. Please try again.")
		return buyerdom.Buyer{}, fmt.Errorf("%w: %v", ErrGuestOrderSaveFailed, err)
	}

	w.notifier.Success(ctx, "Order placed successfully!")
	return b, nil
}

// submit requests a fresh order id, builds the order record from the snapshot
// taken at checkout start, and stores it. The cart is cleared only after the
// save is confirmed; a failed save keeps it intact (no silent order loss).
func (w *CheckoutWorkflow) submit(ctx context.Context, items []cartdom.LineItem, total int64, b buyerdom.Buyer, method orderdom.PaymentMethod) (orderdom.Order, error) {
	id := w.orders.NewID()

	o, err := orderdom.New(id, items, b, w.clock.Now(), total, method)
	if err != nil {
		return orderdom.Order{}, err
	}

	cctx, cancel := w.callCtx(ctx)
	err = w.orders.Create(cctx, o)
	cancel()
	if err != nil {
		log.Printf("[checkout] session=%s order save failed id=%s: %v", w.sessionID, id, err)
		w.notifier.BlockingError(ctx, "Placing your order failed. Your cart has been kept.")
		return orderdom.Order{}, fmt.Errorf("%w: %v", ErrOrderSaveFailed, err)
	}

	// confirmed: clear the stored cart, then reset local state
	cctx, cancel = w.callCtx(ctx)
	if derr := w.carts.DeleteBySessionID(cctx, w.sessionID); derr != nil {
		// order is durable; a stale cart doc is recoverable (TTL reaps it)
		log.Printf("[checkout] WARN: session=%s cart delete after order %s failed: %v", w.sessionID, id, derr)
	}
	cancel()

	w.mu.Lock()
	w.items = []cartdom.LineItem{}
	w.total = 0
	w.form = GuestForm{}
	w.mu.Unlock()

	w.postSuccess(ctx, o)

	log.Printf("[checkout] session=%s order %s saved total=%d method=%s buyer=%s", w.sessionID, o.ID, o.Total, o.PaymentMethod, o.Buyer.Kind())
	return o, nil
}

// postSuccess runs the best-effort sinks (archive mirror, confirmation mail).
func (w *CheckoutWorkflow) postSuccess(ctx context.Context, o orderdom.Order) {
	if w.archiver != nil {
		cctx, cancel := w.callCtx(ctx)
		if err := w.archiver.Archive(cctx, o); err != nil {
			log.Printf("[checkout] WARN: order %s archive failed: %v", o.ID, err)
		}
		cancel()
	}
	if w.mailer != nil && o.Buyer.Email() != "" {
		cctx, cancel := w.callCtx(ctx)
		if err := w.mailer.SendOrderConfirmation(cctx, o); err != nil {
			log.Printf("[checkout] WARN: order %s confirmation mail failed: %v", o.ID, err)
		}
		cancel()
	}
}

func (w *CheckoutWorkflow) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, w.callTimeout)
}
