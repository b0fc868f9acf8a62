// internal/application/usecase/mocks_test.go
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	buyerdom "tcon/internal/domain/buyer"
	cartdom "tcon/internal/domain/cart"
	orderdom "tcon/internal/domain/order"
)

// fixedClock implements Clock for deterministic tests.
type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

// mockCartRepo implements cart.Repository.
type mockCartRepo struct {
	mu sync.Mutex

	cart *cartdom.Cart

	getErr    error
	upsertErr error
	deleteErr error

	upsertCalls int
	deleteCalls int

	// when non-nil, Upsert blocks until the channel is closed
	upsertGate chan struct{}
}

func (m *mockCartRepo) GetBySessionID(_ context.Context, _ string) (*cartdom.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.cart == nil {
		return nil, nil
	}
	// detached copy, as a real adapter would return
	cp := *m.cart
	cp.Items = m.cart.Snapshot()
	return &cp, nil
}

func (m *mockCartRepo) Upsert(ctx context.Context, c *cartdom.Cart) error {
	m.mu.Lock()
	m.upsertCalls++
	gate := m.upsertGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	cp := *c
	cp.Items = c.Snapshot()
	m.cart = &cp
	return nil
}

func (m *mockCartRepo) DeleteBySessionID(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.cart = nil
	return nil
}

func (m *mockCartRepo) deleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteCalls
}

func (m *mockCartRepo) upserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertCalls
}

// mockBuyerRepo implements buyer.Repository.
type mockBuyerRepo struct {
	mu sync.Mutex

	profile *buyerdom.Profile

	getErr    error
	updateErr error

	updatedUID string
	updated    *buyerdom.Profile
}

func (m *mockBuyerRepo) GetByUID(_ context.Context, uid string) (*buyerdom.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.profile == nil || m.profile.UID != uid {
		return nil, buyerdom.ErrNotFound
	}
	cp := *m.profile
	return &cp, nil
}

func (m *mockBuyerRepo) Update(_ context.Context, uid string, p buyerdom.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedUID = uid
	cp := p
	m.updated = &cp
	m.profile = &cp
	return nil
}

// mockOrderRepo implements order.Repository and records the call sequence.
type mockOrderRepo struct {
	mu sync.Mutex

	calls  []string
	nextID int

	guestErr  error
	createErr error

	guest   *orderdom.GuestOrder
	created *orderdom.Order

	// when non-nil, Create blocks until the channel is closed
	createGate chan struct{}
}

func (m *mockOrderRepo) NewID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.calls = append(m.calls, "newId")
	return fmt.Sprintf("order-%d", m.nextID)
}

func (m *mockOrderRepo) CreateGuestOrder(_ context.Context, g orderdom.GuestOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "saveGuestOrder")
	if m.guestErr != nil {
		return m.guestErr
	}
	cp := g
	m.guest = &cp
	return nil
}

func (m *mockOrderRepo) Create(ctx context.Context, o orderdom.Order) error {
	m.mu.Lock()
	m.calls = append(m.calls, "saveOrder")
	gate := m.createGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = &o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (orderdom.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.created != nil && m.created.ID == id {
		return *m.created, nil
	}
	return orderdom.Order{}, orderdom.ErrNotFound
}

func (m *mockOrderRepo) callSeq() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// stubWatcher implements IdentityWatcher with manual event injection.
type stubWatcher struct {
	mu sync.Mutex

	subscribes int
	cancels    int
	current    chan AuthState
}

func newStubWatcher() *stubWatcher {
	return &stubWatcher{}
}

func (s *stubWatcher) Subscribe(_ string) (<-chan AuthState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribes++
	ch := make(chan AuthState, 8)
	ch <- AuthState{SignedIn: false}
	s.current = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			s.cancels++
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *stubWatcher) push(st AuthState) {
	s.mu.Lock()
	ch := s.current
	s.mu.Unlock()
	if ch != nil {
		ch <- st
	}
}

func (s *stubWatcher) counts() (subs, cancels int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribes, s.cancels
}

// recNotifier records notifications.
type recNotifier struct {
	mu        sync.Mutex
	successes []string
	blocking  []string
}

func (n *recNotifier) Success(_ context.Context, msg string) {
	n.mu.Lock()
	n.successes = append(n.successes, msg)
	n.mu.Unlock()
}

func (n *recNotifier) BlockingError(_ context.Context, msg string) {
	n.mu.Lock()
	n.blocking = append(n.blocking, msg)
	n.mu.Unlock()
}

func (n *recNotifier) counts() (successes, blocking int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.successes), len(n.blocking)
}
