// internal/adapters/in/http/handlers/handlers_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcon/internal/adapters/out/notify"
	sess "tcon/internal/application/session"
	uc "tcon/internal/application/usecase"
	buyerdom "tcon/internal/domain/buyer"
	cartdom "tcon/internal/domain/cart"
	orderdom "tcon/internal/domain/order"
)

// in-memory fakes backing the registry

type memCartRepo struct {
	mu    sync.Mutex
	carts map[string]*cartdom.Cart
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: map[string]*cartdom.Cart{}}
}

func (m *memCartRepo) GetBySessionID(_ context.Context, sid string) (*cartdom.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[sid]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Items = c.Snapshot()
	return &cp, nil
}

func (m *memCartRepo) Upsert(_ context.Context, c *cartdom.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	cp.Items = c.Snapshot()
	m.carts[c.ID] = &cp
	return nil
}

func (m *memCartRepo) DeleteBySessionID(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sid)
	return nil
}

type memBuyerRepo struct{}

func (memBuyerRepo) GetByUID(context.Context, string) (*buyerdom.Profile, error) {
	return nil, buyerdom.ErrNotFound
}
func (memBuyerRepo) Update(context.Context, string, buyerdom.Profile) error { return nil }

type memOrderRepo struct {
	mu        sync.Mutex
	nextID    int
	orders    map[string]orderdom.Order
	createErr error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: map[string]orderdom.Order{}}
}

func (m *memOrderRepo) NewID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return fmt.Sprintf("order-%d", m.nextID)
}

func (m *memOrderRepo) Create(_ context.Context, o orderdom.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.orders[o.ID] = o
	return nil
}

func (m *memOrderRepo) CreateGuestOrder(context.Context, orderdom.GuestOrder) error { return nil }

func (m *memOrderRepo) GetByID(_ context.Context, id string) (orderdom.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	return o, nil
}

type testServer struct {
	cart     http.Handler
	checkout http.Handler
	registry *sess.Registry
	orders   *memOrderRepo
	notices  *notify.Queue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	notices := notify.NewQueue()
	orders := newMemOrderRepo()
	registry := sess.NewRegistry(uc.WorkflowDeps{
		Carts:    newMemCartRepo(),
		Buyers:   memBuyerRepo{},
		Orders:   orders,
		Identity: sess.NewAuthBroker(),
		Notifier: notices,
	})
	t.Cleanup(registry.Close)

	return &testServer{
		cart:     NewCartHandler(registry),
		checkout: NewCheckoutHandler(registry, notices),
		registry: registry,
		orders:   orders,
		notices:  notices,
	}
}

// do issues a request carrying the session id the way the middleware would.
func (s *testServer) do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req = req.WithContext(sess.WithSessionID(req.Context(), "sess-http"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResp(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCartAddAndGet(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, s.cart, http.MethodPost, "/cart/items", map[string]any{
		"productId": "p1", "name": "Widget", "unitPrice": 10, "qty": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, s.cart, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeResp(t, rec)
	assert.Equal(t, float64(20), body["total"])
	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
}

func TestCartRejectsBadItem(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, s.cart, http.MethodPost, "/cart/items", map[string]any{
		"productId": "p1", "qty": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartRemoveViaQuery(t *testing.T) {
	s := newTestServer(t)

	s.do(t, s.cart, http.MethodPost, "/cart/items", map[string]any{
		"productId": "p1", "name": "Widget", "unitPrice": 10, "qty": 2,
	})

	rec := s.do(t, s.cart, http.MethodDelete, "/cart/items?productId=p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decodeResp(t, rec)["total"])
}

func TestCheckoutStateReadiness(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, s.checkout, http.MethodGet, "/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResp(t, rec)
	assert.Equal(t, false, body["canCheckout"])
	assert.Equal(t, false, body["signedIn"])

	s.do(t, s.cart, http.MethodPost, "/cart/items", map[string]any{
		"productId": "p1", "name": "Widget", "unitPrice": 10, "qty": 2,
	})
	rec = s.do(t, s.checkout, http.MethodPut, "/checkout/payment-method", map[string]any{
		"paymentMethod": "cash",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeResp(t, rec)["canCheckout"])
}

func TestPaymentMethodRejected(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, s.checkout, http.MethodPut, "/checkout/payment-method", map[string]any{
		"paymentMethod": "bitcoin",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGuestCheckoutOverHTTP(t *testing.T) {
	s := newTestServer(t)

	s.do(t, s.cart, http.MethodPost, "/cart/items", map[string]any{
		"productId": "p1", "name": "Widget", "unitPrice": 10, "qty": 2,
	})
	s.do(t, s.checkout, http.MethodPut, "/checkout/form", map[string]any{
		"name": "B", "email": "b@x.com",
	})
	s.do(t, s.checkout, http.MethodPut, "/checkout/payment-method", map[string]any{
		"paymentMethod": "cash",
	})

	rec := s.do(t, s.checkout, http.MethodPost, "/checkout", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeResp(t, rec)
	assert.Equal(t, "order-1", body["orderId"])
	assert.Equal(t, float64(20), body["total"])

	notices, ok := body["notices"].([]any)
	require.True(t, ok)
	require.Len(t, notices, 1)
	first, ok := notices[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "success", first["level"])

	// order durably stored
	o, err := s.orders.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), o.Total)

	// cart empty afterwards
	rec = s.do(t, s.cart, http.MethodGet, "/cart", nil)
	assert.Equal(t, float64(0), decodeResp(t, rec)["total"])
}

func TestCheckoutNotReady(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, s.checkout, http.MethodPost, "/checkout", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCheckoutGuestWithoutName(t *testing.T) {
	s := newTestServer(t)

	s.do(t, s.cart, http.MethodPost, "/cart/items", map[string]any{
		"productId": "p1", "name": "Widget", "unitPrice": 10, "qty": 2,
	})
	s.do(t, s.checkout, http.MethodPut, "/checkout/payment-method", map[string]any{
		"paymentMethod": "cash",
	})

	rec := s.do(t, s.checkout, http.MethodPost, "/checkout", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// error notice delivered with the failure response
	body := decodeResp(t, rec)
	notices, ok := body["notices"].([]any)
	require.True(t, ok)
	require.Len(t, notices, 1)
}

func TestCheckoutSaveFailureKeepsCart(t *testing.T) {
	s := newTestServer(t)
	s.orders.mu.Lock()
	s.orders.createErr = errors.New("firestore down")
	s.orders.mu.Unlock()

	s.do(t, s.cart, http.MethodPost, "/cart/items", map[string]any{
		"productId": "p1", "name": "Widget", "unitPrice": 10, "qty": 2,
	})
	s.do(t, s.checkout, http.MethodPut, "/checkout/form", map[string]any{"name": "B"})
	s.do(t, s.checkout, http.MethodPut, "/checkout/payment-method", map[string]any{
		"paymentMethod": "cash",
	})

	rec := s.do(t, s.checkout, http.MethodPost, "/checkout", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = s.do(t, s.cart, http.MethodGet, "/cart", nil)
	assert.Equal(t, float64(20), decodeResp(t, rec)["total"])
}

func TestCheckoutErrStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, checkoutErrStatus(uc.ErrNotReady))
	assert.Equal(t, http.StatusUnprocessableEntity, checkoutErrStatus(buyerdom.ErrInvalidGuest))
	assert.Equal(t, http.StatusUnprocessableEntity, checkoutErrStatus(buyerdom.ErrInvalidProfile))
	assert.Equal(t, http.StatusConflict, checkoutErrStatus(uc.ErrCheckoutInFlight))
	assert.Equal(t, http.StatusConflict, checkoutErrStatus(uc.ErrCartBusy))
	assert.Equal(t, http.StatusBadGateway, checkoutErrStatus(uc.ErrOrderSaveFailed))
	assert.Equal(t, http.StatusInternalServerError, checkoutErrStatus(errors.New("boom")))
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, s.cart, http.MethodPatch, "/cart", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = s.do(t, s.checkout, http.MethodDelete, "/checkout", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
