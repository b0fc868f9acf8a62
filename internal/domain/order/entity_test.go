// internal/domain/order/entity_test.go
package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	buyerdom "tcon/internal/domain/buyer"
	cartdom "tcon/internal/domain/cart"
)

var orderTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func testItems() []cartdom.LineItem {
	return []cartdom.LineItem{
		{ProductID: "p1", Name: "Widget", UnitPrice: 10, Qty: 2},
		{ProductID: "p2", Name: "Gadget", UnitPrice: 5, Qty: 1},
	}
}

func testBuyer(t *testing.T) buyerdom.Buyer {
	t.Helper()
	b, err := buyerdom.Guest(buyerdom.GuestInfo{Name: "B", Email: "b@x.com"})
	require.NoError(t, err)
	return b
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod("  Cash ")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodCash, m)

	m, err = ParsePaymentMethod("CARD")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodCard, m)

	_, err = ParsePaymentMethod("wire")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	_, err = ParsePaymentMethod("")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestNewOrder(t *testing.T) {
	o, err := New("o-1", testItems(), testBuyer(t), orderTime, 25, PaymentMethodCash)
	require.NoError(t, err)

	assert.Equal(t, "o-1", o.ID)
	assert.Equal(t, int64(25), o.Total)
	assert.Equal(t, orderTime, o.OrderTime)
	assert.Equal(t, buyerdom.KindGuest, o.Buyer.Kind())
}

func TestNewOrderSnapshotIsDetached(t *testing.T) {
	items := testItems()
	o, err := New("o-1", items, testBuyer(t), orderTime, 25, PaymentMethodCash)
	require.NoError(t, err)

	items[0].Qty = 99
	assert.Equal(t, 2, o.Items[0].Qty)
}

func TestNewOrderRejectsTotalMismatch(t *testing.T) {
	_, err := New("o-1", testItems(), testBuyer(t), orderTime, 24, PaymentMethodCash)
	assert.ErrorIs(t, err, ErrInvalidTotal)
}

func TestNewOrderRejectsEmptyItems(t *testing.T) {
	_, err := New("o-1", nil, testBuyer(t), orderTime, 0, PaymentMethodCash)
	assert.ErrorIs(t, err, ErrInvalidItems)
}

func TestNewOrderRejectsBadItemSnapshot(t *testing.T) {
	items := []cartdom.LineItem{{ProductID: "p1", UnitPrice: 10, Qty: 0}}
	_, err := New("o-1", items, testBuyer(t), orderTime, 0, PaymentMethodCash)
	assert.ErrorIs(t, err, ErrInvalidItemSnapshot)
}

func TestNewOrderRejectsInvalidBuyer(t *testing.T) {
	_, err := New("o-1", testItems(), buyerdom.Buyer{}, orderTime, 25, PaymentMethodCash)
	assert.ErrorIs(t, err, ErrInvalidBuyer)
}

func TestNewOrderRejectsZeroTime(t *testing.T) {
	_, err := New("o-1", testItems(), testBuyer(t), time.Time{}, 25, PaymentMethodCash)
	assert.ErrorIs(t, err, ErrInvalidOrderTime)
}

func TestNewOrderRejectsUnknownPaymentMethod(t *testing.T) {
	_, err := New("o-1", testItems(), testBuyer(t), orderTime, 25, PaymentMethod("wire"))
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestNewOrderRejectsEmptyID(t *testing.T) {
	_, err := New("  ", testItems(), testBuyer(t), orderTime, 25, PaymentMethodCash)
	assert.ErrorIs(t, err, ErrInvalidID)
}
