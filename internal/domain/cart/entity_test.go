// internal/domain/cart/entity_test.go
package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestNewCart(t *testing.T) {
	c, err := NewCart("sess-1", nil, now)
	require.NoError(t, err)

	assert.Equal(t, "sess-1", c.ID)
	assert.Empty(t, c.Items)
	assert.Equal(t, int64(0), c.Total())
	assert.Equal(t, now.Add(DefaultCartTTL), c.ExpiresAt)
}

func TestNewCartRejectsEmptyID(t *testing.T) {
	_, err := NewCart("  ", nil, now)
	assert.ErrorIs(t, err, ErrInvalidCart)
}

func TestNewCartRejectsBadItems(t *testing.T) {
	_, err := NewCart("sess-1", []LineItem{{ProductID: "p1", UnitPrice: 10, Qty: 0}}, now)
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestTotalFollowsEveryMutation(t *testing.T) {
	c, err := NewCart("sess-1", nil, now)
	require.NoError(t, err)

	require.NoError(t, c.Add("p1", "Widget", 10, 2, now))
	assert.Equal(t, int64(20), c.Total())

	require.NoError(t, c.Add("p2", "Gadget", 5, 1, now))
	assert.Equal(t, int64(25), c.Total())

	require.NoError(t, c.SetQty("p1", 3, now))
	assert.Equal(t, int64(35), c.Total())

	require.NoError(t, c.Remove("p2", now))
	assert.Equal(t, int64(30), c.Total())

	require.NoError(t, c.ClearItems(now))
	assert.Equal(t, int64(0), c.Total())
}

func TestAddMergesByProductID(t *testing.T) {
	c, err := NewCart("sess-1", nil, now)
	require.NoError(t, err)

	require.NoError(t, c.Add("p1", "Widget", 10, 2, now))
	require.NoError(t, c.Add("p1", "Widget v2", 12, 1, now))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Qty)
	assert.Equal(t, "Widget v2", c.Items[0].Name)
	assert.Equal(t, int64(12), c.Items[0].UnitPrice)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	c, err := NewCart("sess-1", nil, now)
	require.NoError(t, err)

	assert.ErrorIs(t, c.Add("", "x", 10, 1, now), ErrInvalidItem)
	assert.ErrorIs(t, c.Add("p1", "x", -1, 1, now), ErrInvalidItem)
	assert.ErrorIs(t, c.Add("p1", "x", 10, 0, now), ErrInvalidItem)
}

func TestSetQtyZeroRemovesAndPreservesOrder(t *testing.T) {
	c, err := NewCart("sess-1", nil, now)
	require.NoError(t, err)

	require.NoError(t, c.Add("a", "A", 1, 1, now))
	require.NoError(t, c.Add("b", "B", 1, 1, now))
	require.NoError(t, c.Add("c", "C", 1, 1, now))

	require.NoError(t, c.SetQty("b", 0, now))

	require.Len(t, c.Items, 2)
	assert.Equal(t, "a", c.Items[0].ProductID)
	assert.Equal(t, "c", c.Items[1].ProductID)
}

func TestSetQtyUnknownProduct(t *testing.T) {
	c, err := NewCart("sess-1", nil, now)
	require.NoError(t, err)

	assert.ErrorIs(t, c.SetQty("ghost", 2, now), ErrInvalidItem)

	// removal of an unknown product is a no-op, not an error
	assert.NoError(t, c.Remove("ghost", now))
}

func TestMutationRefreshesTTL(t *testing.T) {
	c, err := NewCart("sess-1", nil, now)
	require.NoError(t, err)

	later := now.Add(time.Hour)
	require.NoError(t, c.Add("p1", "Widget", 10, 1, later))

	assert.Equal(t, later, c.UpdatedAt)
	assert.Equal(t, later.Add(DefaultCartTTL), c.ExpiresAt)
	assert.Equal(t, now, c.CreatedAt)
}

func TestSnapshotIsDetached(t *testing.T) {
	c, err := NewCart("sess-1", nil, now)
	require.NoError(t, err)
	require.NoError(t, c.Add("p1", "Widget", 10, 2, now))

	snap := c.Snapshot()
	require.NoError(t, c.ClearItems(now))

	require.Len(t, snap, 1)
	assert.Equal(t, "p1", snap[0].ProductID)
	assert.Empty(t, c.Items)
}
