// internal/adapters/out/notify/queue_test.go
package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcon/internal/application/session"
)

func TestQueueDrainReturnsInArrivalOrder(t *testing.T) {
	q := NewQueue()
	ctx := session.WithSessionID(context.Background(), "s1")

	q.Success(ctx, "Order placed successfully!")
	q.BlockingError(ctx, "Placing your order failed. Your cart has been kept.")

	got := q.Drain("s1")
	require.Len(t, got, 2)
	assert.Equal(t, LevelSuccess, got[0].Level)
	assert.Equal(t, "Order placed successfully!", got[0].Message)
	assert.Equal(t, LevelBlockingError, got[1].Level)
	assert.False(t, got[0].At.IsZero())
}

func TestQueueDrainClearsPending(t *testing.T) {
	q := NewQueue()
	ctx := session.WithSessionID(context.Background(), "s1")

	q.Success(ctx, "hi")
	require.Len(t, q.Drain("s1"), 1)
	assert.Empty(t, q.Drain("s1"))
}

func TestQueueIsScopedToSession(t *testing.T) {
	q := NewQueue()

	q.Success(session.WithSessionID(context.Background(), "s1"), "for s1")
	q.Success(session.WithSessionID(context.Background(), "s2"), "for s2")

	got := q.Drain("s2")
	require.Len(t, got, 1)
	assert.Equal(t, "for s2", got[0].Message)
}

func TestQueueWithoutSessionLogsOnly(t *testing.T) {
	q := NewQueue()

	q.Success(context.Background(), "no session")

	assert.Empty(t, q.Drain(""))
}
