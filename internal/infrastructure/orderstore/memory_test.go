package orderstore

import (
	"context"
	"testing"
	"time"

	"wcpay-checkout/internal/domain/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paidOrder(id int64, customerID, cartHash string, paidAt time.Time) *order.Order {
	return &order.Order{
		ID:         id,
		OrderKey:   "wc_order_test",
		Status:     order.StatusProcessing,
		Total:      1000,
		Currency:   "usd",
		CustomerID: customerID,
		CartHash:   cartHash,
		PaidAt:     &paidAt,
	}
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	o := &order.Order{ID: 1, OrderKey: "wc_order_abc", Status: order.StatusPending, Total: 500, Currency: "usd"}
	require.NoError(t, store.Save(ctx, o))
	assert.False(t, o.CreatedAt.IsZero())

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.Total)

	got.AddNote("changed outside the store")
	again, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, again.Notes)

	_, err = store.Get(ctx, 2)
	assert.ErrorIs(t, err, order.ErrNotFound)

	assert.Error(t, store.Save(ctx, &order.Order{}))
}

func TestMemoryStore_FindPaidByCartHash(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	require.NoError(t, store.Save(ctx, paidOrder(1, "cus_1", "hash", now.Add(-10*time.Minute))))
	require.NoError(t, store.Save(ctx, paidOrder(2, "cus_1", "hash", now.Add(-time.Minute))))
	require.NoError(t, store.Save(ctx, paidOrder(3, "cus_2", "hash", now)))

	pending := paidOrder(4, "cus_1", "hash", now)
	pending.Status = order.StatusPending
	require.NoError(t, store.Save(ctx, pending))

	found, err := store.FindPaidByCartHash(ctx, "cus_1", "hash", now.Add(-5*time.Minute), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.ID)

	_, err = store.FindPaidByCartHash(ctx, "cus_1", "hash", now.Add(-5*time.Minute), 2)
	assert.ErrorIs(t, err, order.ErrNotFound)

	_, err = store.FindPaidByCartHash(ctx, "cus_1", "other", now.Add(-time.Hour), 4)
	assert.ErrorIs(t, err, order.ErrNotFound)
}
