package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"shanti-orders/internal/models"
	"shanti-orders/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrders(t *testing.T, f *fixture, statuses ...models.OrderStatus) []string {
	t.Helper()
	ids := make([]string, len(statuses))
	for i, st := range statuses {
		ids[i] = NewOrderID()
		require.NoError(t, f.store.Insert(context.Background(), models.Order{
			ID:             ids[i],
			Timestamp:      int64(i),
			Type:           models.OrderTypeCart,
			DeliveryCharge: 20,
			Status:         st,
		}))
	}
	return ids
}

func TestListByStatusNewestFirst(t *testing.T) {
	f := newFixture(t)
	ids := seedOrders(t, f,
		models.OrderStatusPending,
		models.OrderStatusConfirmed,
		models.OrderStatusPending,
		models.OrderStatusCancelled,
	)

	pending, err := f.admin.ListByStatus(context.Background(), models.OrderStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, ids[2], pending[0].ID)
	assert.Equal(t, ids[0], pending[1].ID)

	cancelled, err := f.admin.ListByStatus(context.Background(), models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Len(t, cancelled, 1)
}

func TestCounts(t *testing.T) {
	f := newFixture(t)
	seedOrders(t, f, models.OrderStatusPending, models.OrderStatusPending, models.OrderStatusDelivered)

	counts, err := f.admin.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.OrderStatusPending])
	assert.Equal(t, 0, counts[models.OrderStatusConfirmed])
	assert.Equal(t, 1, counts[models.OrderStatusDelivered])
	assert.Equal(t, 0, counts[models.OrderStatusCancelled])
}

func TestLifecycleForward(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ids := seedOrders(t, f, models.OrderStatusPending)

	order, err := f.admin.Confirm(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)

	order, err = f.admin.Deliver(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, order.Status)

	_, err = f.admin.Cancel(ctx, ids[0])
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	stored, err := f.store.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, stored.Status)

	require.Len(t, f.publisher.changed, 2)
	assert.Equal(t, models.OrderStatusPending, f.publisher.changed[0].From)
	assert.Equal(t, models.OrderStatusDelivered, f.publisher.changed[1].To)
}

func TestTransitionRejectsSkippingAhead(t *testing.T) {
	f := newFixture(t)
	ids := seedOrders(t, f, models.OrderStatusPending)

	_, err := f.admin.Deliver(context.Background(), ids[0])
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Empty(t, f.publisher.changed)
}

func TestConcurrentDeliverAndCancel(t *testing.T) {
	ctx := context.Background()
	for round := 0; round < 20; round++ {
		f := newFixture(t)
		id := seedOrders(t, f, models.OrderStatusConfirmed)[0]

		var wg sync.WaitGroup
		errs := make([]error, 2)
		start := make(chan struct{})
		moves := []func(context.Context, string) (*models.Order, error){f.admin.Deliver, f.admin.Cancel}
		for i, move := range moves {
			wg.Add(1)
			go func(i int, move func(context.Context, string) (*models.Order, error)) {
				defer wg.Done()
				<-start
				_, errs[i] = move(ctx, id)
			}(i, move)
		}
		close(start)
		wg.Wait()

		failed := 0
		for _, err := range errs {
			if err != nil {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				failed++
			}
		}
		assert.Equal(t, 1, failed, "exactly one terminal move must win")
		assert.Len(t, f.publisher.changed, 1)

		order, err := f.store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, f.publisher.changed[0].To, order.Status)
	}
}

func TestTransitionUnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.admin.Confirm(context.Background(), "NOPE")
	assert.True(t, errors.Is(err, store.ErrOrderNotFound))
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ids := seedOrders(t, f, models.OrderStatusPending, models.OrderStatusConfirmed)

	err := f.admin.Delete(ctx, ids[0], false)
	assert.True(t, errors.Is(err, ErrConfirmationRequired))

	require.NoError(t, f.admin.Delete(ctx, ids[0], true))

	orders, err := f.store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, ids[1], orders[0].ID)
	require.Len(t, f.publisher.removed, 1)
}

func TestInvoiceForCartOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cart := NewCartComposer("c1", f.orders)
	cart.AddItem(medicine("X", 100), 2)
	cart.AddItem(models.Medicine{Name: "Y", Price: decimal.RequireFromString("1.5")}, 10)

	details := validDetails()
	details.Distance = models.Distance3
	order, err := cart.Submit(ctx, details)
	require.NoError(t, err)

	inv, err := f.admin.Invoice(ctx, order.ID)
	require.NoError(t, err)

	assert.Equal(t, "Shanti Medicare", inv.Business.Name)
	require.Len(t, inv.Lines, 2)
	assert.True(t, inv.Lines[1].Amount.Equal(decimal.NewFromInt(15)))
	assert.True(t, inv.MedicineTotal.Equal(decimal.NewFromInt(215)))
	assert.Equal(t, int64(30), inv.DeliveryCharge)
	assert.True(t, inv.GrandTotal.Equal(decimal.NewFromInt(245)))
	assert.Empty(t, inv.Note)
}

func TestInvoiceForPrescriptionOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := NewPrescriptionComposer("p1", f.orders)
	p.SetImage(sampleImage)
	order, err := p.Submit(ctx, validDetails())
	require.NoError(t, err)

	inv, err := f.admin.Invoice(ctx, order.ID)
	require.NoError(t, err)

	assert.Empty(t, inv.Lines)
	assert.Equal(t, prescriptionNote, inv.Note)
	assert.True(t, inv.GrandTotal.Equal(decimal.NewFromInt(20)))
}
