package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"shanti-orders/internal/models"
	"shanti-orders/internal/store"

	"github.com/shopspring/decimal"
)

type recordingPublisher struct {
	mu      sync.Mutex
	placed  []*models.OrderPlacedEvent
	changed []*models.OrderStatusChangedEvent
	removed []*models.OrderRemovedEvent
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, e *models.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, e)
	return nil
}

func (p *recordingPublisher) PublishOrderStatusChanged(_ context.Context, e *models.OrderStatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, e)
	return nil
}

func (p *recordingPublisher) PublishOrderRemoved(_ context.Context, e *models.OrderRemovedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removed = append(p.removed, e)
	return nil
}

type fixture struct {
	store     *store.Store
	publisher *recordingPublisher
	locker    *LocalLocker
	orders    *OrderService
	admin     *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewStore(store.NewMemoryBackend(), "shanti_orders")
	pub := &recordingPublisher{}
	locker := NewLocalLocker()
	orders := NewOrderService(st, pub, locker, 200)
	orders.now = func() time.Time { return time.UnixMilli(1700000000000) }

	return &fixture{
		store:     st,
		publisher: pub,
		locker:    locker,
		orders:    orders,
		admin:     NewAdminService(st, pub, BusinessIdentity{Name: "Shanti Medicare"}),
	}
}

func medicine(name string, price int64) models.Medicine {
	return models.Medicine{Name: name, Category: "tablet", Price: decimal.NewFromInt(price)}
}

func validDetails() CheckoutDetails {
	return CheckoutDetails{
		DeliveryAddress: "Sardarpara Bazar",
		Distance:        models.Distance1To2,
		PaymentMethod:   models.PaymentBkash,
		SenderNumber:    "01700000000",
		LastThreeDigits: "123",
	}
}
