package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shanti-orders/internal/models"
	"shanti-orders/internal/store"
	"shanti-orders/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxIDAttempts = 5

// EventPublisher publishes order lifecycle events
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishOrderRemoved(ctx context.Context, event *models.OrderRemovedEvent) error
}

// OrderStore is the persisted order list shared by composers and the admin viewer
type OrderStore interface {
	LoadAll(ctx context.Context) ([]models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	Insert(ctx context.Context, order models.Order) error
	UpdateStatusIf(ctx context.Context, id string, status models.OrderStatus, check func(from models.OrderStatus) error) (*models.Order, models.OrderStatus, error)
	Remove(ctx context.Context, id string) error
}

// OrderService turns validated composer state into stored orders
type OrderService struct {
	store          OrderStore
	eventPublisher EventPublisher
	locker         Locker
	minOrderAmount int64
	now            func() time.Time
	newID          func() string
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store OrderStore,
	eventPublisher EventPublisher,
	locker Locker,
	minOrderAmount int64,
) *OrderService {
	return &OrderService{
		store:          store,
		eventPublisher: eventPublisher,
		locker:         locker,
		minOrderAmount: minOrderAmount,
		now:            time.Now,
		newID:          NewOrderID,
		logger:         util.GetLogger(),
	}
}

// MinOrderAmount is the smallest medicine total a cart may check out with
func (s *OrderService) MinOrderAmount() int64 {
	return s.minOrderAmount
}

// NewOrderID returns a nine character uppercase short code
func NewOrderID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:9])
}

// withGuard runs fn while holding the composer's submission lock
func (s *OrderService) withGuard(ctx context.Context, composerID string, fn func() error) error {
	key := "submit:" + composerID
	ok, err := s.locker.TryLock(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to acquire submission lock: %w", err)
	}
	if !ok {
		util.SubmissionsRejectedBusy.Inc()
		return ErrBusy
	}
	defer func() {
		if err := s.locker.Unlock(context.Background(), key); err != nil {
			s.logger.Error("Failed to release submission lock",
				zap.String("composer_id", composerID),
				zap.Error(err))
		}
	}()
	return fn()
}

// place stamps an order with a fresh id, the current time and pending
// status, then prepends it to the store.
func (s *OrderService) place(ctx context.Context, order models.Order, details CheckoutDetails) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.place")
	defer span.End()

	charge, _ := models.DeliveryCharge(details.Distance)

	order.Timestamp = s.now().UnixMilli()
	order.DeliveryAddress = strings.TrimSpace(details.DeliveryAddress)
	order.Distance = details.Distance
	order.DeliveryCharge = charge
	order.PaymentMethod = details.PaymentMethod
	order.SenderNumber = strings.TrimSpace(details.SenderNumber)
	order.LastThreeDigits = details.LastThreeDigits
	order.Status = models.OrderStatusPending

	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		order.ID = s.newID()
		err = s.store.Insert(ctx, order)
		if !errors.Is(err, store.ErrDuplicateID) {
			break
		}
		s.logger.Warn("Order id collision, regenerating", zap.String("order_id", order.ID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store order: %w", err)
	}

	util.OrdersPlacedTotal.WithLabelValues(string(order.Type)).Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("type", string(order.Type)),
		zap.Int64("delivery_charge", order.DeliveryCharge))

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: s.now(),
		},
		OrderID:        order.ID,
		OrderType:      order.Type,
		SenderNumber:   order.SenderNumber,
		PaymentMethod:  order.PaymentMethod,
		ItemCount:      len(order.Items),
		MedicineTotal:  order.MedicineTotal().String(),
		DeliveryCharge: order.DeliveryCharge,
	}

	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	return &order, nil
}
