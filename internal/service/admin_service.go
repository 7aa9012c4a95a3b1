package service

import (
	"context"
	"fmt"
	"time"

	"shanti-orders/internal/models"
	"shanti-orders/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminService backs the operator view: status tabs, drill-in, lifecycle
// moves, deletion and invoices. It re-reads the store on every call.
type AdminService struct {
	store          OrderStore
	eventPublisher EventPublisher
	business       BusinessIdentity
	logger         *zap.Logger
}

func NewAdminService(store OrderStore, eventPublisher EventPublisher, business BusinessIdentity) *AdminService {
	return &AdminService{
		store:          store,
		eventPublisher: eventPublisher,
		business:       business,
		logger:         util.GetLogger(),
	}
}

// ListByStatus returns the orders in one status tab, newest first
func (a *AdminService) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	orders, err := a.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByStatus(orders, status), nil
}

// Counts returns the number of orders per status
func (a *AdminService) Counts(ctx context.Context) (map[models.OrderStatus]int, error) {
	orders, err := a.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.OrderStatus]int, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		counts[st] = 0
	}
	for _, o := range orders {
		counts[o.Status]++
	}
	return counts, nil
}

// Get returns one order for the detail view
func (a *AdminService) Get(ctx context.Context, id string) (*models.Order, error) {
	return a.store.Get(ctx, id)
}

// Transition moves an order to a new status if the lifecycle allows it
func (a *AdminService) Transition(ctx context.Context, id string, to models.OrderStatus) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "AdminService.Transition")
	defer span.End()

	order, from, err := a.store.UpdateStatusIf(ctx, id, to, func(from models.OrderStatus) error {
		if !models.CanTransition(from, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.OrderTransitionsTotal.WithLabelValues(string(to)).Inc()
	a.logger.Info("Order status changed",
		zap.String("order_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID: id,
		From:    from,
		To:      to,
	}
	if err := a.eventPublisher.PublishOrderStatusChanged(ctx, event); err != nil {
		a.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}

	return order, nil
}

func (a *AdminService) Confirm(ctx context.Context, id string) (*models.Order, error) {
	return a.Transition(ctx, id, models.OrderStatusConfirmed)
}

func (a *AdminService) Deliver(ctx context.Context, id string) (*models.Order, error) {
	return a.Transition(ctx, id, models.OrderStatusDelivered)
}

func (a *AdminService) Cancel(ctx context.Context, id string) (*models.Order, error) {
	return a.Transition(ctx, id, models.OrderStatusCancelled)
}

// Delete removes an order from the store. The operator must have confirmed.
func (a *AdminService) Delete(ctx context.Context, id string, confirmed bool) error {
	ctx, span := util.StartSpan(ctx, "AdminService.Delete")
	defer span.End()

	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := a.store.Remove(ctx, id); err != nil {
		return err
	}

	util.OrdersRemovedTotal.Inc()
	a.logger.Info("Order deleted", zap.String("order_id", id))

	event := &models.OrderRemovedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderRemoved,
			Timestamp: time.Now(),
		},
		OrderID: id,
	}
	if err := a.eventPublisher.PublishOrderRemoved(ctx, event); err != nil {
		a.logger.Error("Failed to publish OrderRemoved event", zap.Error(err))
	}
	return nil
}

// FilterByStatus keeps orders in the given status, preserving order
func FilterByStatus(orders []models.Order, status models.OrderStatus) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}
