package worker

import (
	"context"

	"shanti-orders/internal/broker"
	"shanti-orders/internal/models"
	"shanti-orders/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker follows the order event stream and raises operator
// alerts for new orders and lifecycle moves.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	eventHandler.OnOrderStatusChanged(w.handleStatusChanged)
	eventHandler.OnOrderRemoved(w.handleOrderRemoved)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleOrderPlaced(_ context.Context, e *models.OrderPlacedEvent) error {
	util.OrderEventsConsumed.WithLabelValues(e.EventType).Inc()
	w.logger.Info("New order awaiting review",
		zap.String("order_id", e.OrderID),
		zap.String("type", string(e.OrderType)),
		zap.String("sender_number", e.SenderNumber),
		zap.String("payment_method", string(e.PaymentMethod)),
		zap.Int("items", e.ItemCount),
		zap.String("medicine_total", e.MedicineTotal),
		zap.Int64("delivery_charge", e.DeliveryCharge))
	return nil
}

func (w *NotificationWorker) handleStatusChanged(_ context.Context, e *models.OrderStatusChangedEvent) error {
	util.OrderEventsConsumed.WithLabelValues(e.EventType).Inc()
	w.logger.Info("Order moved",
		zap.String("order_id", e.OrderID),
		zap.String("from", string(e.From)),
		zap.String("to", string(e.To)))
	return nil
}

func (w *NotificationWorker) handleOrderRemoved(_ context.Context, e *models.OrderRemovedEvent) error {
	util.OrderEventsConsumed.WithLabelValues(e.EventType).Inc()
	w.logger.Info("Order deleted by operator", zap.String("order_id", e.OrderID))
	return nil
}
