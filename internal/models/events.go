package models

import "time"

// Event types
const (
	EventTypeOrderPlaced        = "ORDER_PLACED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeOrderRemoved       = "ORDER_REMOVED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when a customer submits an order
type OrderPlacedEvent struct {
	BaseEvent
	OrderID        string        `json:"order_id"`
	OrderType      OrderType     `json:"order_type"`
	SenderNumber   string        `json:"sender_number"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	ItemCount      int           `json:"item_count"`
	MedicineTotal  string        `json:"medicine_total"`
	DeliveryCharge int64         `json:"delivery_charge"`
}

// OrderStatusChangedEvent published when the operator moves an order
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID string      `json:"order_id"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
}

// OrderRemovedEvent published when the operator deletes an order
type OrderRemovedEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
}
