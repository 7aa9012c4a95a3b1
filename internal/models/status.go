package models

import "fmt"

// OrderStatus is the lifecycle state of an order
type OrderStatus string

// Order statuses
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// AllStatuses in tab order
var AllStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusDelivered, OrderStatusCancelled},
}

// ParseStatus validates a raw status string
func ParseStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	for _, known := range AllStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// IsTerminal reports whether no transition leaves this status
func (s OrderStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Next lists the statuses an order may move to from this one
func (s OrderStatus) Next() []OrderStatus {
	return append([]OrderStatus{}, transitions[s]...)
}

// CanTransition reports whether an order may move from one status to another.
// Only forward moves along pending -> confirmed -> delivered are allowed, plus
// cancellation from any non-terminal status.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
