package service

import (
	"context"
	"sync"

	"shanti-orders/internal/models"
	"shanti-orders/internal/util"

	"github.com/shopspring/decimal"
)

// CartComposer accumulates medicines for one customer until checkout.
// Items are keyed by the canonical medicine id derived from the name.
type CartComposer struct {
	id     string
	orders *OrderService

	mu    sync.Mutex
	items []models.CartItem
}

// NewCartComposer creates an empty cart bound to an order service
func NewCartComposer(id string, orders *OrderService) *CartComposer {
	return &CartComposer{id: id, orders: orders}
}

// ID returns the cart id
func (c *CartComposer) ID() string {
	return c.id
}

// Items returns a copy of the cart lines in insertion order
func (c *CartComposer) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.CartItem(nil), c.items...)
}

// AddItem merges quantity into an existing line for the same medicine or
// appends a new line. Quantities below 1 count as 1.
func (c *CartComposer) AddItem(medicine models.Medicine, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = addItem(c.items, medicine, quantity)
}

// AddMultiple folds AddItem over items as a single update
func (c *CartComposer) AddMultiple(items []models.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := append([]models.CartItem(nil), c.items...)
	for _, item := range items {
		next = addItem(next, item.Medicine, item.Quantity)
	}
	c.items = next
}

// UpdateQuantity adds delta to a line, never going below 1
func (c *CartComposer) UpdateQuantity(name string, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := indexOf(c.items, models.MedicineID(name)); i >= 0 {
		q := c.items[i].Quantity + delta
		if q < 1 {
			q = 1
		}
		c.items[i].Quantity = q
	}
}

// RemoveItem drops a line
func (c *CartComposer) RemoveItem(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := indexOf(c.items, models.MedicineID(name)); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

// Clear empties the cart
func (c *CartComposer) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// ComputeTotals prices the cart for a distance band. An unknown band
// contributes no delivery charge.
func (c *CartComposer) ComputeTotals(distance models.Distance) models.Totals {
	medicineTotal := models.SumItems(c.Items())
	charge, _ := models.DeliveryCharge(distance)
	return models.Totals{
		MedicineTotal:  medicineTotal,
		DeliveryCharge: charge,
		GrandTotal:     medicineTotal.Add(decimal.NewFromInt(charge)),
	}
}

// Eligible reports whether the medicine total reaches the minimum order amount
func (c *CartComposer) Eligible() bool {
	return models.SumItems(c.Items()).GreaterThanOrEqual(decimal.NewFromInt(c.orders.MinOrderAmount()))
}

// Validate checks the cart and checkout details together
func (c *CartComposer) Validate(details CheckoutDetails) error {
	return ValidateCart(c.Items(), details, c.orders.MinOrderAmount())
}

// Submit validates, stores a pending cart order and takes the submitted
// lines out of the cart. Items added while the order is being placed stay
// in the cart. A second Submit while one is in flight fails with ErrBusy.
func (c *CartComposer) Submit(ctx context.Context, details CheckoutDetails) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CartComposer.Submit")
	defer span.End()

	var placed *models.Order
	err := c.orders.withGuard(ctx, c.id, func() error {
		items := c.Items()
		if err := ValidateCart(items, details, c.orders.MinOrderAmount()); err != nil {
			return err
		}

		order, err := c.orders.place(ctx, models.Order{
			Type:  models.OrderTypeCart,
			Items: items,
		}, details)
		if err != nil {
			return err
		}

		c.removeSubmitted(items)
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// removeSubmitted subtracts the submitted quantities line by line and drops
// lines that reach zero
func (c *CartComposer) removeSubmitted(submitted []models.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sent := range submitted {
		i := indexOf(c.items, sent.Medicine.ID)
		if i < 0 {
			continue
		}
		if left := c.items[i].Quantity - sent.Quantity; left > 0 {
			c.items[i].Quantity = left
			continue
		}
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
	if len(c.items) == 0 {
		c.items = nil
	}
}

func addItem(items []models.CartItem, medicine models.Medicine, quantity int) []models.CartItem {
	if quantity < 1 {
		quantity = 1
	}
	medicine = medicine.Canonical()

	if i := indexOf(items, medicine.ID); i >= 0 {
		items[i].Quantity += quantity
		return items
	}
	return append(items, models.CartItem{Medicine: medicine, Quantity: quantity})
}

func indexOf(items []models.CartItem, id string) int {
	for i := range items {
		if items[i].Medicine.ID == id {
			return i
		}
	}
	return -1
}
