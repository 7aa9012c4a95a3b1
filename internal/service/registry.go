package service

import (
	"sync"

	"github.com/google/uuid"
)

// CartRegistry keeps the in-progress carts of connected customers
type CartRegistry struct {
	mu     sync.RWMutex
	carts  map[string]*CartComposer
	orders *OrderService
}

func NewCartRegistry(orders *OrderService) *CartRegistry {
	return &CartRegistry{
		carts:  make(map[string]*CartComposer),
		orders: orders,
	}
}

// Create opens a new empty cart
func (r *CartRegistry) Create() *CartComposer {
	cart := NewCartComposer(uuid.New().String(), r.orders)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[cart.ID()] = cart
	return cart
}

// Get looks up a cart by id
func (r *CartRegistry) Get(id string) (*CartComposer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cart, ok := r.carts[id]
	if !ok {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

// Drop forgets a cart
func (r *CartRegistry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, id)
}

// NewPrescription opens a one-shot prescription composer
func (r *CartRegistry) NewPrescription() *PrescriptionComposer {
	return NewPrescriptionComposer(uuid.New().String(), r.orders)
}
