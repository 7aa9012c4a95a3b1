package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"shanti-orders/internal/models"
	"shanti-orders/internal/util"

	"go.uber.org/zap"
)

// SchemaVersion is written with every saved order list
const SchemaVersion = 1

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrDuplicateID   = errors.New("order id already exists")
)

// KVBackend is a key-value substrate holding the serialized order list
// under a single key.
type KVBackend interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Store is the durable, newest-first list of orders. Every mutation loads
// the whole list, changes it and writes it back under one key.
//
// Writes within one process are serialized. Two processes sharing a
// backend are last-write-wins with no merge; the service assumes a
// single operator device.
type Store struct {
	backend KVBackend
	key     string
	mu      sync.Mutex
	logger  *zap.Logger
}

type envelope struct {
	Version int            `json:"version"`
	Orders  []models.Order `json:"orders"`
}

// NewStore creates an order store over a backend
func NewStore(backend KVBackend, key string) *Store {
	return &Store{
		backend: backend,
		key:     key,
		logger:  util.GetLogger(),
	}
}

// Close closes the underlying backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// LoadAll returns every order, newest first. A missing or unreadable list
// is returned as empty; only backend I/O failures are errors.
func (s *Store) LoadAll(ctx context.Context) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "Store.LoadAll")
	defer span.End()

	return s.load(ctx)
}

// SaveAll replaces the persisted list
func (s *Store) SaveAll(ctx context.Context, orders []models.Order) error {
	ctx, span := util.StartSpan(ctx, "Store.SaveAll")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(ctx, orders)
}

// Get returns a single order by id
func (s *Store) Get(ctx context.Context, id string) (*models.Order, error) {
	orders, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
}

// Insert prepends an order to the list
func (s *Store) Insert(ctx context.Context, order models.Order) error {
	ctx, span := util.StartSpan(ctx, "Store.Insert")
	defer span.End()

	return s.mutate(ctx, func(orders []models.Order) ([]models.Order, error) {
		for _, o := range orders {
			if o.ID == order.ID {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateID, order.ID)
			}
		}
		return append([]models.Order{order}, orders...), nil
	})
}

// UpdateStatus sets the status of one order. It does not check whether the
// move is a legal lifecycle transition; callers enforce that.
func (s *Store) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	_, _, err := s.UpdateStatusIf(ctx, id, status, nil)
	return err
}

// UpdateStatusIf sets the status of one order when check accepts its current
// status. check runs against the freshly loaded list while the write lock is
// held, so two callers racing on the same order cannot both pass it. It
// returns the updated order and the status it moved from.
func (s *Store) UpdateStatusIf(ctx context.Context, id string, status models.OrderStatus, check func(from models.OrderStatus) error) (*models.Order, models.OrderStatus, error) {
	ctx, span := util.StartSpan(ctx, "Store.UpdateStatus")
	defer span.End()

	var (
		updated models.Order
		from    models.OrderStatus
	)
	err := s.mutate(ctx, func(orders []models.Order) ([]models.Order, error) {
		for i := range orders {
			if orders[i].ID != id {
				continue
			}
			from = orders[i].Status
			if check != nil {
				if err := check(from); err != nil {
					return nil, err
				}
			}
			orders[i].Status = status
			updated = orders[i]
			return orders, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	})
	if err != nil {
		return nil, "", err
	}
	return &updated, from, nil
}

// Remove deletes one order, keeping the others in order
func (s *Store) Remove(ctx context.Context, id string) error {
	ctx, span := util.StartSpan(ctx, "Store.Remove")
	defer span.End()

	return s.mutate(ctx, func(orders []models.Order) ([]models.Order, error) {
		kept := make([]models.Order, 0, len(orders))
		for _, o := range orders {
			if o.ID != id {
				kept = append(kept, o)
			}
		}
		if len(kept) == len(orders) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		return kept, nil
	})
}

func (s *Store) mutate(ctx context.Context, fn func([]models.Order) ([]models.Order, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.load(ctx)
	if err != nil {
		return err
	}

	updated, err := fn(orders)
	if err != nil {
		return err
	}

	return s.save(ctx, updated)
}

func (s *Store) load(ctx context.Context) ([]models.Order, error) {
	raw, found, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read order list: %w", err)
	}
	if !found {
		return []models.Order{}, nil
	}

	orders, err := decodeOrders(raw)
	if err != nil {
		util.StorageReadRecoveries.Inc()
		s.logger.Warn("Order list unreadable, treating as empty",
			zap.String("key", s.key),
			zap.Int("bytes", len(raw)),
			zap.Error(err))
		return []models.Order{}, nil
	}
	return orders, nil
}

func (s *Store) save(ctx context.Context, orders []models.Order) error {
	start := time.Now()
	defer func() {
		util.StorageWriteLatency.Observe(time.Since(start).Seconds())
	}()

	if orders == nil {
		orders = []models.Order{}
	}

	raw, err := json.Marshal(envelope{Version: SchemaVersion, Orders: orders})
	if err != nil {
		return fmt.Errorf("failed to encode order list: %w", err)
	}

	if err := s.backend.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("failed to write order list: %w", err)
	}
	return nil
}

// decodeOrders accepts the versioned envelope and the bare array written
// by the browser storefront.
func decodeOrders(raw []byte) ([]models.Order, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []models.Order{}, nil
	}

	if trimmed[0] == '[' {
		var orders []models.Order
		if err := json.Unmarshal(trimmed, &orders); err != nil {
			return nil, err
		}
		if orders == nil {
			orders = []models.Order{}
		}
		return orders, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	if env.Version == 0 || env.Version > SchemaVersion {
		return nil, fmt.Errorf("unsupported order list version %d", env.Version)
	}
	if env.Orders == nil {
		env.Orders = []models.Order{}
	}
	return env.Orders, nil
}
