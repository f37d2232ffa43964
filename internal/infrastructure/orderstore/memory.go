package orderstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wcpay-checkout/internal/domain/order"
)

// MemoryStore keeps orders in process
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[int64]*order.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[int64]*order.Order)}
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) Save(ctx context.Context, o *order.Order) error {
	if o == nil || o.ID <= 0 {
		return fmt.Errorf("order store: id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (s *MemoryStore) FindPaidByCartHash(ctx context.Context, customerID, cartHash string, since time.Time, excludeID int64) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *order.Order
	for _, o := range s.orders {
		if o.ID == excludeID || o.CustomerID != customerID || o.CartHash != cartHash || !o.Status.IsPaid() {
			continue
		}
		if o.PaidAt == nil || o.PaidAt.Before(since) {
			continue
		}
		if found == nil || o.PaidAt.After(*found.PaidAt) {
			found = o
		}
	}

	if found == nil {
		return nil, order.ErrNotFound
	}
	return cloneOrder(found), nil
}

func cloneOrder(o *order.Order) *order.Order {
	c := *o
	c.Notes = append([]string(nil), o.Notes...)
	if o.PaidAt != nil {
		paidAt := *o.PaidAt
		c.PaidAt = &paidAt
	}
	return &c
}
