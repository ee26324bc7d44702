package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/swaponline/swapd/internal/core/domain"
)

// ErrOrderOwnerMismatch is returned when upserting an order whose id is
// already taken by an order of another peer.
var ErrOrderOwnerMismatch = errors.New("order belongs to another peer")

// OrderBook holds the latest snapshot of the active orders, indexed by id.
type OrderBook struct {
	lock   *sync.RWMutex
	orders map[string]domain.Order
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		lock:   &sync.RWMutex{},
		orders: make(map[string]domain.Order),
	}
}

// Orders returns a copy of the active orders sorted by id.
func (b *OrderBook) Orders(_ context.Context) ([]domain.Order, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	orders := make([]domain.Order, 0, len(b.orders))
	for _, o := range b.orders {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

// Upsert adds or replaces the order with the same id. Only the owner of an
// order can replace it.
func (b *OrderBook) Upsert(order domain.Order) error {
	if err := order.Validate(); err != nil {
		return err
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	if o, ok := b.orders[order.ID]; ok && o.OwnerPeerID != order.OwnerPeerID {
		return ErrOrderOwnerMismatch
	}
	b.orders[order.ID] = order
	return nil
}

// Remove drops the order with the given id, if owned by the given peer.
func (b *OrderBook) Remove(ownerPeerID, id string) bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	o, ok := b.orders[id]
	if !ok || o.OwnerPeerID != ownerPeerID {
		return false
	}
	delete(b.orders, id)
	return true
}

// Replace swaps the whole snapshot with the given orders. Invalid orders are
// skipped.
func (b *OrderBook) Replace(orders []domain.Order) {
	snapshot := make(map[string]domain.Order, len(orders))
	for _, o := range orders {
		if o.Validate() == nil {
			snapshot[o.ID] = o
		}
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	b.orders = snapshot
}
