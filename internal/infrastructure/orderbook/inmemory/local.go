package inmemory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// AddLocal adds an order of the local peer to the book.
func (b *OrderBook) AddLocal(selfID string, o AnnouncedOrder) error {
	if o.ID == "" {
		return fmt.Errorf("missing order id")
	}
	order, err := o.toDomain(selfID)
	if err != nil {
		return err
	}
	order.IsMine = true
	return b.Upsert(order)
}

// LoadLocalOrders adds the orders listed in the JSON file at path as orders of
// the local peer. A missing file adds nothing.
func (b *OrderBook) LoadLocalOrders(selfID, path string) (int, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	var orders []AnnouncedOrder
	if err := json.Unmarshal(buf, &orders); err != nil {
		return 0, fmt.Errorf("invalid orders file: %w", err)
	}
	for i, o := range orders {
		if err := b.AddLocal(selfID, o); err != nil {
			return i, fmt.Errorf("order %q: %w", o.ID, err)
		}
	}
	return len(orders), nil
}
