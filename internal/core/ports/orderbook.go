package ports

import (
	"context"

	"github.com/swaponline/swapd/internal/core/domain"
)

// OrderBook returns a read-only snapshot of the active orders.
type OrderBook interface {
	Orders(ctx context.Context) ([]domain.Order, error)
}
