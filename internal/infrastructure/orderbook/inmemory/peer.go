package inmemory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
)

// AnnouncedOrder is the payload of an order announced by a peer.
type AnnouncedOrder struct {
	ID                      string          `json:"id"`
	SellCurrency            string          `json:"sellCurrency"`
	BuyCurrency             string          `json:"buyCurrency"`
	SellAmount              decimal.Decimal `json:"sellAmount"`
	BuyAmount               decimal.Decimal `json:"buyAmount"`
	IsPartialClosureAllowed bool            `json:"isPartial"`
}

// RemovedOrder is the payload of an order withdrawn by a peer.
type RemovedOrder struct {
	ID string `json:"id"`
}

func (o AnnouncedOrder) toDomain(ownerPeerID string) (domain.Order, error) {
	sellCurrency, err := domain.ParseAsset(o.SellCurrency)
	if err != nil {
		return domain.Order{}, err
	}
	buyCurrency, err := domain.ParseAsset(o.BuyCurrency)
	if err != nil {
		return domain.Order{}, err
	}
	return domain.Order{
		ID:                      o.ID,
		OwnerPeerID:             ownerPeerID,
		SellCurrency:            sellCurrency,
		BuyCurrency:             buyCurrency,
		SellAmount:              o.SellAmount,
		BuyAmount:               o.BuyAmount,
		IsPartialClosureAllowed: o.IsPartialClosureAllowed,
	}, nil
}

// HandleNewOrder returns the handler adding the orders announced by peers to
// the book. The owner of an order is always the announcing peer.
func (b *OrderBook) HandleNewOrder() ports.PeerHandler {
	return func(
		_ context.Context, fromPeerID string, payload json.RawMessage,
	) (interface{}, error) {
		var announced AnnouncedOrder
		if err := json.Unmarshal(payload, &announced); err != nil {
			return nil, fmt.Errorf("invalid order payload: %w", err)
		}
		if announced.ID == "" {
			return nil, fmt.Errorf("missing order id")
		}

		order, err := announced.toDomain(fromPeerID)
		if err != nil {
			return nil, err
		}
		if err := b.Upsert(order); err != nil {
			return nil, err
		}

		log.WithFields(log.Fields{
			"peer_id":  fromPeerID,
			"order_id": order.ID,
		}).Debug("order added to book")
		return true, nil
	}
}

// HandleRemoveOrder returns the handler removing the orders withdrawn by
// their owners. Attempts to remove orders of other peers are ignored.
func (b *OrderBook) HandleRemoveOrder() ports.PeerHandler {
	return func(
		_ context.Context, fromPeerID string, payload json.RawMessage,
	) (interface{}, error) {
		var removed RemovedOrder
		if err := json.Unmarshal(payload, &removed); err != nil {
			return nil, fmt.Errorf("invalid order payload: %w", err)
		}

		ok := b.Remove(fromPeerID, removed.ID)
		if ok {
			log.WithFields(log.Fields{
				"peer_id":  fromPeerID,
				"order_id": removed.ID,
			}).Debug("order removed from book")
		}
		return ok, nil
	}
}
