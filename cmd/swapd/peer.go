package main

import (
	"github.com/swaponline/swapd/internal/core/application/swap"
	"github.com/swaponline/swapd/internal/core/ports"
	"github.com/swaponline/swapd/internal/infrastructure/orderbook/inmemory"
)

type peerHandlerRegistry interface {
	Handle(kind string, handler ports.PeerHandler)
}

// registerPeerHandlers makes the peer channel keep the order book in sync
// with the announcements of the other peers and serve the swaps proposed to
// the local orders.
func registerPeerHandlers(
	peer peerHandlerRegistry, book *inmemory.OrderBook, responder *swap.Responder,
) {
	peer.Handle(ports.PeerNewOrder, book.HandleNewOrder())
	peer.Handle(ports.PeerRemoveOrder, book.HandleRemoveOrder())
	peer.Handle(ports.PeerRequestPartialClosure, responder.HandlePartialClosure())
	peer.Handle(ports.PeerRequestOrder, responder.HandleOrderRequest())
	peer.Handle(ports.PeerSwapEvent, responder.HandleSwapEvent())
}
