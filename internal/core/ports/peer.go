package ports

import (
	"context"
	"encoding/json"
)

const (
	// PeerRequestPartialClosure asks the owner of an order to fill it
	// partially.
	PeerRequestPartialClosure = "request partial closure"
	// PeerRequestOrder asks the owner of a (derived) order to accept it.
	PeerRequestOrder = "request order"
	// PeerNewOrder announces a new or updated order of the sender.
	PeerNewOrder = "new order"
	// PeerRemoveOrder announces the removal of an order of the sender.
	PeerRemoveOrder = "remove order"
	// PeerSwapEvent notifies the counterparty of a swap of a step made by the
	// sender.
	PeerSwapEvent = "swap event"
)

// PeerChannel is a request/response RPC channel towards other peers. No
// ordering is guaranteed across requests to distinct peers.
type PeerChannel interface {
	Request(
		ctx context.Context, kind, peerID string, payload interface{},
	) (json.RawMessage, error)
}

// PeerHandler serves requests of a given kind coming from other peers.
type PeerHandler func(
	ctx context.Context, fromPeerID string, payload json.RawMessage,
) (interface{}, error)
