package matcher_test

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
	"github.com/swaponline/swapd/internal/core/domain"
)

// **** Order book ****

type mockOrderBook struct {
	mock.Mock
}

func (m *mockOrderBook) Orders(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)

	var res []domain.Order
	if a := args.Get(0); a != nil {
		res = a.([]domain.Order)
	}
	return res, args.Error(1)
}

// **** Peer channel ****

type mockPeerChannel struct {
	mock.Mock
}

func (m *mockPeerChannel) Request(
	ctx context.Context, kind, peerID string, payload interface{},
) (json.RawMessage, error) {
	args := m.Called(ctx, kind, peerID, payload)

	var res json.RawMessage
	if a := args.Get(0); a != nil {
		res = json.RawMessage(a.(string))
	}
	return res, args.Error(1)
}
