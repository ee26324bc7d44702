package application_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
)

// **** Explorer ****

type mockExplorer struct {
	mock.Mock
}

func (m *mockExplorer) ListUnspent(
	ctx context.Context, address string,
) ([]domain.UnspentOutput, error) {
	args := m.Called(ctx, address)

	var res []domain.UnspentOutput
	if a := args.Get(0); a != nil {
		res = a.([]domain.UnspentOutput)
	}
	return res, args.Error(1)
}

func (m *mockExplorer) GetAddressSummary(
	ctx context.Context, address string,
) (*ports.AddressSummary, error) {
	args := m.Called(ctx, address)

	var res *ports.AddressSummary
	if a := args.Get(0); a != nil {
		res = a.(*ports.AddressSummary)
	}
	return res, args.Error(1)
}

func (m *mockExplorer) GetTransactionsForAddress(
	ctx context.Context, address string,
) ([]ports.TxRecord, error) {
	args := m.Called(ctx, address)

	var res []ports.TxRecord
	if a := args.Get(0); a != nil {
		res = a.([]ports.TxRecord)
	}
	return res, args.Error(1)
}

func (m *mockExplorer) Broadcast(ctx context.Context, txHex string) (string, error) {
	args := m.Called(ctx, txHex)
	return args.String(0), args.Error(1)
}

// **** Fee feed ****

type mockFeeFeed struct {
	mock.Mock
}

func (m *mockFeeFeed) GetFeeEstimate(
	ctx context.Context, asset domain.Asset,
) (*ports.FeeEstimate, error) {
	args := m.Called(ctx, asset)

	var res *ports.FeeEstimate
	if a := args.Get(0); a != nil {
		res = a.(*ports.FeeEstimate)
	}
	return res, args.Error(1)
}
