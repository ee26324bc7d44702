package fee_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
)

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
