package ports

import (
	"context"
	"errors"

	"github.com/swaponline/swapd/internal/core/domain"
)

// ErrFeeFeedUnavailable is returned by a FeeFeed without a source for an
// asset.
var ErrFeeFeedUnavailable = errors.New("fee feed unavailable")

// FeeEstimate is the remote fee estimate of an asset, in sats per kilobyte.
type FeeEstimate struct {
	LowFeePerKb  uint64
	HighFeePerKb uint64
}

// FeeFeed fetches remote fee estimates.
type FeeFeed interface {
	GetFeeEstimate(ctx context.Context, asset domain.Asset) (*FeeEstimate, error)
}
