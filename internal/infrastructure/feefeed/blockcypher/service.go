package blockcypher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
	"github.com/swaponline/swapd/pkg/httputil"
)

type chainInfo struct {
	LowFeePerKb    uint64 `json:"low_fee_per_kb"`
	MediumFeePerKb uint64 `json:"medium_fee_per_kb"`
	HighFeePerKb   uint64 `json:"high_fee_per_kb"`
}

type service struct {
	urls   map[domain.Asset]string
	client *httputil.Client
}

// NewService returns a fee feed fetching the chain info endpoint of the given
// url of every asset. Assets without url are reported as unavailable.
func NewService(
	urls map[domain.Asset]string, timeout time.Duration,
) ports.FeeFeed {
	feedURLs := make(map[domain.Asset]string)
	for asset, url := range urls {
		if url = strings.TrimSpace(url); url != "" {
			feedURLs[asset] = url
		}
	}
	return &service{
		urls:   feedURLs,
		client: httputil.NewClient("blockcypher", timeout),
	}
}

func (s *service) GetFeeEstimate(
	ctx context.Context, asset domain.Asset,
) (*ports.FeeEstimate, error) {
	url, ok := s.urls[asset]
	if !ok {
		return nil, ports.ErrFeeFeedUnavailable
	}

	status, resp, err := s.client.NewHTTPRequest(ctx, http.MethodGet, url, "", nil)
	if err != nil {
		return nil, domain.NewNetworkError("fee estimate", err)
	}
	if status != http.StatusOK {
		return nil, domain.NewNetworkError(
			"fee estimate", fmt.Errorf("%d %s", status, strings.TrimSpace(resp)),
		)
	}

	info := chainInfo{}
	if err := json.Unmarshal([]byte(resp), &info); err != nil {
		return nil, fmt.Errorf("invalid fee estimate: %w", err)
	}
	if info.LowFeePerKb == 0 || info.HighFeePerKb == 0 {
		return nil, ports.ErrFeeFeedUnavailable
	}

	return &ports.FeeEstimate{
		LowFeePerKb:  info.LowFeePerKb,
		HighFeePerKb: info.HighFeePerKb,
	}, nil
}
