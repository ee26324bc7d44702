package esplora

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
	"github.com/swaponline/swapd/pkg/httputil"
	"go.uber.org/ratelimit"
)

// ErrMissingURL ...
var ErrMissingURL = errors.New("missing explorer url")

type esplora struct {
	apiURL  string
	client  *httputil.Client
	limiter ratelimit.Limiter
}

// NewService returns a new esplora service as a ports.Explorer interface. A
// requestsPerSecond of zero disables rate limiting.
func NewService(
	apiURL string, timeout time.Duration, requestsPerSecond int,
) (ports.Explorer, error) {
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		return nil, ErrMissingURL
	}

	limiter := ratelimit.NewUnlimited()
	if requestsPerSecond > 0 {
		limiter = ratelimit.New(requestsPerSecond)
	}

	return &esplora{
		apiURL:  apiURL,
		client:  httputil.NewClient(fmt.Sprintf("esplora %s", apiURL), timeout),
		limiter: limiter,
	}, nil
}

func (e *esplora) getBlockHeight(ctx context.Context) (uint64, error) {
	url := fmt.Sprintf("%s/blocks/tip/height", e.apiURL)
	resp, err := e.get(ctx, "block height", url)
	if err != nil {
		return 0, err
	}

	height, err := strconv.ParseUint(strings.TrimSpace(resp), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block height %q: %w", resp, err)
	}
	return height, nil
}

func (e *esplora) get(ctx context.Context, op, url string) (string, error) {
	e.limiter.Take()

	status, resp, err := e.client.NewHTTPRequest(ctx, http.MethodGet, url, "", nil)
	if err != nil {
		return "", domain.NewNetworkError(op, err)
	}
	if status != http.StatusOK {
		return "", statusError(op, status, resp)
	}
	return resp, nil
}

// statusError maps a non-OK response to an error. Server side failures and
// throttling are reported as retryable network errors.
func statusError(op string, status int, resp string) error {
	err := fmt.Errorf("%d %s", status, strings.TrimSpace(resp))
	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		return domain.NewNetworkError(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func confirmations(st status, tip uint64) uint64 {
	if !st.Confirmed || st.BlockHeight == 0 || st.BlockHeight > tip {
		return 0
	}
	return tip - st.BlockHeight + 1
}
