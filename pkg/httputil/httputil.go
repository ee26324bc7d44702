package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/swaponline/swapd/pkg/circuitbreaker"
)

// DefaultTimeout bounds every request made by a Client created without an
// explicit timeout.
const DefaultTimeout = 30 * time.Second

// Client makes HTTP calls bounded by a timeout and guarded by a circuit
// breaker. Only transport failures count as breaker failures, any response
// received from the server is returned to the caller along with its status.
type Client struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient returns a Client with the given name for its breaker.
func NewClient(name string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		breaker: circuitbreaker.NewCircuitBreaker(name),
	}
}

type response struct {
	status int
	body   string
}

// NewHTTPRequest function builds http call
// @param method <string>: http method
// @param url <string>: URL http to call
// @return <int>, <string>, error
func (c *Client) NewHTTPRequest(
	ctx context.Context, method, url, bodyString string, header map[string]string,
) (int, string, error) {
	switch method {
	case http.MethodGet, http.MethodPost:
	default:
		return 0, "", fmt.Errorf("verb not supported %s", method)
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, method, url, bodyString, header)
	})
	if err != nil {
		return 0, "", err
	}
	r := res.(*response)
	return r.status, r.body, nil
}

func (c *Client) do(
	ctx context.Context, method, url, bodyString string, header map[string]string,
) (*response, error) {
	var body io.Reader
	if len(bodyString) > 0 {
		body = strings.NewReader(bodyString)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer rs.Body.Close()

	bodyBytes, err := io.ReadAll(rs.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response body: %w", err)
	}

	return &response{rs.StatusCode, string(bodyBytes)}, nil
}
