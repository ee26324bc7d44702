package metrics_test

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/swaponline/swapd/internal/infrastructure/metrics"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.FeeFetch("BTC", nil)
	m.FeeFetch("BTC", fmt.Errorf("timeout"))
	m.FeeFetch("LTC", nil)
	m.Broadcast("LTC", nil)
	m.MatchOutcome("matched")
	m.MatchOutcome("no_offers")
	m.MatchOutcome("no_offers")
	m.SwapEvent("confirm", nil)
	m.RefundAttempt(fmt.Errorf("non-final"))
	m.ActiveSwaps(3)

	require.Equal(t, float64(1), testutil.ToFloat64(m.FeeFetches.WithLabelValues("BTC", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.FeeFetches.WithLabelValues("BTC", "error")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.FeeFetches.WithLabelValues("LTC", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.Broadcasts.WithLabelValues("LTC", "ok")))
	require.Equal(t, float64(2), testutil.ToFloat64(m.MatchOutcomes.WithLabelValues("no_offers")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.SwapEvents.WithLabelValues("confirm", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.RefundAttempts.WithLabelValues("error")))
	require.Equal(t, float64(3), testutil.ToFloat64(m.ActiveSessions))

	count, err := testutil.GatherAndCount(reg, "swapd_matcher_outcomes_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestHandler(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ActiveSwaps(1)

	srv := httptest.NewServer(metrics.Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "swapd_swap_active_sessions 1"))
}
