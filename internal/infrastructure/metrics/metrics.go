// Package metrics exposes the daemon counters as prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaponline/swapd/internal/core/ports"
)

const (
	namespace = "swapd"

	statusOk    = "ok"
	statusError = "error"
)

// Metrics holds all the prometheus collectors of the daemon.
type Metrics struct {
	FeeFetches     *prometheus.CounterVec
	Broadcasts     *prometheus.CounterVec
	MatchOutcomes  *prometheus.CounterVec
	SwapEvents     *prometheus.CounterVec
	RefundAttempts *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
}

// New returns a Metrics whose collectors are registered with reg. The
// default registerer is used if reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		FeeFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fee",
			Name:      "fetches_total",
			Help:      "Total number of fee estimate fetches by asset and status",
		}, []string{"asset", "status"}),
		Broadcasts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "broadcasts_total",
			Help:      "Total number of transaction broadcasts by asset and status",
		}, []string{"asset", "status"}),
		MatchOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matcher",
			Name:      "outcomes_total",
			Help:      "Total number of matching cycles by outcome",
		}, []string{"outcome"}),
		SwapEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "events_total",
			Help:      "Total number of swap events applied by type and status",
		}, []string{"event", "status"}),
		RefundAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "refund_attempts_total",
			Help:      "Total number of refund attempts by status",
		}, []string{"status"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "active_sessions",
			Help:      "Number of swap sessions currently supervised",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint of the given
// gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) FeeFetch(asset string, err error) {
	m.FeeFetches.WithLabelValues(asset, status(err)).Inc()
}

func (m *Metrics) Broadcast(asset string, err error) {
	m.Broadcasts.WithLabelValues(asset, status(err)).Inc()
}

func (m *Metrics) MatchOutcome(outcome string) {
	m.MatchOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SwapEvent(event string, err error) {
	m.SwapEvents.WithLabelValues(event, status(err)).Inc()
}

func (m *Metrics) RefundAttempt(err error) {
	m.RefundAttempts.WithLabelValues(status(err)).Inc()
}

func (m *Metrics) ActiveSwaps(count int) {
	m.ActiveSessions.Set(float64(count))
}

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusOk
}

var _ ports.Metrics = (*Metrics)(nil)
