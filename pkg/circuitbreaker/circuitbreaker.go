package circuitbreaker

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

var (
	// MaxNumOfFailingRequests ...
	MaxNumOfFailingRequests = 10
	// FailingRatio ...
	FailingRatio = 0.6
	// OpenTimeout is how long a tripped breaker rejects requests before
	// letting a probe through.
	OpenTimeout = 30 * time.Second
)

// NewCircuitBreaker returns a *gobreaker.CircuitBreaker named after the
// remote service it guards. It trips once more than MaxNumOfFailingRequests
// requests have been made and at least FailingRatio of them failed. State
// changes are logged.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		Timeout:     OpenTimeout,
		ReadyToTrip: readyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			entry := log.WithField("breaker", name)
			if to == gobreaker.StateOpen {
				entry.Warnf("circuit breaker tripped, was %s", from)
				return
			}
			entry.Debugf("circuit breaker state changed from %s to %s", from, to)
		},
	})
}

func readyToTrip(counts gobreaker.Counts) bool {
	if int(counts.Requests) <= MaxNumOfFailingRequests {
		return false
	}
	ratio := float64(counts.TotalFailures) / float64(counts.Requests)
	return ratio >= FailingRatio
}
