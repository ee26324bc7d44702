package ports

// Metrics collects the counters of the daemon. A nil Metrics is never passed
// around, use NoopMetrics instead.
type Metrics interface {
	FeeFetch(asset string, err error)
	Broadcast(asset string, err error)
	MatchOutcome(outcome string)
	SwapEvent(event string, err error)
	RefundAttempt(err error)
	ActiveSwaps(count int)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) FeeFetch(string, error)  {}
func (NoopMetrics) Broadcast(string, error) {}
func (NoopMetrics) MatchOutcome(string)     {}
func (NoopMetrics) SwapEvent(string, error) {}
func (NoopMetrics) RefundAttempt(error)     {}
func (NoopMetrics) ActiveSwaps(int)         {}
