package fee

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

// DefaultRequestTimeout bounds every remote fee fetch if no timeout is given.
const DefaultRequestTimeout = 15 * time.Second

// Service returns the fee schedules of the supported assets. Remote
// estimates are floored by the hardcoded defaults and optionally overridden
// by user-supplied tiers.
type Service struct {
	feed    ports.FeeFeed
	timeout time.Duration
	metrics ports.Metrics

	group singleflight.Group

	lock      sync.RWMutex
	overrides map[domain.Asset]domain.FeeSchedule
}

// NewService returns a fee service. A nil feed makes the service always
// return the default schedules.
func NewService(
	feed ports.FeeFeed, timeout time.Duration, metrics ports.Metrics,
) *Service {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &Service{
		feed:      feed,
		timeout:   timeout,
		metrics:   metrics,
		overrides: make(map[domain.Asset]domain.FeeSchedule),
	}
}

// GetFeeSchedule never fails: any problem with the remote feed makes it fall
// back to the default schedule of the asset. Concurrent calls for the same
// asset share a single remote fetch.
func (s *Service) GetFeeSchedule(
	ctx context.Context, asset domain.Asset,
) domain.FeeSchedule {
	schedule := s.fetchFeeSchedule(ctx, asset)

	s.lock.RLock()
	custom, ok := s.overrides[asset]
	s.lock.RUnlock()
	if ok {
		schedule = schedule.Override(custom).Normalize(asset)
	}
	return schedule
}

// SetFeeRate registers custom tiers for the asset. Zero tiers are left to
// the fetched schedule. The override is rejected if any tier is below the
// default floor or if it isn't monotonic against it. Overridden schedules
// are still floored and made non decreasing when returned.
func (s *Service) SetFeeRate(asset domain.Asset, custom domain.FeeSchedule) error {
	if !asset.IsValid() {
		return domain.ErrUnknownAsset
	}
	if err := custom.ValidateOverride(asset); err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.overrides[asset] = custom
	return nil
}

// ResetFeeRate drops the custom tiers of the asset, if any.
func (s *Service) ResetFeeRate(asset domain.Asset) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.overrides, asset)
}

func (s *Service) fetchFeeSchedule(
	ctx context.Context, asset domain.Asset,
) domain.FeeSchedule {
	defaultSchedule := domain.DefaultFeeSchedule(asset)
	if s.feed == nil {
		return defaultSchedule
	}

	resultChan := s.group.DoChan(asset.String(), func() (interface{}, error) {
		// Not bound to the caller's context since the result is shared among
		// callers.
		fetchCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		estimate, err := s.feed.GetFeeEstimate(fetchCtx, asset)
		s.metrics.FeeFetch(asset.String(), err)
		if err != nil {
			return nil, err
		}
		if estimate == nil {
			return nil, ports.ErrFeeFeedUnavailable
		}
		return domain.NewFeeScheduleFromEstimate(
			asset, estimate.LowFeePerKb, estimate.HighFeePerKb,
		), nil
	})

	select {
	case <-ctx.Done():
		return defaultSchedule
	case res := <-resultChan:
		if res.Err != nil {
			log.WithError(res.Err).WithField("asset", asset).Debug(
				"fee estimate unavailable, using default schedule",
			)
			return defaultSchedule
		}
		return res.Val.(domain.FeeSchedule)
	}
}
