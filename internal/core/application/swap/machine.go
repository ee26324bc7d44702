package swap

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
)

var (
	// ErrMissingRepository ...
	ErrMissingRepository = errors.New("missing swap repository")
	// ErrMissingRefundFlow ...
	ErrMissingRefundFlow = errors.New("missing refund flow")
	// ErrMissingSession ...
	ErrMissingSession = errors.New("missing swap session")
)

// Machine drives a single swap session. Transitions and refund-timer ticks
// are serialized, every change is persisted before being visible.
type Machine struct {
	lock    *sync.Mutex
	session *domain.SwapSession

	repo     domain.SwapRepository
	flow     ports.RefundFlow
	metrics  ports.Metrics
	now      func() time.Time
	onUpdate func(domain.SwapSession)
}

func NewMachine(
	session *domain.SwapSession, repo domain.SwapRepository,
	flow ports.RefundFlow, metrics ports.Metrics,
) (*Machine, error) {
	if session == nil {
		return nil, ErrMissingSession
	}
	if repo == nil {
		return nil, ErrMissingRepository
	}
	if flow == nil {
		return nil, ErrMissingRefundFlow
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	s := *session
	return &Machine{
		lock:    &sync.Mutex{},
		session: &s,
		repo:    repo,
		flow:    flow,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

// ID ...
func (m *Machine) ID() string {
	return m.session.ID
}

// Session returns a copy of the current session.
func (m *Machine) Session() domain.SwapSession {
	m.lock.Lock()
	defer m.lock.Unlock()
	return *m.session
}

// Advance applies the event to the session and persists the result. An
// invalid event freezes the session, which then rejects any event until
// Reconcile is called.
func (m *Machine) Advance(
	ctx context.Context, ev domain.Event,
) (*domain.SwapSession, error) {
	return m.advance(ctx, ev, nil)
}

// advance is Advance, that also replaces the refund flow with the given one,
// if any, once the event is applied.
func (m *Machine) advance(
	ctx context.Context, ev domain.Event, flow ports.RefundFlow,
) (*domain.SwapSession, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	logger := log.WithFields(log.Fields{"swap_id": m.session.ID, "event": ev.Type})

	err := m.update(ctx, func(s *domain.SwapSession) error {
		if s.Frozen {
			return domain.ErrSessionFrozen
		}
		return s.Advance(ev)
	})
	m.metrics.SwapEvent(string(ev.Type), err)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			logger.WithError(err).Warn("invalid transition, freezing swap")
			if ferr := m.update(ctx, func(s *domain.SwapSession) error {
				s.Freeze()
				return nil
			}); ferr != nil {
				logger.WithError(ferr).Error("failed to freeze swap")
			}
		}
		return nil, err
	}

	if flow != nil {
		m.flow = flow
	}
	logger.WithField("step", m.session.Step).Debug("swap advanced")
	s := *m.session
	return &s, nil
}

// Reconcile unfreezes the session after an external reconciliation moved it
// to the given step.
func (m *Machine) Reconcile(
	ctx context.Context, step domain.Step,
) (*domain.SwapSession, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if err := m.update(ctx, func(s *domain.SwapSession) error {
		return s.Reconcile(step)
	}); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"swap_id": m.session.ID, "step": step,
	}).Info("swap reconciled")
	s := *m.session
	return &s, nil
}

// Tick evaluates the refund timer: once the lock time has passed and the
// flow is neither finished nor refunded, the refund is tried once. A failure
// is returned and the refund is re-evaluated at the next tick.
func (m *Machine) Tick(ctx context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.session.LockTimeUnix == nil || m.session.IsTerminal() ||
		m.session.Step < domain.StepPrimaryDeposited {
		return nil
	}
	timeLeft := *m.session.LockTimeUnix - m.now().Unix()
	if timeLeft >= 0 {
		return nil
	}

	logger := log.WithField("swap_id", m.session.ID)

	state := m.flow.State()
	if state.IsFinished {
		return nil
	}
	if !state.IsRefunded {
		err := m.flow.TryRefund(ctx)
		m.metrics.RefundAttempt(err)
		if err != nil {
			logger.WithError(err).Warn("refund attempt failed, retrying at next tick")
			return err
		}
		logger.Info("swap refunded")
	}

	// A refund is recorded even for frozen sessions.
	return m.update(ctx, func(s *domain.SwapSession) error {
		return s.Advance(domain.Event{Type: domain.EventRefunded})
	})
}

func (m *Machine) update(
	ctx context.Context, fn func(s *domain.SwapSession) error,
) error {
	var updated *domain.SwapSession
	if err := m.repo.UpdateSwap(
		ctx, m.session.ID,
		func(s *domain.SwapSession) (*domain.SwapSession, error) {
			if err := fn(s); err != nil {
				return nil, err
			}
			updated = s
			return s, nil
		},
	); err != nil {
		return err
	}

	m.session = updated
	if m.onUpdate != nil {
		m.onUpdate(*updated)
	}
	return nil
}
