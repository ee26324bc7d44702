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

const (
	// DefaultTickInterval ...
	DefaultTickInterval = 10 * time.Second

	updatesBufferSize = 64
)

var (
	// ErrSwapNotSupervised ...
	ErrSwapNotSupervised = errors.New("swap is not supervised")
	// ErrSupervisorStopped ...
	ErrSupervisorStopped = errors.New("supervisor is stopped")
)

// FlowFactory returns the refund flow exclusively owned by the given session.
type FlowFactory func(session *domain.SwapSession) (ports.RefundFlow, error)

type supervised struct {
	machine *Machine
	cancel  context.CancelFunc
}

// Supervisor runs the refund timer of every active swap session, each with
// its own ticker, and publishes every session update. Sessions are archived,
// ie. not supervised anymore, once finished or refunded.
type Supervisor struct {
	repo     domain.SwapRepository
	newFlow  FlowFactory
	interval time.Duration
	metrics  ports.Metrics

	lock     *sync.RWMutex
	machines map[string]supervised
	stopped  bool
	wg       *sync.WaitGroup

	updates chan domain.SwapSession
}

func NewSupervisor(
	repo domain.SwapRepository, newFlow FlowFactory, interval time.Duration,
	metrics ports.Metrics,
) (*Supervisor, error) {
	if repo == nil {
		return nil, ErrMissingRepository
	}
	if newFlow == nil {
		return nil, ErrMissingRefundFlow
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &Supervisor{
		repo:     repo,
		newFlow:  newFlow,
		interval: interval,
		metrics:  metrics,
		lock:     &sync.RWMutex{},
		machines: make(map[string]supervised),
		wg:       &sync.WaitGroup{},
		updates:  make(chan domain.SwapSession, updatesBufferSize),
	}, nil
}

// Resume starts supervising every active session found in the repository.
func (s *Supervisor) Resume(ctx context.Context) error {
	sessions, err := s.repo.GetActiveSwaps(ctx)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if _, err := s.watch(session); err != nil {
			log.WithError(err).WithField("swap_id", session.ID).Warn(
				"failed to resume swap",
			)
			continue
		}
	}
	log.Infof("resumed %d active swaps", s.count())
	return nil
}

// Add persists a new session and starts supervising it.
func (s *Supervisor) Add(
	ctx context.Context, session *domain.SwapSession,
) (*Machine, error) {
	if s.isStopped() {
		return nil, ErrSupervisorStopped
	}
	if err := s.repo.AddSwap(ctx, session); err != nil {
		return nil, err
	}
	return s.watch(session)
}

// Get returns the machine of a supervised session.
func (s *Supervisor) Get(id string) (*Machine, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	sv, ok := s.machines[id]
	return sv.machine, ok
}

// Advance applies the event to a supervised session. The refund flow of the
// session is rebuilt when the event brings a refund transaction, which is
// rejected before touching the session if the flow can't be built with it.
func (s *Supervisor) Advance(
	ctx context.Context, id string, ev domain.Event,
) (*domain.SwapSession, error) {
	machine, ok := s.Get(id)
	if !ok {
		return nil, ErrSwapNotSupervised
	}

	var flow ports.RefundFlow
	if ev.Type == domain.EventPrimaryDeposited && ev.RefundTxHex != "" {
		next := machine.Session()
		next.RefundTxHex = ev.RefundTxHex
		f, err := s.newFlow(&next)
		if err != nil {
			return nil, err
		}
		flow = f
	}

	session, err := machine.advance(ctx, ev, flow)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		s.archive(id)
	}
	return session, nil
}

// Reconcile unfreezes a supervised session.
func (s *Supervisor) Reconcile(
	ctx context.Context, id string, step domain.Step,
) (*domain.SwapSession, error) {
	machine, ok := s.Get(id)
	if !ok {
		return nil, ErrSwapNotSupervised
	}
	return machine.Reconcile(ctx, step)
}

// Updates returns the channel where session updates are published. Updates
// are dropped if the channel is full.
func (s *Supervisor) Updates() <-chan domain.SwapSession {
	return s.updates
}

// Stop stops every ticker and waits for them to return.
func (s *Supervisor) Stop() {
	s.lock.Lock()
	s.stopped = true
	for id, sv := range s.machines {
		sv.cancel()
		delete(s.machines, id)
	}
	s.lock.Unlock()

	s.wg.Wait()
	s.metrics.ActiveSwaps(0)
}

func (s *Supervisor) watch(session *domain.SwapSession) (*Machine, error) {
	flow, err := s.newFlow(session)
	if err != nil {
		return nil, err
	}
	machine, err := NewMachine(session, s.repo, flow, s.metrics)
	if err != nil {
		return nil, err
	}
	machine.onUpdate = s.publish

	ctx, cancel := context.WithCancel(context.Background())

	s.lock.Lock()
	if s.stopped {
		s.lock.Unlock()
		cancel()
		return nil, ErrSupervisorStopped
	}
	if old, ok := s.machines[session.ID]; ok {
		old.cancel()
	}
	s.machines[session.ID] = supervised{machine, cancel}
	count := len(s.machines)
	s.lock.Unlock()

	s.metrics.ActiveSwaps(count)

	s.wg.Add(1)
	go s.run(ctx, machine)

	return machine, nil
}

func (s *Supervisor) run(ctx context.Context, machine *Machine) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// nolint:errcheck
			machine.Tick(ctx)
			session := machine.Session()
			if session.IsTerminal() {
				s.archive(machine.ID())
				return
			}
		}
	}
}

func (s *Supervisor) archive(id string) {
	s.lock.Lock()
	sv, ok := s.machines[id]
	if ok {
		sv.cancel()
		delete(s.machines, id)
	}
	count := len(s.machines)
	s.lock.Unlock()

	if ok {
		s.metrics.ActiveSwaps(count)
		log.WithField("swap_id", id).Debug("swap archived")
	}
}

func (s *Supervisor) publish(session domain.SwapSession) {
	select {
	case s.updates <- session:
	default:
		log.WithField("swap_id", session.ID).Debug(
			"updates channel full, dropping swap update",
		)
	}
}

func (s *Supervisor) count() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.machines)
}

func (s *Supervisor) isStopped() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.stopped
}
