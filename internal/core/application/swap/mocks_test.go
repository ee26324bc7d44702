package swap_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
)

// **** Refund flow ****

type mockRefundFlow struct {
	mock.Mock
}

func (m *mockRefundFlow) State() ports.FlowState {
	args := m.Called()
	return args.Get(0).(ports.FlowState)
}

func (m *mockRefundFlow) TryRefund(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// **** Swap repository ****

type inMemorySwapRepository struct {
	lock  *sync.Mutex
	swaps map[string]domain.SwapSession
	// failUpdates makes every update fail with the given error.
	failUpdates error
}

func newInMemorySwapRepository() *inMemorySwapRepository {
	return &inMemorySwapRepository{
		lock:  &sync.Mutex{},
		swaps: make(map[string]domain.SwapSession),
	}
}

func (r *inMemorySwapRepository) AddSwap(
	_ context.Context, swap *domain.SwapSession,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.swaps[swap.ID] = *swap
	return nil
}

func (r *inMemorySwapRepository) GetSwap(
	_ context.Context, id string,
) (*domain.SwapSession, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	s, ok := r.swaps[id]
	if !ok {
		return nil, domain.ErrSwapNotFound
	}
	return &s, nil
}

func (r *inMemorySwapRepository) GetAllSwaps(
	_ context.Context,
) ([]*domain.SwapSession, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	swaps := make([]*domain.SwapSession, 0, len(r.swaps))
	for id := range r.swaps {
		s := r.swaps[id]
		swaps = append(swaps, &s)
	}
	return swaps, nil
}

func (r *inMemorySwapRepository) GetActiveSwaps(
	ctx context.Context,
) ([]*domain.SwapSession, error) {
	all, _ := r.GetAllSwaps(ctx)
	active := make([]*domain.SwapSession, 0, len(all))
	for _, s := range all {
		if !s.IsTerminal() {
			active = append(active, s)
		}
	}
	return active, nil
}

func (r *inMemorySwapRepository) UpdateSwap(
	_ context.Context, id string,
	updateFn func(s *domain.SwapSession) (*domain.SwapSession, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.failUpdates != nil {
		return r.failUpdates
	}
	s, ok := r.swaps[id]
	if !ok {
		return domain.ErrSwapNotFound
	}
	updated, err := updateFn(&s)
	if err != nil {
		return err
	}
	r.swaps[id] = *updated
	return nil
}

func (r *inMemorySwapRepository) setFailUpdates(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.failUpdates = err
}

// **** Order book ****

type mockOrderBook struct {
	mock.Mock
}

func (m *mockOrderBook) Orders(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	var res []domain.Order
	if a := args.Get(0); a != nil {
		res = a.([]domain.Order)
	}
	return res, args.Error(1)
}
