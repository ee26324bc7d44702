package swap_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/swaponline/swapd/internal/core/application/swap"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
)

const testTickInterval = 10 * time.Millisecond

func TestSupervisorRefundsExpiredSwaps(t *testing.T) {
	repo := newInMemorySwapRepository()
	expired := advanceSession(
		t, repo, newSession(t, repo), time.Now().Add(-time.Minute).Unix(),
	)
	pending := advanceSession(
		t, repo, newSession(t, repo), time.Now().Add(time.Hour).Unix(),
	)

	flows := map[string]*mockRefundFlow{}
	for _, id := range []string{expired.ID, pending.ID} {
		flow := &mockRefundFlow{}
		flow.On("State").Return(ports.FlowState{})
		flow.On("TryRefund", mock.Anything).Return(nil)
		flows[id] = flow
	}

	supervisor, err := swap.NewSupervisor(
		repo,
		func(s *domain.SwapSession) (ports.RefundFlow, error) {
			return flows[s.ID], nil
		},
		testTickInterval, nil,
	)
	require.NoError(t, err)
	defer supervisor.Stop()

	require.NoError(t, supervisor.Resume(ctx))

	select {
	case update := <-supervisor.Updates():
		require.Equal(t, expired.ID, update.ID)
		require.True(t, update.IsRefunded)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for swap update")
	}

	require.Eventually(t, func() bool {
		_, ok := supervisor.Get(expired.ID)
		return !ok
	}, time.Second, testTickInterval)

	_, ok := supervisor.Get(pending.ID)
	require.True(t, ok)

	stored, err := repo.GetSwap(ctx, expired.ID)
	require.NoError(t, err)
	require.True(t, stored.IsRefunded)
	flows[expired.ID].AssertNumberOfCalls(t, "TryRefund", 1)
	flows[pending.ID].AssertNotCalled(t, "TryRefund", mock.Anything)
}

func TestSupervisorAdvance(t *testing.T) {
	repo := newInMemorySwapRepository()
	flow := &mockRefundFlow{}
	supervisor, err := swap.NewSupervisor(
		repo,
		func(*domain.SwapSession) (ports.RefundFlow, error) { return flow, nil },
		time.Hour, nil,
	)
	require.NoError(t, err)
	defer supervisor.Stop()

	session := newSession(t, newInMemorySwapRepository())
	_, err = supervisor.Add(ctx, session)
	require.NoError(t, err)

	events := []domain.Event{
		{Type: domain.EventConfirm},
		{Type: domain.EventPrimaryDeposited, LockTime: time.Now().Add(time.Hour).Unix()},
		{Type: domain.EventDepositConfirmed},
		{Type: domain.EventDepositConfirmed},
		{Type: domain.EventCounterDeposited},
		{Type: domain.EventWithdrawBroadcast},
	}
	for _, ev := range events {
		_, err := supervisor.Advance(ctx, session.ID, ev)
		require.NoError(t, err)
	}
	_, ok := supervisor.Get(session.ID)
	require.True(t, ok)

	updated, err := supervisor.Advance(
		ctx, session.ID, domain.Event{Type: domain.EventWithdrawConfirmed},
	)
	require.NoError(t, err)
	require.True(t, updated.IsFinished)

	_, ok = supervisor.Get(session.ID)
	require.False(t, ok)

	_, err = supervisor.Advance(ctx, session.ID, domain.Event{Type: domain.EventConfirm})
	require.ErrorIs(t, err, swap.ErrSwapNotSupervised)

	for i := 0; i < len(events)+1; i++ {
		update := <-supervisor.Updates()
		require.Equal(t, session.ID, update.ID)
		require.Equal(t, domain.Step(i+1), update.Step)
	}
}

func TestSupervisorResumeSkipsTerminalSwaps(t *testing.T) {
	repo := newInMemorySwapRepository()
	active := newSession(t, repo)
	refunded := advanceSession(
		t, repo, newSession(t, repo), time.Now().Add(-time.Minute).Unix(),
	)
	err := repo.UpdateSwap(ctx, refunded.ID, func(s *domain.SwapSession) (*domain.SwapSession, error) {
		return s, s.Advance(domain.Event{Type: domain.EventRefunded})
	})
	require.NoError(t, err)

	supervisor, err := swap.NewSupervisor(
		repo,
		func(*domain.SwapSession) (ports.RefundFlow, error) {
			return &mockRefundFlow{}, nil
		},
		time.Hour, nil,
	)
	require.NoError(t, err)

	require.NoError(t, supervisor.Resume(ctx))
	_, ok := supervisor.Get(active.ID)
	require.True(t, ok)
	_, ok = supervisor.Get(refunded.ID)
	require.False(t, ok)

	supervisor.Stop()
	_, ok = supervisor.Get(active.ID)
	require.False(t, ok)

	_, err = supervisor.Add(ctx, newSession(t, newInMemorySwapRepository()))
	require.ErrorIs(t, err, swap.ErrSupervisorStopped)
}

func TestSupervisorFlowFactoryFailure(t *testing.T) {
	repo := newInMemorySwapRepository()
	supervisor, err := swap.NewSupervisor(
		repo,
		func(*domain.SwapSession) (ports.RefundFlow, error) {
			return nil, errors.New("malformed refund tx")
		},
		time.Hour, nil,
	)
	require.NoError(t, err)
	defer supervisor.Stop()

	session := newSession(t, repo)
	require.NoError(t, supervisor.Resume(ctx))
	_, ok := supervisor.Get(session.ID)
	require.False(t, ok)
}
