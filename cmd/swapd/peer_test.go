package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/swaponline/swapd/internal/core/application/matcher"
	"github.com/swaponline/swapd/internal/core/application/swap"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
	"github.com/swaponline/swapd/internal/infrastructure/orderbook/inmemory"
	websocketpeer "github.com/swaponline/swapd/internal/infrastructure/peer/websocket"
	dbbadger "github.com/swaponline/swapd/internal/infrastructure/storage/badger"
)

type noopRefundFlow struct{}

func (noopRefundFlow) State() ports.FlowState { return ports.FlowState{} }
func (noopRefundFlow) TryRefund(context.Context) error { return nil }

func TestPeerHandlersDriveSwap(t *testing.T) {
	url := newTestRelay(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Daemon side.
	repo, err := dbbadger.NewSwapRepository("", nil)
	require.NoError(t, err)
	defer repo.Close()

	refundTxs := make(chan string, 2)
	supervisor, err := swap.NewSupervisor(
		repo,
		func(s *domain.SwapSession) (ports.RefundFlow, error) {
			refundTxs <- s.RefundTxHex
			return noopRefundFlow{}, nil
		},
		time.Hour, nil,
	)
	require.NoError(t, err)
	defer supervisor.Stop()

	daemon, err := websocketpeer.NewService(url, "daemon")
	require.NoError(t, err)
	defer daemon.Close()

	daemonBook := inmemory.NewOrderBook()
	localOrder := inmemory.AnnouncedOrder{
		ID:                      "o1",
		SellCurrency:            "BTC",
		BuyCurrency:             "LTC",
		SellAmount:              decimal.NewFromInt(1),
		BuyAmount:               decimal.NewFromInt(160),
		IsPartialClosureAllowed: true,
	}
	require.NoError(t, daemonBook.AddLocal("daemon", localOrder))

	responder, err := swap.NewResponder(supervisor, daemonBook)
	require.NoError(t, err)
	registerPeerHandlers(daemon, daemonBook, responder)

	// Requester side.
	alice, err := websocketpeer.NewService(url, "alice")
	require.NoError(t, err)
	defer alice.Close()

	// Let the relay register both peers.
	time.Sleep(50 * time.Millisecond)

	resp, err := alice.Request(ctx, ports.PeerNewOrder, "daemon", inmemory.AnnouncedOrder{
		ID:           "a1",
		SellCurrency: "LTC",
		BuyCurrency:  "BTC",
		SellAmount:   decimal.NewFromInt(50),
		BuyAmount:    decimal.RequireFromString("0.3"),
	})
	require.NoError(t, err)
	require.JSONEq(t, `true`, string(resp))
	orders, err := daemonBook.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	aliceBook := inmemory.NewOrderBook()
	require.NoError(t, aliceBook.Upsert(domain.Order{
		ID:                      localOrder.ID,
		OwnerPeerID:             "daemon",
		SellCurrency:            domain.AssetBTC,
		BuyCurrency:             domain.AssetLTC,
		SellAmount:              localOrder.SellAmount,
		BuyAmount:               localOrder.BuyAmount,
		IsPartialClosureAllowed: true,
	}))

	session, err := matcher.NewSession(aliceBook, alice, matcher.SessionConfig{
		GetCurrency:  domain.AssetBTC,
		HaveCurrency: domain.AssetLTC,
		HaveAmount:   decimal.NewFromInt(16),
		Policy:       matcher.SelectBestRate,
		Interval:     20 * time.Millisecond,
	}, nil)
	require.NoError(t, err)
	defer session.Close()
	session.Start()

	select {
	case outcome := <-session.Results():
		require.True(t, outcome.IsMatched())
	case <-ctx.Done():
		t.Fatal("timeout waiting for match")
	}

	result, err := session.SendRequest(ctx)
	require.NoError(t, err)
	require.True(t, result.Accepted)
	require.Equal(t, "daemon", result.PeerID)
	require.Equal(t, "", <-refundTxs)

	initiator := swap.NewAcceptedSession(
		result.OrderID, domain.RoleInitiator, result.PeerID,
		domain.AssetLTC, decimal.NewFromInt(16), domain.AssetBTC, result.GetAmount,
	)

	responderSession, err := repo.GetSwap(ctx, initiator.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleResponder, responderSession.Role)
	require.Equal(t, "alice", responderSession.CounterpartyPeerID)
	require.Equal(t, initiator.BuyCurrency, responderSession.SellCurrency)
	require.True(t, initiator.BuyAmount.Equal(responderSession.SellAmount))
	require.Equal(t, initiator.SellCurrency, responderSession.BuyCurrency)
	require.True(t, initiator.SellAmount.Equal(responderSession.BuyAmount))

	resp, err = alice.Request(ctx, ports.PeerSwapEvent, "daemon", swap.EventMessage{
		SwapID: initiator.ID, Type: domain.EventConfirm,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"step": 1, "isFinished": false, "isRefunded": false}`, string(resp))

	lockTime := time.Now().Add(time.Hour).Unix()
	resp, err = alice.Request(ctx, ports.PeerSwapEvent, "daemon", swap.EventMessage{
		SwapID:      initiator.ID,
		Type:        domain.EventPrimaryDeposited,
		LockTime:    lockTime,
		RefundTxHex: "0200",
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"step": 2, "isFinished": false, "isRefunded": false}`, string(resp))
	require.Equal(t, "0200", <-refundTxs)

	stored, err := repo.GetSwap(ctx, initiator.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StepPrimaryDeposited, stored.Step)
	require.Equal(t, lockTime, *stored.LockTimeUnix)
	require.Equal(t, "0200", stored.RefundTxHex)

	// Out of order events freeze the swap.
	_, err = alice.Request(ctx, ports.PeerSwapEvent, "daemon", swap.EventMessage{
		SwapID: initiator.ID, Type: domain.EventWithdrawConfirmed,
	})
	var remoteErr *websocketpeer.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	stored, err = repo.GetSwap(ctx, initiator.ID)
	require.NoError(t, err)
	require.True(t, stored.Frozen)
}

// newTestRelay starts a relay forwarding every message to the peer named in
// its "to" field.
func newTestRelay(t *testing.T) string {
	upgrader := websocket.Upgrader{}
	lock := &sync.Mutex{}
	peers := map[string]*websocket.Conn{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg := struct {
				Type string `json:"type"`
				From string `json:"from"`
				To   string `json:"to"`
			}{}
			if err := json.Unmarshal(message, &msg); err != nil {
				continue
			}

			lock.Lock()
			if msg.Type == "hello" {
				peers[msg.From] = conn
			} else if to, ok := peers[msg.To]; ok {
				// nolint
				to.WriteMessage(websocket.TextMessage, message)
			}
			lock.Unlock()
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}
