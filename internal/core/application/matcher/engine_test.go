package matcher_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/swaponline/swapd/internal/core/application/matcher"
	"github.com/swaponline/swapd/internal/core/domain"
)

func TestFindMatch(t *testing.T) {
	book := []domain.Order{
		newOrder("o1", "peer1", "10", "20"),
		newOrder("o2", "peer2", "5", "8"),
	}

	tests := []struct {
		name              string
		orders            []domain.Order
		haveAmount        string
		policy            matcher.SelectionPolicy
		expectedKind      matcher.OutcomeKind
		expectedPeer      string
		expectedOrder     string
		expectedGetAmount string
		expectedMaxSell   string
	}{
		{
			name:              "best rate",
			orders:            book,
			haveAmount:        "8",
			policy:            matcher.SelectBestRate,
			expectedKind:      matcher.OutcomeMatched,
			expectedPeer:      "peer2",
			expectedOrder:     "o2",
			expectedGetAmount: "5",
			expectedMaxSell:   "10",
		},
		{
			name:              "last qualifying",
			orders:            book,
			haveAmount:        "8",
			policy:            matcher.SelectLastQualifying,
			expectedKind:      matcher.OutcomeMatched,
			expectedPeer:      "peer1",
			expectedOrder:     "o1",
			expectedGetAmount: "5",
			expectedMaxSell:   "10",
		},
		{
			name:              "only one order qualifies",
			orders:            book,
			haveAmount:        "9",
			policy:            matcher.SelectBestRate,
			expectedKind:      matcher.OutcomeMatched,
			expectedPeer:      "peer1",
			expectedOrder:     "o1",
			expectedGetAmount: "4.5",
			expectedMaxSell:   "10",
		},
		{
			name:            "amount above max sell amount",
			orders:          book,
			haveAmount:      "100",
			policy:          matcher.SelectBestRate,
			expectedKind:    matcher.OutcomeNoOffers,
			expectedMaxSell: "10",
		},
		{
			name: "no order qualifies",
			orders: []domain.Order{
				newOrder("o1", "peer1", "10", "4"),
				newOrder("o2", "peer2", "12", "3"),
			},
			haveAmount:      "6",
			policy:          matcher.SelectLastQualifying,
			expectedKind:    matcher.OutcomeNoOffers,
			expectedMaxSell: "12",
		},
		{
			name:            "empty book",
			haveAmount:      "1",
			expectedKind:    matcher.OutcomeNoOffers,
			expectedMaxSell: "0",
		},
		{
			name: "own and mismatching orders are ignored",
			orders: []domain.Order{
				func() domain.Order {
					o := newOrder("o1", "me", "10", "20")
					o.IsMine = true
					return o
				}(),
				func() domain.Order {
					o := newOrder("o2", "peer2", "10", "20")
					o.SellCurrency, o.BuyCurrency = domain.AssetLTC, domain.AssetBTC
					return o
				}(),
			},
			haveAmount:      "1",
			expectedKind:    matcher.OutcomeNoOffers,
			expectedMaxSell: "0",
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outcome := matcher.FindMatch(
				domain.AssetBTC, domain.AssetLTC,
				decimal.RequireFromString(tt.haveAmount), tt.orders, tt.policy,
			)
			require.Equal(t, tt.expectedKind, outcome.Kind)
			require.Equal(t, tt.expectedPeer, outcome.PeerID)
			require.Equal(t, tt.expectedOrder, outcome.OrderID)
			require.True(
				t,
				decimal.RequireFromString(tt.expectedMaxSell).Equal(outcome.MaxAllowedSellAmount),
				"max sell amount %s", outcome.MaxAllowedSellAmount,
			)
			if tt.expectedGetAmount != "" {
				require.True(
					t,
					decimal.RequireFromString(tt.expectedGetAmount).Equal(outcome.GetAmount),
					"get amount %s", outcome.GetAmount,
				)
			}
		})
	}
}

func TestFindMatchRateOrderIndependent(t *testing.T) {
	orders := []domain.Order{
		newOrder("o1", "peer1", "3", "9"),
		newOrder("o2", "peer2", "4", "6"),
		newOrder("o3", "peer3", "6", "12"),
	}
	reversed := []domain.Order{orders[2], orders[1], orders[0]}
	have := decimal.NewFromInt(5)

	for _, policy := range []matcher.SelectionPolicy{
		matcher.SelectBestRate, matcher.SelectLastQualifying,
	} {
		a := matcher.FindMatch(domain.AssetBTC, domain.AssetLTC, have, orders, policy)
		b := matcher.FindMatch(domain.AssetBTC, domain.AssetLTC, have, reversed, policy)
		require.Equal(t, a.OrderID, b.OrderID)
		require.True(t, a.GetAmount.Equal(b.GetAmount))
	}
}

func TestParseSelectionPolicy(t *testing.T) {
	policy, err := matcher.ParseSelectionPolicy("")
	require.NoError(t, err)
	require.Equal(t, matcher.SelectBestRate, policy)

	policy, err = matcher.ParseSelectionPolicy("last-qualifying")
	require.NoError(t, err)
	require.Equal(t, matcher.SelectLastQualifying, policy)
	require.Equal(t, "last-qualifying", policy.String())

	_, err = matcher.ParseSelectionPolicy("random")
	require.ErrorIs(t, err, matcher.ErrUnknownSelectionPolicy)
}

func newOrder(id, peer, sellAmount, buyAmount string) domain.Order {
	return domain.Order{
		ID:                      id,
		OwnerPeerID:             peer,
		SellCurrency:            domain.AssetBTC,
		BuyCurrency:             domain.AssetLTC,
		SellAmount:              decimal.RequireFromString(sellAmount),
		BuyAmount:               decimal.RequireFromString(buyAmount),
		IsPartialClosureAllowed: true,
	}
}
