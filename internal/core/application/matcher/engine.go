package matcher

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/swaponline/swapd/internal/core/domain"
)

// SelectionPolicy decides which of the qualifying orders is selected as
// counterparty.
type SelectionPolicy int

const (
	// SelectBestRate selects the qualifying order with the lowest rate.
	SelectBestRate SelectionPolicy = iota
	// SelectLastQualifying selects the qualifying order with the highest
	// rate, ie. the last one met while iterating in ascending-rate order.
	SelectLastQualifying
)

// ParseSelectionPolicy ...
func ParseSelectionPolicy(s string) (SelectionPolicy, error) {
	switch s {
	case "", "best-rate":
		return SelectBestRate, nil
	case "last-qualifying":
		return SelectLastQualifying, nil
	default:
		return 0, ErrUnknownSelectionPolicy
	}
}

func (p SelectionPolicy) String() string {
	if p == SelectLastQualifying {
		return "last-qualifying"
	}
	return "best-rate"
}

// OutcomeKind ...
type OutcomeKind int

const (
	// OutcomeNoOffers means the request cannot be satisfied by the book.
	OutcomeNoOffers OutcomeKind = iota
	// OutcomeMatched means a counterparty has been selected.
	OutcomeMatched
)

func (k OutcomeKind) String() string {
	if k == OutcomeMatched {
		return "matched"
	}
	return "no_offers"
}

// MatchOutcome is the result of a matching cycle. PeerID, OrderID and
// GetAmount are set only for matched outcomes, while MaxAllowedSellAmount is
// the ceiling a requester can retry with after a NoOffers.
type MatchOutcome struct {
	Kind                 OutcomeKind
	PeerID               string
	OrderID              string
	GetAmount            decimal.Decimal
	MaxAllowedSellAmount decimal.Decimal
}

// IsMatched ...
func (m MatchOutcome) IsMatched() bool {
	return m.Kind == OutcomeMatched
}

// FindMatch looks into orders for a counterparty selling getCurrency for
// haveCurrency able to take haveAmount.
func FindMatch(
	getCurrency, haveCurrency domain.Asset, haveAmount decimal.Decimal,
	orders []domain.Order, policy SelectionPolicy,
) MatchOutcome {
	candidates := make([]domain.MatchCandidate, 0, len(orders))
	for _, o := range orders {
		if o.IsMine || o.SellCurrency != getCurrency || o.BuyCurrency != haveCurrency {
			continue
		}
		if err := o.Validate(); err != nil {
			continue
		}
		rate := o.Rate()
		candidates = append(candidates, domain.MatchCandidate{
			Order:            o,
			EffectiveRate:    rate,
			DerivedGetAmount: haveAmount.Div(rate),
		})
	}
	if len(candidates) <= 0 {
		return MatchOutcome{Kind: OutcomeNoOffers}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].EffectiveRate.LessThan(candidates[j].EffectiveRate)
	})

	var (
		maxAllowedSellAmount = decimal.Zero
		maxAllowedGetAmount  = decimal.Zero
		selected             *domain.Order
	)
	for i := range candidates {
		c := candidates[i]
		if c.Order.SellAmount.GreaterThan(maxAllowedSellAmount) {
			maxAllowedSellAmount = c.Order.SellAmount
		}
		if haveAmount.GreaterThan(c.Order.BuyAmount) {
			continue
		}
		if c.DerivedGetAmount.GreaterThan(maxAllowedGetAmount) {
			maxAllowedGetAmount = c.DerivedGetAmount
		}
		if selected == nil || policy == SelectLastQualifying {
			selected = &candidates[i].Order
		}
	}

	if haveAmount.GreaterThan(maxAllowedSellAmount) || selected == nil {
		return MatchOutcome{
			Kind:                 OutcomeNoOffers,
			MaxAllowedSellAmount: maxAllowedSellAmount,
		}
	}

	return MatchOutcome{
		Kind:                 OutcomeMatched,
		PeerID:               selected.OwnerPeerID,
		OrderID:              selected.ID,
		GetAmount:            maxAllowedGetAmount,
		MaxAllowedSellAmount: maxAllowedSellAmount,
	}
}
