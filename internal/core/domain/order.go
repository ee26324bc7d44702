package domain

import (
	"github.com/shopspring/decimal"
)

// Order is an immutable snapshot of a counterparty offer taken from the
// order book feed. The owner sells SellAmount of SellCurrency and wants
// BuyAmount of BuyCurrency in exchange.
type Order struct {
	ID                      string
	OwnerPeerID             string
	SellCurrency            Asset
	BuyCurrency             Asset
	SellAmount              decimal.Decimal
	BuyAmount               decimal.Decimal
	IsPartialClosureAllowed bool
	IsMine                  bool
}

// Validate ...
func (o Order) Validate() error {
	if !o.SellAmount.IsPositive() || !o.BuyAmount.IsPositive() {
		return ErrInvalidOrderAmount
	}
	if !o.SellCurrency.IsValid() || !o.BuyCurrency.IsValid() {
		return ErrUnknownAsset
	}
	return nil
}

// Rate returns the exchange rate of the order, ie. how many units of
// BuyCurrency the owner wants per unit of SellCurrency.
func (o Order) Rate() decimal.Decimal {
	if o.SellAmount.IsZero() {
		return decimal.Zero
	}
	return o.BuyAmount.Div(o.SellAmount)
}

// MatchCandidate is an order evaluated against a requested amount during one
// matching cycle.
type MatchCandidate struct {
	Order            Order
	EffectiveRate    decimal.Decimal
	DerivedGetAmount decimal.Decimal
}
