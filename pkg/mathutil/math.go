package mathutil

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeAmount ...
	ErrNegativeAmount = errors.New("amount must not be negative")
	// ErrAmountTooBig ...
	ErrAmountTooBig = errors.New("amount exceeds max satoshi value")
)

// Precision is the number of decimal places of a unit of coin.
const Precision = 8

// ToSatoshis converts an amount expressed in units of coin into satoshis,
// rounding half up any digit past the 8th decimal place.
func ToSatoshis(amount decimal.Decimal) (uint64, error) {
	if amount.IsNegative() {
		return 0, ErrNegativeAmount
	}
	sats := amount.Shift(Precision).Round(0).BigInt()
	if !sats.IsUint64() {
		return 0, ErrAmountTooBig
	}
	return sats.Uint64(), nil
}

// FromSatoshis converts an amount of satoshis into units of coin.
func FromSatoshis(sats uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(sats), -Precision)
}

// FromSignedSatoshis is like FromSatoshis for a signed amount.
func FromSignedSatoshis(sats int64) decimal.Decimal {
	return decimal.New(sats, -Precision)
}
