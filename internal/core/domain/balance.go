package domain

import (
	"github.com/shopspring/decimal"
)

// Direction of a transaction relative to a queried address.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Balance of an address in satoshis. A balance that couldn't be fetched has
// Err set and zero amounts.
type Balance struct {
	Address     string
	Confirmed   uint64
	Unconfirmed uint64
	Err         error
}

// IsError returns whether the balance couldn't be fetched.
func (b Balance) IsError() bool {
	return b.Err != nil
}

// TransactionRecord is an entry of the history of an address, carrying the
// signed net value the transaction moved for that address.
type TransactionRecord struct {
	Asset         Asset
	TxID          string
	Confirmations uint64
	Value         decimal.Decimal
	Time          int64
	Direction     Direction
}
