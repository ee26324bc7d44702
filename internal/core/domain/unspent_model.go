package domain

import "fmt"

// UnspentOutput is a spendable output fetched from the explorer. It's only
// held for the time of a transaction build and never persisted.
type UnspentOutput struct {
	TxID          string
	Index         uint32
	Value         uint64
	Confirmations uint64
}

// Validate ...
func (u UnspentOutput) Validate() error {
	if u.Value == 0 {
		return ErrInvalidUnspent
	}
	return nil
}

// Key returns the outpoint of the unspent in the txid:vout form.
func (u UnspentOutput) Key() string {
	return fmt.Sprintf("%s:%d", u.TxID, u.Index)
}

// UnspentList ...
type UnspentList []UnspentOutput

// TotalValue returns the sum of the values of all unspents in the list.
func (l UnspentList) TotalValue() uint64 {
	var total uint64
	for _, u := range l {
		total += u.Value
	}
	return total
}
