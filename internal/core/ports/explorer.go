package ports

import (
	"context"

	"github.com/swaponline/swapd/internal/core/domain"
)

// AddressSummary reports the balance of an address in satoshis.
type AddressSummary struct {
	Balance            uint64
	UnconfirmedBalance uint64
}

// TxIO is either an input or an output of a transaction as reported by an
// explorer. Address is empty for non standard scripts.
type TxIO struct {
	Address string
	Value   uint64
}

// TxRecord is a transaction involving some address as reported by an
// explorer.
type TxRecord struct {
	TxID          string
	Confirmations uint64
	Time          int64
	Inputs        []TxIO
	Outputs       []TxIO
}

// Explorer is the UTXO source of a single asset. Implementations must return
// a *domain.NetworkError for transport failures and a
// *domain.BroadcastRejectedError when the node refuses a transaction.
type Explorer interface {
	// ListUnspent returns the whole unspent set of the address.
	ListUnspent(ctx context.Context, address string) ([]domain.UnspentOutput, error)
	// GetAddressSummary returns confirmed and unconfirmed balances.
	GetAddressSummary(ctx context.Context, address string) (*AddressSummary, error)
	// GetTransactionsForAddress returns the txs spending from or funding the
	// address.
	GetTransactionsForAddress(ctx context.Context, address string) ([]TxRecord, error)
	// Broadcast publishes the given raw tx in hex format and returns its id.
	Broadcast(ctx context.Context, txHex string) (string, error)
}
