package ports

import (
	"github.com/btcsuite/btcd/btcec/v2"
)

// Signer gives access to the private keys controlling the local addresses.
type Signer interface {
	PrivateKey(address string) (*btcec.PrivateKey, bool)
}
