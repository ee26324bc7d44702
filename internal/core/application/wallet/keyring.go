package wallet

import (
	"errors"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

var (
	// ErrInvalidWIF ...
	ErrInvalidWIF = errors.New("invalid private key in WIF format")
	// ErrWIFNetworkMismatch ...
	ErrWIFNetworkMismatch = errors.New("private key is not for the given network")
)

// Account is a key pair controlling a single P2PKH address.
type Account struct {
	Address string
	WIF     string
}

// KeyRing holds the private keys of the local addresses, indexed by address.
// Keys live in memory only.
type KeyRing struct {
	lock *sync.RWMutex
	keys map[string]*btcec.PrivateKey
}

func NewKeyRing() *KeyRing {
	return &KeyRing{
		lock: &sync.RWMutex{},
		keys: make(map[string]*btcec.PrivateKey),
	}
}

// Login imports the given WIF private key or, if empty, generates a fresh one.
// The returned account carries the P2PKH address for the given network.
func (k *KeyRing) Login(params *chaincfg.Params, wifStr string) (*Account, error) {
	var wif *btcutil.WIF
	if wifStr == "" {
		key, err := btcec.NewPrivateKey()
		if err != nil {
			return nil, err
		}
		if wif, err = btcutil.NewWIF(key, params, true); err != nil {
			return nil, err
		}
	} else {
		var err error
		if wif, err = btcutil.DecodeWIF(wifStr); err != nil {
			return nil, ErrInvalidWIF
		}
		if !wif.IsForNet(params) {
			return nil, ErrWIFNetworkMismatch
		}
	}

	addr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(wif.SerializePubKey()), params,
	)
	if err != nil {
		return nil, err
	}
	address := addr.EncodeAddress()

	k.lock.Lock()
	k.keys[address] = wif.PrivKey
	k.lock.Unlock()

	return &Account{Address: address, WIF: wif.String()}, nil
}

// PrivateKey returns the key controlling the given address, if known.
func (k *KeyRing) PrivateKey(address string) (*btcec.PrivateKey, bool) {
	k.lock.RLock()
	defer k.lock.RUnlock()

	key, ok := k.keys[address]
	return key, ok
}

// Addresses returns the list of addresses controlled by the ring.
func (k *KeyRing) Addresses() []string {
	k.lock.RLock()
	defer k.lock.RUnlock()

	addresses := make([]string, 0, len(k.keys))
	for addr := range k.keys {
		addresses = append(addresses, addr)
	}
	return addresses
}
