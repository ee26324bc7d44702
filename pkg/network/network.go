package network

import (
	"errors"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

const (
	// MainNet ...
	MainNet = "mainnet"
	// TestNet ...
	TestNet = "testnet"
	// RegTest ...
	RegTest = "regtest"
)

var (
	// ErrUnknownNetwork ...
	ErrUnknownNetwork = errors.New("unknown network")
	// ErrUnknownChain ...
	ErrUnknownChain = errors.New("unknown chain")

	// LitecoinMainNetParams ...
	LitecoinMainNetParams = cloneParams(chaincfg.MainNetParams, litecoinParams{
		name:             "litecoin-mainnet",
		net:              0xdbb6c0fb,
		pubKeyHashAddrID: 0x30,
		scriptHashAddrID: 0x32,
		privateKeyID:     0xb0,
		bech32HRPSegwit:  "ltc",
	})
	// LitecoinTestNetParams ...
	LitecoinTestNetParams = cloneParams(chaincfg.TestNet3Params, litecoinParams{
		name:             "litecoin-testnet4",
		net:              0xf1c8d2fd,
		pubKeyHashAddrID: 0x6f,
		scriptHashAddrID: 0x3a,
		privateKeyID:     0xef,
		bech32HRPSegwit:  "tltc",
	})
	// LitecoinRegTestParams uses a Net value that only has to be unique among
	// the registered networks.
	LitecoinRegTestParams = cloneParams(chaincfg.RegressionNetParams, litecoinParams{
		name:             "litecoin-regtest",
		net:              0x9acb0442,
		pubKeyHashAddrID: 0x6f,
		scriptHashAddrID: 0x3a,
		privateKeyID:     0xef,
		bech32HRPSegwit:  "rltc",
	})
)

func init() {
	for _, params := range []*chaincfg.Params{
		LitecoinMainNetParams, LitecoinTestNetParams, LitecoinRegTestParams,
	} {
		if err := chaincfg.Register(params); err != nil {
			panic("failed to register litecoin parameters: " + err.Error())
		}
	}
}

// Params returns the chain parameters of the given chain ("BTC" or "LTC")
// for the given network.
func Params(chain, network string) (*chaincfg.Params, error) {
	network = strings.ToLower(strings.TrimSpace(network))
	switch strings.ToUpper(strings.TrimSpace(chain)) {
	case "BTC":
		switch network {
		case MainNet:
			return &chaincfg.MainNetParams, nil
		case TestNet:
			return &chaincfg.TestNet3Params, nil
		case RegTest:
			return &chaincfg.RegressionNetParams, nil
		}
	case "LTC":
		switch network {
		case MainNet:
			return LitecoinMainNetParams, nil
		case TestNet:
			return LitecoinTestNetParams, nil
		case RegTest:
			return LitecoinRegTestParams, nil
		}
	default:
		return nil, ErrUnknownChain
	}
	return nil, ErrUnknownNetwork
}

// IsValidNetwork ...
func IsValidNetwork(network string) bool {
	switch network {
	case MainNet, TestNet, RegTest:
		return true
	default:
		return false
	}
}

type litecoinParams struct {
	name             string
	net              uint32
	pubKeyHashAddrID byte
	scriptHashAddrID byte
	privateKeyID     byte
	bech32HRPSegwit  string
}

func cloneParams(base chaincfg.Params, p litecoinParams) *chaincfg.Params {
	base.Name = p.name
	base.Net = wire.BitcoinNet(p.net)
	base.PubKeyHashAddrID = p.pubKeyHashAddrID
	base.ScriptHashAddrID = p.scriptHashAddrID
	base.PrivateKeyID = p.privateKeyID
	base.Bech32HRPSegwit = p.bech32HRPSegwit
	return &base
}
