package network_test

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
	"github.com/swaponline/swapd/pkg/network"
)

func TestParams(t *testing.T) {
	tests := []struct {
		chain    string
		network  string
		expected *chaincfg.Params
		err      error
	}{
		{"BTC", network.MainNet, &chaincfg.MainNetParams, nil},
		{"btc", network.TestNet, &chaincfg.TestNet3Params, nil},
		{"BTC", network.RegTest, &chaincfg.RegressionNetParams, nil},
		{"LTC", network.MainNet, network.LitecoinMainNetParams, nil},
		{"ltc", network.TestNet, network.LitecoinTestNetParams, nil},
		{"LTC", network.RegTest, network.LitecoinRegTestParams, nil},
		{"LTC", "signet", nil, network.ErrUnknownNetwork},
		{"ETH", network.MainNet, nil, network.ErrUnknownChain},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.chain+"/"+tt.network, func(t *testing.T) {
			t.Parallel()

			params, err := network.Params(tt.chain, tt.network)
			require.ErrorIs(t, err, tt.err)
			require.Equal(t, tt.expected, params)
		})
	}
}

func TestLitecoinAddress(t *testing.T) {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	addr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(key.PubKey().SerializeCompressed()),
		network.LitecoinMainNetParams,
	)
	require.NoError(t, err)
	require.Equal(t, byte('L'), addr.EncodeAddress()[0])

	decoded, err := btcutil.DecodeAddress(
		addr.EncodeAddress(), network.LitecoinMainNetParams,
	)
	require.NoError(t, err)
	require.True(t, decoded.IsForNet(network.LitecoinMainNetParams))

	wif, err := btcutil.NewWIF(key, network.LitecoinMainNetParams, true)
	require.NoError(t, err)
	require.True(t, wif.IsForNet(network.LitecoinMainNetParams))
	require.False(t, wif.IsForNet(&chaincfg.MainNetParams))
}
