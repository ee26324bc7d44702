package domain

import (
	"strings"
)

// Asset identifies one of the UTXO-based coins the wallet can trade.
type Asset string

const (
	AssetBTC Asset = "BTC"
	AssetLTC Asset = "LTC"
)

// SupportedAssets is the closed set of assets every dispatch table must cover.
var SupportedAssets = []Asset{AssetBTC, AssetLTC}

// ParseAsset returns the Asset for the given ticker, case insensitive.
func ParseAsset(ticker string) (Asset, error) {
	a := Asset(strings.ToUpper(strings.TrimSpace(ticker)))
	if !a.IsValid() {
		return "", ErrUnknownAsset
	}
	return a, nil
}

// IsValid returns whether the asset belongs to the supported set.
func (a Asset) IsValid() bool {
	for _, s := range SupportedAssets {
		if a == s {
			return true
		}
	}
	return false
}

func (a Asset) String() string {
	return string(a)
}
