package main

import (
	"context"

	"github.com/swaponline/swapd/internal/config"
	"github.com/swaponline/swapd/internal/core/application"
	"github.com/swaponline/swapd/internal/core/application/fee"
	"github.com/swaponline/swapd/internal/core/application/wallet"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
	"github.com/swaponline/swapd/internal/infrastructure/explorer/esplora"
	"github.com/swaponline/swapd/internal/infrastructure/feefeed/blockcypher"
)

func getAssetHandler(asset string) (application.AssetHandler, error) {
	a, err := domain.ParseAsset(asset)
	if err != nil {
		return nil, err
	}
	svc, err := newAssetService()
	if err != nil {
		return nil, err
	}
	return svc.Handler(a)
}

func newAssetService() (application.AssetService, error) {
	timeout := config.GetDuration(config.RequestTimeoutKey)

	explorers := make(map[domain.Asset]ports.Explorer)
	for asset, url := range config.GetExplorerURLs() {
		explorer, err := esplora.NewService(
			url, timeout, config.GetInt(config.ExplorerRateLimitKey),
		)
		if err != nil {
			return nil, err
		}
		explorers[asset] = explorer
	}

	feeSvc := fee.NewService(
		blockcypher.NewService(config.GetFeeFeedURLs(), timeout), timeout, nil,
	)

	return application.NewAssetService(application.AssetServiceConfig{
		Network:        config.GetNetwork(),
		KeyRing:        wallet.NewKeyRing(),
		Fees:           feeSvc,
		Explorers:      explorers,
		DustThreshold:  uint64(config.GetInt(config.DustThresholdKey)),
		CoinSelection:  config.GetCoinSelection(),
		SizeEstimation: config.GetBool(config.FeeSizeEstimationKey),
	})
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(
		context.Background(), 2*config.GetDuration(config.RequestTimeoutKey),
	)
}
