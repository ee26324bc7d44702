package application

import (
	"context"
	"errors"
	"sort"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/swaponline/swapd/internal/core/application/fee"
	"github.com/swaponline/swapd/internal/core/application/wallet"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
	"github.com/swaponline/swapd/pkg/network"
)

var (
	// ErrMissingKeyRing ...
	ErrMissingKeyRing = errors.New("missing key ring")
	// ErrMissingFeeService ...
	ErrMissingFeeService = errors.New("missing fee service")
	// ErrMissingAssetExplorer ...
	ErrMissingAssetExplorer = errors.New("missing explorer for asset")
)

// AssetHandler groups the wallet operations of a single asset.
type AssetHandler interface {
	Asset() domain.Asset
	Login(wif string) (*wallet.Account, error)
	GetBalance(ctx context.Context, address string) domain.Balance
	GetBalances(ctx context.Context, addresses []string) []domain.Balance
	GetHistory(ctx context.Context, address string) []domain.TransactionRecord
	BuildAndSend(ctx context.Context, req wallet.BuildRequest) (string, error)
	GetFeeRate(ctx context.Context) domain.FeeSchedule
}

// AssetService dispatches wallet operations to the handler of the asset.
// The set of handlers is built once and never changes.
type AssetService interface {
	Handler(asset domain.Asset) (AssetHandler, error)
	Assets() []domain.Asset
}

// AssetServiceConfig ...
type AssetServiceConfig struct {
	Network   string
	KeyRing   *wallet.KeyRing
	Fees      *fee.Service
	Explorers map[domain.Asset]ports.Explorer
	Metrics   ports.Metrics

	DustThreshold  uint64
	CoinSelection  wallet.CoinSelection
	SizeEstimation bool
}

type assetService struct {
	handlers map[domain.Asset]AssetHandler
}

func NewAssetService(cfg AssetServiceConfig) (AssetService, error) {
	if cfg.KeyRing == nil {
		return nil, ErrMissingKeyRing
	}
	if cfg.Fees == nil {
		return nil, ErrMissingFeeService
	}

	handlers := make(map[domain.Asset]AssetHandler, len(domain.SupportedAssets))
	for _, asset := range domain.SupportedAssets {
		explorer, ok := cfg.Explorers[asset]
		if !ok || explorer == nil {
			return nil, ErrMissingAssetExplorer
		}
		params, err := network.Params(asset.String(), cfg.Network)
		if err != nil {
			return nil, err
		}
		builder, err := wallet.NewBuilder(wallet.BuilderConfig{
			Asset:          asset,
			Network:        params,
			Explorer:       explorer,
			Signer:         cfg.KeyRing,
			Fees:           cfg.Fees,
			Metrics:        cfg.Metrics,
			DustThreshold:  cfg.DustThreshold,
			CoinSelection:  cfg.CoinSelection,
			SizeEstimation: cfg.SizeEstimation,
		})
		if err != nil {
			return nil, err
		}
		tracker, err := wallet.NewBalanceTracker(asset, explorer)
		if err != nil {
			return nil, err
		}

		handlers[asset] = &assetHandler{
			asset:   asset,
			params:  params,
			ring:    cfg.KeyRing,
			fees:    cfg.Fees,
			builder: builder,
			tracker: tracker,
		}
	}

	return &assetService{handlers}, nil
}

func (s *assetService) Handler(asset domain.Asset) (AssetHandler, error) {
	h, ok := s.handlers[asset]
	if !ok {
		return nil, domain.ErrUnknownAsset
	}
	return h, nil
}

func (s *assetService) Assets() []domain.Asset {
	assets := make([]domain.Asset, 0, len(s.handlers))
	for asset := range s.handlers {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i] < assets[j] })
	return assets
}

type assetHandler struct {
	asset   domain.Asset
	params  *chaincfg.Params
	ring    *wallet.KeyRing
	fees    *fee.Service
	builder *wallet.Builder
	tracker *wallet.BalanceTracker
}

func (h *assetHandler) Asset() domain.Asset {
	return h.asset
}

func (h *assetHandler) Login(wif string) (*wallet.Account, error) {
	return h.ring.Login(h.params, wif)
}

func (h *assetHandler) GetBalance(
	ctx context.Context, address string,
) domain.Balance {
	return h.tracker.GetBalance(ctx, address)
}

func (h *assetHandler) GetBalances(
	ctx context.Context, addresses []string,
) []domain.Balance {
	return h.tracker.GetBalances(ctx, addresses)
}

func (h *assetHandler) GetHistory(
	ctx context.Context, address string,
) []domain.TransactionRecord {
	return h.tracker.GetHistory(ctx, address)
}

func (h *assetHandler) BuildAndSend(
	ctx context.Context, req wallet.BuildRequest,
) (string, error) {
	return h.builder.BuildAndSend(ctx, req)
}

func (h *assetHandler) GetFeeRate(ctx context.Context) domain.FeeSchedule {
	return h.fees.GetFeeSchedule(ctx, h.asset)
}
