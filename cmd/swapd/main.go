package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/swaponline/swapd/internal/config"
	"github.com/swaponline/swapd/internal/core/application"
	"github.com/swaponline/swapd/internal/core/application/fee"
	"github.com/swaponline/swapd/internal/core/application/swap"
	"github.com/swaponline/swapd/internal/core/application/wallet"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
	"github.com/swaponline/swapd/internal/infrastructure/explorer/esplora"
	"github.com/swaponline/swapd/internal/infrastructure/feefeed/blockcypher"
	"github.com/swaponline/swapd/internal/infrastructure/metrics"
	"github.com/swaponline/swapd/internal/infrastructure/orderbook/inmemory"
	websocketpeer "github.com/swaponline/swapd/internal/infrastructure/peer/websocket"
	"github.com/swaponline/swapd/internal/infrastructure/refund"
	dbbadger "github.com/swaponline/swapd/internal/infrastructure/storage/badger"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	var (
		datadir        = config.GetDatadir()
		net            = config.GetNetwork()
		requestTimeout = config.GetDuration(config.RequestTimeoutKey)
		metricsAddr    = config.GetString(config.MetricsAddrKey)
		relayURL       = config.GetString(config.PeerRelayURLKey)
		peerID         = config.GetString(config.PeerIDKey)
	)

	var daemonMetrics ports.Metrics = ports.NoopMetrics{}
	var metricsSrv *http.Server
	if metricsAddr != "" {
		daemonMetrics = metrics.New(prometheus.DefaultRegisterer)
		metricsSrv = &http.Server{
			Addr:              metricsAddr,
			Handler:           metrics.Handler(prometheus.DefaultGatherer),
			ReadHeaderTimeout: requestTimeout,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Warn("metrics server stopped")
			}
		}()
		log.Infof("serving metrics on %s", metricsAddr)
	}

	repo, err := dbbadger.NewSwapRepository(
		filepath.Join(datadir, config.DbLocation), log.StandardLogger(),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to open swap db")
	}
	defer repo.Close()

	explorers := make(map[domain.Asset]ports.Explorer)
	for asset, explorerURL := range config.GetExplorerURLs() {
		explorer, err := esplora.NewService(
			explorerURL, requestTimeout, config.GetInt(config.ExplorerRateLimitKey),
		)
		if err != nil {
			log.WithError(err).Fatalf("failed to init %s explorer", asset)
		}
		explorers[asset] = explorer
	}

	feeFeed := blockcypher.NewService(config.GetFeeFeedURLs(), requestTimeout)
	feeSvc := fee.NewService(feeFeed, requestTimeout, daemonMetrics)

	assetSvc, err := application.NewAssetService(application.AssetServiceConfig{
		Network:        net,
		KeyRing:        wallet.NewKeyRing(),
		Fees:           feeSvc,
		Explorers:      explorers,
		Metrics:        daemonMetrics,
		DustThreshold:  uint64(config.GetInt(config.DustThresholdKey)),
		CoinSelection:  config.GetCoinSelection(),
		SizeEstimation: config.GetBool(config.FeeSizeEstimationKey),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to init asset service")
	}
	if err := login(assetSvc); err != nil {
		log.WithError(err).Fatal("failed to login")
	}

	supervisor, err := swap.NewSupervisor(
		repo, refund.NewFlowFactory(explorers),
		config.GetDuration(config.RefundTickIntervalKey), daemonMetrics,
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init swap supervisor")
	}
	if err := supervisor.Resume(context.Background()); err != nil {
		log.WithError(err).Fatal("failed to resume swaps")
	}
	defer supervisor.Stop()
	go logUpdates(supervisor.Updates())

	var peerDone <-chan struct{}
	if relayURL != "" {
		if peerID == "" {
			peerID = uuid.New().String()
		}
		peer, err := websocketpeer.NewService(relayURL, peerID)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to peer relay")
		}
		defer peer.Close()
		peerDone = peer.Done()

		book := inmemory.NewOrderBook()
		if ordersFile := config.GetString(config.OrdersFileKey); ordersFile != "" {
			n, err := book.LoadLocalOrders(peerID, ordersFile)
			if err != nil {
				log.WithError(err).Fatal("failed to load local orders")
			}
			log.Infof("loaded %d local orders", n)
		}
		responder, err := swap.NewResponder(supervisor, book)
		if err != nil {
			log.WithError(err).Fatal("failed to init swap responder")
		}
		registerPeerHandlers(peer, book, responder)

		log.WithField("peer_id", peerID).Info("connected to peer relay")
	}

	log.WithField("network", net).Info("swap daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	select {
	case <-sigChan:
	case <-peerDone:
		log.Warn("peer relay connection lost")
	}

	log.Info("shutting down daemon")

	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(ctx)
	}
}

func login(svc application.AssetService) error {
	ctx, cancel := context.WithTimeout(
		context.Background(), config.GetDuration(config.RequestTimeoutKey),
	)
	defer cancel()

	for _, asset := range svc.Assets() {
		handler, err := svc.Handler(asset)
		if err != nil {
			return err
		}
		account, err := handler.Login(config.GetWIF(asset))
		if err != nil {
			return err
		}

		balance := handler.GetBalance(ctx, account.Address)
		entry := log.WithFields(log.Fields{
			"asset":   asset,
			"address": account.Address,
		})
		if balance.Err != nil {
			entry.WithError(balance.Err).Warn("logged in, balance unavailable")
			continue
		}
		entry.WithFields(log.Fields{
			"confirmed":   balance.Confirmed,
			"unconfirmed": balance.Unconfirmed,
		}).Info("logged in")
	}
	return nil
}

func logUpdates(updates <-chan domain.SwapSession) {
	for s := range updates {
		log.WithFields(log.Fields{
			"swap_id":    s.ID,
			"step":       s.Step,
			"finished":   s.IsFinished,
			"refunded":   s.IsRefunded,
			"frozen":     s.Frozen,
			"sell_asset": s.SellCurrency,
		}).Info("swap updated")
	}
}
