package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
	"github.com/swaponline/swapd/internal/core/application/matcher"
	"github.com/swaponline/swapd/internal/core/application/wallet"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/pkg/network"
)

const (
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// NetworkKey is the network to use. One of "mainnet", "testnet" or "regtest"
	NetworkKey = "NETWORK"
	// BtcExplorerURLKey is the endpoint of the Esplora REST API for Bitcoin
	BtcExplorerURLKey = "BTC_EXPLORER_URL"
	// LtcExplorerURLKey is the endpoint of the Esplora REST API for Litecoin
	LtcExplorerURLKey = "LTC_EXPLORER_URL"
	// BtcFeeFeedURLKey is the url of the fee estimation feed for Bitcoin
	BtcFeeFeedURLKey = "BTC_FEE_FEED_URL"
	// LtcFeeFeedURLKey is the url of the fee estimation feed for Litecoin
	LtcFeeFeedURLKey = "LTC_FEE_FEED_URL"
	// BtcWIFKey is the private key of the Bitcoin wallet in WIF format. A fresh
	// one is generated if not set
	BtcWIFKey = "BTC_WIF"
	// LtcWIFKey is the private key of the Litecoin wallet in WIF format. A
	// fresh one is generated if not set
	LtcWIFKey = "LTC_WIF"
	// PeerRelayURLKey is the websocket url of the relay used to talk with peers
	PeerRelayURLKey = "PEER_RELAY_URL"
	// PeerIDKey is the identifier of the daemon among peers
	PeerIDKey = "PEER_ID"
	// RequestTimeoutKey is the max duration to wait for any remote response
	RequestTimeoutKey = "REQUEST_TIMEOUT"
	// MatchingIntervalKey is the interval between order book polls of a
	// matching session
	MatchingIntervalKey = "MATCHING_INTERVAL"
	// DeclineResetDelayKey is the time after which a declined matching
	// request is cleared
	DeclineResetDelayKey = "DECLINE_RESET_DELAY"
	// RefundTickIntervalKey is the interval at which every swap session checks
	// its refund timer
	RefundTickIntervalKey = "REFUND_TICK_INTERVAL"
	// DustThresholdKey is the min value in satoshis of a change output
	DustThresholdKey = "DUST_THRESHOLD"
	// CoinSelectionKey is the coin selection policy. Either "spend-all" or
	// "largest-first"
	CoinSelectionKey = "COIN_SELECTION"
	// FeeSizeEstimationKey makes tx fees depend on the estimated tx size
	// instead of the default one
	FeeSizeEstimationKey = "FEE_SIZE_ESTIMATION"
	// MatchSelectionKey is the policy used to pick an order among those
	// qualifying. Either "best-rate" or "last-qualifying"
	MatchSelectionKey = "MATCH_SELECTION"
	// ExplorerRateLimitKey is the max number of requests per second made to
	// each explorer. Zero means unlimited
	ExplorerRateLimitKey = "EXPLORER_RATE_LIMIT"
	// MetricsAddrKey is the address <host:port> where prometheus metrics are
	// served. Metrics are disabled if empty
	MetricsAddrKey = "METRICS_ADDR"
	// OrdersFileKey is the path of a JSON file listing the orders of the
	// daemon that peers can partially fill. None if empty
	OrdersFileKey = "ORDERS_FILE"

	DbLocation = "db"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("swapd", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("SWAPD")
	vip.AutomaticEnv()
	vip.AllowEmptyEnv(true)

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(NetworkKey, network.MainNet)
	vip.SetDefault(BtcExplorerURLKey, "https://blockstream.info/api")
	vip.SetDefault(LtcExplorerURLKey, "https://litecoinspace.org/api")
	vip.SetDefault(BtcFeeFeedURLKey, "https://api.blockcypher.com/v1/btc/main")
	vip.SetDefault(LtcFeeFeedURLKey, "https://api.blockcypher.com/v1/ltc/main")
	vip.SetDefault(PeerIDKey, "")
	vip.SetDefault(RequestTimeoutKey, "15s")
	vip.SetDefault(MatchingIntervalKey, matcher.DefaultMatchingInterval.String())
	vip.SetDefault(DeclineResetDelayKey, matcher.DefaultDeclineResetDelay.String())
	vip.SetDefault(RefundTickIntervalKey, "10s")
	vip.SetDefault(DustThresholdKey, wallet.DefaultDustThreshold)
	vip.SetDefault(CoinSelectionKey, string(wallet.CoinSelectionSpendAll))
	vip.SetDefault(FeeSizeEstimationKey, false)
	vip.SetDefault(MatchSelectionKey, matcher.SelectBestRate.String())
	vip.SetDefault(ExplorerRateLimitKey, 0)
	vip.SetDefault(OrdersFileKey, "")

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetNetwork() string {
	return strings.ToLower(GetString(NetworkKey))
}

// GetExplorerURLs returns the explorer endpoint of every supported asset.
func GetExplorerURLs() map[domain.Asset]string {
	return map[domain.Asset]string{
		domain.AssetBTC: GetString(BtcExplorerURLKey),
		domain.AssetLTC: GetString(LtcExplorerURLKey),
	}
}

// GetFeeFeedURLs returns the fee feed url of every asset that has one.
func GetFeeFeedURLs() map[domain.Asset]string {
	urls := make(map[domain.Asset]string)
	if u := GetString(BtcFeeFeedURLKey); u != "" {
		urls[domain.AssetBTC] = u
	}
	if u := GetString(LtcFeeFeedURLKey); u != "" {
		urls[domain.AssetLTC] = u
	}
	return urls
}

// GetWIF returns the private key configured for the given asset, if any.
func GetWIF(asset domain.Asset) string {
	switch asset {
	case domain.AssetBTC:
		return GetString(BtcWIFKey)
	case domain.AssetLTC:
		return GetString(LtcWIFKey)
	default:
		return ""
	}
}

func GetCoinSelection() wallet.CoinSelection {
	return wallet.CoinSelection(GetString(CoinSelectionKey))
}

func GetMatchSelection() matcher.SelectionPolicy {
	policy, _ := matcher.ParseSelectionPolicy(GetString(MatchSelectionKey))
	return policy
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if net := GetNetwork(); !network.IsValidNetwork(net) {
		return fmt.Errorf(
			"network must be one of '%s', '%s' or '%s'",
			network.MainNet, network.TestNet, network.RegTest,
		)
	}

	for asset, explorerURL := range GetExplorerURLs() {
		if explorerURL == "" {
			return fmt.Errorf("missing %s explorer url", asset)
		}
		if _, err := url.ParseRequestURI(explorerURL); err != nil {
			return fmt.Errorf("%s explorer url is not valid: %s", asset, err)
		}
	}
	for asset, feedURL := range GetFeeFeedURLs() {
		if _, err := url.ParseRequestURI(feedURL); err != nil {
			return fmt.Errorf("%s fee feed url is not valid: %s", asset, err)
		}
	}
	if relayURL := GetString(PeerRelayURLKey); relayURL != "" {
		u, err := url.Parse(relayURL)
		if err != nil {
			return fmt.Errorf("peer relay url is not valid: %s", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("peer relay url must have ws or wss scheme")
		}
	}

	for _, key := range []string{
		RequestTimeoutKey, MatchingIntervalKey, DeclineResetDelayKey,
		RefundTickIntervalKey,
	} {
		if GetDuration(key) <= 0 {
			return fmt.Errorf("%s must be a positive duration", strings.ToLower(key))
		}
	}

	if GetInt(DustThresholdKey) < 0 {
		return fmt.Errorf("dust threshold must not be a negative number")
	}
	if GetInt(ExplorerRateLimitKey) < 0 {
		return fmt.Errorf("explorer rate limit must not be a negative number")
	}

	switch GetCoinSelection() {
	case wallet.CoinSelectionSpendAll, wallet.CoinSelectionLargestFirst:
	default:
		return fmt.Errorf(
			"coin selection must be either '%s' or '%s'",
			wallet.CoinSelectionSpendAll, wallet.CoinSelectionLargestFirst,
		)
	}

	if _, err := matcher.ParseSelectionPolicy(GetString(MatchSelectionKey)); err != nil {
		return err
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	return makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
