package main

import (
	"fmt"
	"sort"

	"github.com/swaponline/swapd/internal/config"
	"github.com/urfave/cli/v2"
)

// secretKeys are never printed in clear.
var secretKeys = map[string]bool{
	config.BtcWIFKey: true,
	config.LtcWIFKey: true,
}

var configCmd = cli.Command{
	Name:   "config",
	Usage:  "Print the configuration in use, read from SWAPD_* env vars",
	Action: configAction,
}

func configAction(ctx *cli.Context) error {
	keys := []string{
		config.DatadirKey, config.LogLevelKey, config.NetworkKey,
		config.BtcExplorerURLKey, config.LtcExplorerURLKey,
		config.BtcFeeFeedURLKey, config.LtcFeeFeedURLKey,
		config.BtcWIFKey, config.LtcWIFKey,
		config.PeerRelayURLKey, config.PeerIDKey, config.RequestTimeoutKey,
		config.MatchingIntervalKey, config.DeclineResetDelayKey,
		config.RefundTickIntervalKey, config.DustThresholdKey,
		config.CoinSelectionKey, config.FeeSizeEstimationKey,
		config.MatchSelectionKey, config.ExplorerRateLimitKey,
		config.MetricsAddrKey,
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := config.GetString(key)
		if secretKeys[key] && value != "" {
			value = "********"
		}
		fmt.Println(key + ": " + value)
	}
	return nil
}
