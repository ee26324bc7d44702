package main

import (
	"github.com/urfave/cli/v2"
)

var feerate = cli.Command{
	Name:   "feerate",
	Usage:  "get the current fee rates in sat/kB of an asset",
	Flags:  []cli.Flag{&assetFlag},
	Action: feeRateAction,
}

func feeRateAction(ctx *cli.Context) error {
	handler, err := getAssetHandler(ctx.String("asset"))
	if err != nil {
		return err
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	schedule := handler.GetFeeRate(reqCtx)
	printRespJSON(map[string]uint64{
		"slow":   schedule.Slow,
		"normal": schedule.Normal,
		"fast":   schedule.Fast,
	})
	return nil
}
