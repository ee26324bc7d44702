package main

import (
	"github.com/swaponline/swapd/pkg/mathutil"
	"github.com/urfave/cli/v2"
)

var balance = cli.Command{
	Name:   "balance",
	Usage:  "get the confirmed and unconfirmed balance of an address",
	Flags:  []cli.Flag{&assetFlag, &addressFlag},
	Action: balanceAction,
}

func balanceAction(ctx *cli.Context) error {
	handler, err := getAssetHandler(ctx.String("asset"))
	if err != nil {
		return err
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	b := handler.GetBalance(reqCtx, ctx.String("address"))
	if b.Err != nil {
		return b.Err
	}

	printRespJSON(map[string]string{
		"address":     b.Address,
		"confirmed":   mathutil.FromSatoshis(b.Confirmed).String(),
		"unconfirmed": mathutil.FromSatoshis(b.Unconfirmed).String(),
	})
	return nil
}
