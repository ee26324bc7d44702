package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/swaponline/swapd/internal/config"
	"github.com/swaponline/swapd/internal/core/application/wallet"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var send = cli.Command{
	Name:  "send",
	Usage: "send funds of the wallet of an asset to an address",
	Flags: []cli.Flag{
		&assetFlag,
		&cli.StringFlag{
			Name:     "to",
			Usage:    "the receiving address",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "amount",
			Usage:    "the amount to send in coins, ie. 0.001",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:  "fee",
			Usage: "an explicit fee in satoshis, otherwise derived from the normal fee rate",
		},
	},
	Action: sendAction,
}

func sendAction(ctx *cli.Context) error {
	asset, err := domain.ParseAsset(ctx.String("asset"))
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(ctx.String("amount"))
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	wif := config.GetWIF(asset)
	if wif == "" {
		return fmt.Errorf("missing SWAPD_%s_WIF", asset)
	}

	handler, err := getAssetHandler(asset.String())
	if err != nil {
		return err
	}
	account, err := handler.Login(wif)
	if err != nil {
		return err
	}

	req := wallet.BuildRequest{
		From:   account.Address,
		To:     ctx.String("to"),
		Amount: amount,
	}
	if ctx.IsSet("fee") {
		fee := ctx.Uint64("fee")
		req.Fee = &fee
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	txid, err := handler.BuildAndSend(reqCtx, req)
	if err != nil {
		return err
	}

	printRespJSON(map[string]string{"txid": txid})
	return nil
}
