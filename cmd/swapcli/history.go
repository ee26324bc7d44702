package main

import (
	"time"

	"github.com/urfave/cli/v2"
)

var history = cli.Command{
	Name:   "history",
	Usage:  "list the transactions of an address with their signed value",
	Flags:  []cli.Flag{&assetFlag, &addressFlag},
	Action: historyAction,
}

type historyEntry struct {
	TxID          string `json:"txid"`
	Direction     string `json:"direction"`
	Value         string `json:"value"`
	Confirmations uint64 `json:"confirmations"`
	Time          string `json:"time,omitempty"`
}

func historyAction(ctx *cli.Context) error {
	handler, err := getAssetHandler(ctx.String("asset"))
	if err != nil {
		return err
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	records := handler.GetHistory(reqCtx, ctx.String("address"))
	entries := make([]historyEntry, 0, len(records))
	for _, r := range records {
		var txTime string
		if r.Time > 0 {
			txTime = time.Unix(r.Time, 0).UTC().Format(time.RFC3339)
		}
		entries = append(entries, historyEntry{
			TxID:          r.TxID,
			Direction:     string(r.Direction),
			Value:         r.Value.String(),
			Confirmations: r.Confirmations,
			Time:          txTime,
		})
	}

	printRespJSON(entries)
	return nil
}
