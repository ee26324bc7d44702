package main

import (
	"context"
	"path/filepath"

	"github.com/swaponline/swapd/internal/config"
	"github.com/swaponline/swapd/internal/core/domain"
	dbbadger "github.com/swaponline/swapd/internal/infrastructure/storage/badger"
	"github.com/urfave/cli/v2"
)

var swaps = cli.Command{
	Name:  "swaps",
	Usage: "list the swaps stored in the datadir, the daemon must be stopped",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "active",
			Usage: "list only swaps neither finished nor refunded",
		},
	},
	Action: swapsAction,
}

type swapEntry struct {
	ID                 string `json:"id"`
	Role               string `json:"role"`
	CounterpartyPeerID string `json:"counterpartyPeerId"`
	Sell               string `json:"sell"`
	Buy                string `json:"buy"`
	Step               int    `json:"step"`
	LockTime           *int64 `json:"lockTime,omitempty"`
	IsFinished         bool   `json:"isFinished"`
	IsRefunded         bool   `json:"isRefunded"`
	Frozen             bool   `json:"frozen"`
}

func swapsAction(ctx *cli.Context) error {
	repo, err := dbbadger.NewSwapRepository(
		filepath.Join(config.GetDatadir(), config.DbLocation), nil,
	)
	if err != nil {
		return err
	}
	defer repo.Close()

	var list []*domain.SwapSession
	if ctx.Bool("active") {
		list, err = repo.GetActiveSwaps(context.Background())
	} else {
		list, err = repo.GetAllSwaps(context.Background())
	}
	if err != nil {
		return err
	}

	entries := make([]swapEntry, 0, len(list))
	for _, s := range list {
		entries = append(entries, swapEntry{
			ID:                 s.ID,
			Role:               string(s.Role),
			CounterpartyPeerID: s.CounterpartyPeerID,
			Sell:               s.SellAmount.String() + " " + s.SellCurrency.String(),
			Buy:                s.BuyAmount.String() + " " + s.BuyCurrency.String(),
			Step:               int(s.Step),
			LockTime:           s.LockTimeUnix,
			IsFinished:         s.IsFinished,
			IsRefunded:         s.IsRefunded,
			Frozen:             s.Frozen,
		})
	}

	printRespJSON(entries)
	return nil
}
