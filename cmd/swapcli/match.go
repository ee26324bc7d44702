package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/swaponline/swapd/internal/config"
	"github.com/swaponline/swapd/internal/core/application/matcher"
	"github.com/swaponline/swapd/internal/core/application/swap"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
	"github.com/swaponline/swapd/internal/infrastructure/orderbook/inmemory"
	websocketpeer "github.com/swaponline/swapd/internal/infrastructure/peer/websocket"
	dbbadger "github.com/swaponline/swapd/internal/infrastructure/storage/badger"
	"github.com/urfave/cli/v2"
)

var match = cli.Command{
	Name:  "match",
	Usage: "look for a peer order able to take the given amount and optionally request it",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "get",
			Usage:    "the asset to receive",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "have",
			Usage:    "the asset to give",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "amount",
			Usage:    "the amount of the have asset to give",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "destination",
			Usage: "an optional address where to receive the get asset",
		},
		&cli.DurationFlag{
			Name:  "wait",
			Usage: "how long to look for a match",
			Value: 30 * time.Second,
		},
		&cli.BoolFlag{
			Name:  "request",
			Usage: "send a partial closure request to the owner of the matched order and store the swap if accepted, the daemon must be stopped",
		},
	},
	Action: matchAction,
}

type outcomeEntry struct {
	Outcome              string `json:"outcome"`
	PeerID               string `json:"peerId,omitempty"`
	OrderID              string `json:"orderId,omitempty"`
	GetAmount            string `json:"getAmount,omitempty"`
	MaxAllowedSellAmount string `json:"maxAllowedSellAmount"`
}

func matchAction(ctx *cli.Context) error {
	getCurrency, err := domain.ParseAsset(ctx.String("get"))
	if err != nil {
		return err
	}
	haveCurrency, err := domain.ParseAsset(ctx.String("have"))
	if err != nil {
		return err
	}
	haveAmount, err := decimal.NewFromString(ctx.String("amount"))
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	relayURL := config.GetString(config.PeerRelayURLKey)
	if relayURL == "" {
		return fmt.Errorf("missing SWAPD_%s", config.PeerRelayURLKey)
	}
	peerID := config.GetString(config.PeerIDKey)
	if peerID == "" {
		peerID = uuid.New().String()
	}

	peer, err := websocketpeer.NewService(relayURL, peerID)
	if err != nil {
		return err
	}
	defer peer.Close()

	book := inmemory.NewOrderBook()
	peer.Handle(ports.PeerNewOrder, book.HandleNewOrder())
	peer.Handle(ports.PeerRemoveOrder, book.HandleRemoveOrder())

	session, err := matcher.NewSession(book, peer, matcher.SessionConfig{
		GetCurrency:        getCurrency,
		HaveCurrency:       haveCurrency,
		HaveAmount:         haveAmount,
		Policy:             config.GetMatchSelection(),
		DestinationAddress: ctx.String("destination"),
		Interval:           config.GetDuration(config.MatchingIntervalKey),
		DeclineResetDelay:  config.GetDuration(config.DeclineResetDelayKey),
	}, nil)
	if err != nil {
		return err
	}
	defer session.Close()

	outcome, matched := waitForMatch(session, ctx.Duration("wait"))
	printRespJSON(toOutcomeEntry(outcome))
	if !matched || !ctx.Bool("request") {
		return nil
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	result, err := session.SendRequest(reqCtx)
	if err != nil {
		return err
	}
	printRespJSON(result)
	if !result.Accepted {
		return nil
	}

	swapSession := acceptedSession(result, haveCurrency, haveAmount, getCurrency)
	if err := storeSwap(reqCtx, swapSession); err != nil {
		return fmt.Errorf("order accepted but swap not stored: %w", err)
	}
	printRespJSON(map[string]string{"swapId": swapSession.ID})
	return nil
}

// acceptedSession returns the session of the requester for an accepted
// order: it sells the have amount and buys the proposed get amount.
func acceptedSession(
	result *matcher.RequestResult,
	haveCurrency domain.Asset, haveAmount decimal.Decimal,
	getCurrency domain.Asset,
) *domain.SwapSession {
	return swap.NewAcceptedSession(
		result.OrderID, domain.RoleInitiator, result.PeerID,
		haveCurrency, haveAmount, getCurrency, result.GetAmount,
	)
}

// storeSwap persists the session in the datadir, where the daemon resumes
// and supervises it at its next start.
func storeSwap(ctx context.Context, session *domain.SwapSession) error {
	repo, err := dbbadger.NewSwapRepository(
		filepath.Join(config.GetDatadir(), config.DbLocation), nil,
	)
	if err != nil {
		return err
	}
	defer repo.Close()

	return repo.AddSwap(ctx, session)
}

func waitForMatch(
	session *matcher.Session, wait time.Duration,
) (matcher.MatchOutcome, bool) {
	timeout := time.NewTimer(wait)
	defer timeout.Stop()

	session.Start()

	var last matcher.MatchOutcome
	for {
		select {
		case outcome := <-session.Results():
			last = outcome
			if outcome.IsMatched() {
				return outcome, true
			}
		case <-timeout.C:
			return last, false
		}
	}
}

func toOutcomeEntry(outcome matcher.MatchOutcome) outcomeEntry {
	entry := outcomeEntry{
		Outcome:              outcome.Kind.String(),
		MaxAllowedSellAmount: outcome.MaxAllowedSellAmount.String(),
	}
	if outcome.IsMatched() {
		entry.PeerID = outcome.PeerID
		entry.OrderID = outcome.OrderID
		entry.GetAmount = outcome.GetAmount.String()
	}
	return entry
}

