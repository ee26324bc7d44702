package wallet

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
	"github.com/swaponline/swapd/pkg/mathutil"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentRequests bounds the explorer calls issued by GetBalances.
const maxConcurrentRequests = 8

// BalanceTracker reads balances and history of addresses of a single asset.
// Failures of the data source never propagate to the caller.
type BalanceTracker struct {
	asset    domain.Asset
	explorer ports.Explorer
}

func NewBalanceTracker(
	asset domain.Asset, explorer ports.Explorer,
) (*BalanceTracker, error) {
	if !asset.IsValid() {
		return nil, domain.ErrUnknownAsset
	}
	if explorer == nil {
		return nil, ErrMissingExplorer
	}
	return &BalanceTracker{asset, explorer}, nil
}

// GetBalance returns an error-marked balance if the explorer fails.
func (t *BalanceTracker) GetBalance(
	ctx context.Context, address string,
) domain.Balance {
	summary, err := t.explorer.GetAddressSummary(ctx, address)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"asset":   t.asset,
			"address": address,
		}).Debug("failed to fetch balance")
		return domain.Balance{Address: address, Err: err}
	}
	return domain.Balance{
		Address:     address,
		Confirmed:   summary.Balance,
		Unconfirmed: summary.UnconfirmedBalance,
	}
}

// GetBalances fetches the balances of the given addresses concurrently. The
// result is in the same order as addresses.
func (t *BalanceTracker) GetBalances(
	ctx context.Context, addresses []string,
) []domain.Balance {
	balances := make([]domain.Balance, len(addresses))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentRequests)
	for i := range addresses {
		i := i
		eg.Go(func() error {
			balances[i] = t.GetBalance(gctx, addresses[i])
			return nil
		})
	}
	_ = eg.Wait()

	return balances
}

// GetHistory returns the history of the given address, newest first as
// returned by the explorer. It's empty if the explorer fails.
func (t *BalanceTracker) GetHistory(
	ctx context.Context, address string,
) []domain.TransactionRecord {
	txs, err := t.explorer.GetTransactionsForAddress(ctx, address)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"asset":   t.asset,
			"address": address,
		}).Debug("failed to fetch history")
		return []domain.TransactionRecord{}
	}

	history := make([]domain.TransactionRecord, 0, len(txs))
	for _, tx := range txs {
		value, direction := netValue(address, tx)
		history = append(history, domain.TransactionRecord{
			Asset:         t.asset,
			TxID:          tx.TxID,
			Confirmations: tx.Confirmations,
			Value:         mathutil.FromSignedSatoshis(value),
			Time:          tx.Time,
			Direction:     direction,
		})
	}
	return history
}

// netValue returns the signed amount in satoshis moved by tx for address.
func netValue(address string, tx ports.TxRecord) (int64, domain.Direction) {
	var (
		fromAddress, onlyAddress = false, true
		totalIn, totalOut        int64
		toAddress, toOthers      int64
	)

	for _, in := range tx.Inputs {
		totalIn += int64(in.Value)
		if in.Address == address {
			fromAddress = true
		} else {
			onlyAddress = false
		}
	}
	for _, out := range tx.Outputs {
		totalOut += int64(out.Value)
		if out.Address == address {
			toAddress += int64(out.Value)
		} else {
			toOthers += int64(out.Value)
			onlyAddress = false
		}
	}

	if !fromAddress {
		return toAddress, domain.DirectionIn
	}
	if onlyAddress {
		return totalOut - totalIn, domain.DirectionOut
	}
	return -toOthers, domain.DirectionOut
}
