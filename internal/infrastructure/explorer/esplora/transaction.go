package esplora

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
)

const (
	// chainTxsPageSize is the number of confirmed txs returned by every page
	// of the address history.
	chainTxsPageSize = 25
	// maxTxsPages bounds the history of an address to 1000 confirmed txs.
	maxTxsPages = 40
)

func (e *esplora) GetTransactionsForAddress(
	ctx context.Context, address string,
) ([]ports.TxRecord, error) {
	txs, err := e.getAddressTransactions(ctx, address)
	if err != nil {
		return nil, err
	}
	if len(txs) <= 0 {
		return []ports.TxRecord{}, nil
	}

	tip, err := e.getBlockHeight(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]ports.TxRecord, 0, len(txs))
	for _, tx := range txs {
		ins := make([]ports.TxIO, 0, len(tx.Inputs))
		for _, in := range tx.Inputs {
			if in.Prevout == nil {
				// coinbase
				continue
			}
			ins = append(ins, ports.TxIO{
				Address: in.Prevout.ScriptPubKeyAddress,
				Value:   in.Prevout.Value,
			})
		}
		outs := make([]ports.TxIO, 0, len(tx.Outputs))
		for _, out := range tx.Outputs {
			outs = append(outs, ports.TxIO{
				Address: out.ScriptPubKeyAddress,
				Value:   out.Value,
			})
		}

		records = append(records, ports.TxRecord{
			TxID:          tx.TxID,
			Confirmations: confirmations(tx.Status, tip),
			Time:          tx.Status.BlockTime,
			Inputs:        ins,
			Outputs:       outs,
		})
	}
	return records, nil
}

// getAddressTransactions walks the history of the address: the first page
// holds the mempool txs followed by the most recent confirmed ones, the next
// pages continue the confirmed ones after the last seen.
func (e *esplora) getAddressTransactions(
	ctx context.Context, address string,
) ([]transaction, error) {
	url := fmt.Sprintf("%s/address/%s/txs", e.apiURL, address)

	all := make([]transaction, 0)
	for page := 0; page < maxTxsPages; page++ {
		resp, err := e.get(ctx, "address transactions", url)
		if err != nil {
			return nil, err
		}

		var txs []transaction
		if err := json.Unmarshal([]byte(resp), &txs); err != nil {
			return nil, fmt.Errorf("error on retrieving transactions: %w", err)
		}
		all = append(all, txs...)

		confirmed, lastSeen := 0, ""
		for _, tx := range txs {
			if tx.Status.Confirmed {
				confirmed++
				lastSeen = tx.TxID
			}
		}
		if confirmed < chainTxsPageSize {
			return all, nil
		}
		url = fmt.Sprintf(
			"%s/address/%s/txs/chain/%s", e.apiURL, address, lastSeen,
		)
	}

	log.WithField("address", address).Warnf(
		"address history truncated to %d pages", maxTxsPages,
	)
	return all, nil
}

func (e *esplora) Broadcast(ctx context.Context, txHex string) (string, error) {
	url := fmt.Sprintf("%s/tx", e.apiURL)
	headers := map[string]string{
		"Content-Type": "text/plain",
	}

	e.limiter.Take()
	status, resp, err := e.client.NewHTTPRequest(
		ctx, http.MethodPost, url, txHex, headers,
	)
	if err != nil {
		return "", domain.NewNetworkError("broadcast", err)
	}
	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		return "", statusError("broadcast", status, resp)
	}
	if status != http.StatusOK {
		return "", &domain.BroadcastRejectedError{Reason: resp}
	}

	return strings.TrimSpace(resp), nil
}
