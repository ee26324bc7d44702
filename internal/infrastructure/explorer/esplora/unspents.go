package esplora

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/swaponline/swapd/internal/core/domain"
)

func (e *esplora) ListUnspent(
	ctx context.Context, address string,
) ([]domain.UnspentOutput, error) {
	url := fmt.Sprintf("%s/address/%s/utxo", e.apiURL, address)
	resp, err := e.get(ctx, "list unspent", url)
	if err != nil {
		return nil, err
	}

	var utxos []utxo
	if err := json.Unmarshal([]byte(resp), &utxos); err != nil {
		return nil, fmt.Errorf("error on retrieving utxos: %w", err)
	}
	if len(utxos) <= 0 {
		return []domain.UnspentOutput{}, nil
	}

	tip, err := e.getBlockHeight(ctx)
	if err != nil {
		return nil, err
	}

	unspents := make([]domain.UnspentOutput, 0, len(utxos))
	for _, u := range utxos {
		unspents = append(unspents, domain.UnspentOutput{
			TxID:          u.TxID,
			Index:         u.Vout,
			Value:         u.Value,
			Confirmations: confirmations(u.Status, tip),
		})
	}
	return unspents, nil
}
