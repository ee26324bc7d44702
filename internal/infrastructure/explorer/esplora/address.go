package esplora

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/swaponline/swapd/internal/core/ports"
)

func (e *esplora) GetAddressSummary(
	ctx context.Context, address string,
) (*ports.AddressSummary, error) {
	url := fmt.Sprintf("%s/address/%s", e.apiURL, address)
	resp, err := e.get(ctx, "address summary", url)
	if err != nil {
		return nil, err
	}

	info := addressInfo{}
	if err := json.Unmarshal([]byte(resp), &info); err != nil {
		return nil, fmt.Errorf("error on retrieving address summary: %w", err)
	}

	confirmed := info.ChainStats.balance()
	if confirmed < 0 {
		confirmed = 0
	}
	// Mempool spends of confirmed outputs make the unconfirmed delta negative
	// and are not counted as unconfirmed balance.
	unconfirmed := info.MempoolStats.balance()
	if unconfirmed < 0 {
		unconfirmed = 0
	}

	return &ports.AddressSummary{
		Balance:            uint64(confirmed),
		UnconfirmedBalance: uint64(unconfirmed),
	}, nil
}
