package refund

import (
	"context"
	"errors"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
	"github.com/swaponline/swapd/pkg/transactionutil"
)

var (
	// ErrMissingRefundTx ...
	ErrMissingRefundTx = errors.New("swap has no refund transaction")
	// ErrMissingExplorer ...
	ErrMissingExplorer = errors.New("missing explorer for swap asset")

	// alreadyKnownReasons are the rejection reasons meaning that the refund tx
	// has been already broadcasted.
	alreadyKnownReasons = []string{
		"txn-already-in-mempool",
		"txn-already-known",
		"transaction already in block chain",
	}
)

// flow broadcasts the pre-signed refund transaction of a swap session. The
// refund tx spends the deposit of the sold asset back to the local wallet.
type flow struct {
	swapID   string
	txHex    string
	explorer ports.Explorer

	lock  *sync.RWMutex
	state ports.FlowState
}

// NewFlowFactory returns a factory of refund flows broadcasting through the
// explorer of the asset sold by each session.
func NewFlowFactory(
	explorers map[domain.Asset]ports.Explorer,
) func(*domain.SwapSession) (ports.RefundFlow, error) {
	return func(session *domain.SwapSession) (ports.RefundFlow, error) {
		explorer, ok := explorers[session.SellCurrency]
		if !ok || explorer == nil {
			return nil, ErrMissingExplorer
		}
		if session.RefundTxHex != "" {
			if _, err := transactionutil.FromHex(session.RefundTxHex); err != nil {
				return nil, err
			}
		}

		return &flow{
			swapID:   session.ID,
			txHex:    session.RefundTxHex,
			explorer: explorer,
			lock:     &sync.RWMutex{},
			state: ports.FlowState{
				IsFinished: session.IsFinished,
				IsRefunded: session.IsRefunded,
			},
		}, nil
	}
}

func (f *flow) State() ports.FlowState {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.state
}

func (f *flow) TryRefund(ctx context.Context) error {
	if f.txHex == "" {
		return ErrMissingRefundTx
	}

	txid, err := f.explorer.Broadcast(ctx, f.txHex)
	if err != nil {
		var rejected *domain.BroadcastRejectedError
		if !errors.As(err, &rejected) || !isAlreadyKnown(rejected.Reason) {
			return err
		}
		log.WithField("swap_id", f.swapID).Debug("refund tx already broadcasted")
	} else {
		log.WithFields(log.Fields{
			"swap_id": f.swapID,
			"txid":    txid,
		}).Info("refund tx broadcasted")
	}

	f.lock.Lock()
	f.state.IsRefunded = true
	f.lock.Unlock()
	return nil
}

func isAlreadyKnown(reason string) bool {
	for _, r := range alreadyKnownReasons {
		if strings.Contains(reason, r) {
			return true
		}
	}
	return false
}
