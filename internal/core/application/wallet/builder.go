package wallet

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
	"github.com/swaponline/swapd/pkg/mathutil"
	"github.com/swaponline/swapd/pkg/transactionutil"
)

const (
	// DefaultDustThreshold is the minimum value in satoshis of a change
	// output. Smaller change is left to miners.
	DefaultDustThreshold = 546
)

// CoinSelection is the policy used to pick the unspents to spend.
type CoinSelection string

const (
	// CoinSelectionSpendAll spends the whole unspent set of the sender.
	CoinSelectionSpendAll CoinSelection = "spend-all"
	// CoinSelectionLargestFirst spends the minimal set of largest unspents
	// covering amount and fee.
	CoinSelectionLargestFirst CoinSelection = "largest-first"
)

var (
	// ErrMissingExplorer ...
	ErrMissingExplorer = errors.New("missing explorer")
	// ErrMissingSigner ...
	ErrMissingSigner = errors.New("missing signer")
	// ErrMissingNetwork ...
	ErrMissingNetwork = errors.New("missing network params")
	// ErrUnknownCoinSelection ...
	ErrUnknownCoinSelection = errors.New("unknown coin selection policy")
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("address is not valid for the network")
	// ErrInvalidAmount ...
	ErrInvalidAmount = errors.New("amount must be a positive number")
	// ErrUnknownAddress ...
	ErrUnknownAddress = errors.New("no private key for sender address")
)

// FeeScheduleGetter ...
type FeeScheduleGetter interface {
	GetFeeSchedule(ctx context.Context, asset domain.Asset) domain.FeeSchedule
}

// BuilderConfig ...
type BuilderConfig struct {
	Asset    domain.Asset
	Network  *chaincfg.Params
	Explorer ports.Explorer
	Signer   ports.Signer
	Fees     FeeScheduleGetter
	Metrics  ports.Metrics

	DustThreshold uint64
	CoinSelection CoinSelection
	// SizeEstimation makes the fee depend on the actual number of inputs and
	// outputs rather than on DefaultTxSize.
	SizeEstimation bool
}

func (c BuilderConfig) validate() error {
	if !c.Asset.IsValid() {
		return domain.ErrUnknownAsset
	}
	if c.Network == nil {
		return ErrMissingNetwork
	}
	if c.Explorer == nil {
		return ErrMissingExplorer
	}
	if c.Signer == nil {
		return ErrMissingSigner
	}
	switch c.CoinSelection {
	case "", CoinSelectionSpendAll, CoinSelectionLargestFirst:
	default:
		return ErrUnknownCoinSelection
	}
	return nil
}

// BuildRequest ...
type BuildRequest struct {
	From   string
	To     string
	Amount decimal.Decimal
	// Fee is the absolute fee in satoshis. If nil, it is derived from the
	// normal tier of the asset's fee schedule.
	Fee *uint64
}

// Builder crafts, signs and broadcasts P2PKH transactions of a single asset.
// It holds no mutable state between calls.
type Builder struct {
	cfg BuilderConfig
}

func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.CoinSelection == "" {
		cfg.CoinSelection = CoinSelectionSpendAll
	}
	if cfg.DustThreshold == 0 {
		cfg.DustThreshold = DefaultDustThreshold
	}
	if cfg.Metrics == nil {
		cfg.Metrics = ports.NoopMetrics{}
	}
	return &Builder{cfg}, nil
}

// BuildAndSend sends Amount from From to To and returns the id of the
// broadcasted transaction.
func (b *Builder) BuildAndSend(ctx context.Context, req BuildRequest) (string, error) {
	fromAddr, err := b.decodeAddress(req.From)
	if err != nil {
		return "", err
	}
	if _, ok := fromAddr.(*btcutil.AddressPubKeyHash); !ok {
		return "", ErrInvalidAddress
	}
	toAddr, err := b.decodeAddress(req.To)
	if err != nil {
		return "", err
	}
	if !req.Amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	amount, err := mathutil.ToSatoshis(req.Amount)
	if err != nil || amount == 0 {
		return "", ErrInvalidAmount
	}
	key, ok := b.cfg.Signer.PrivateKey(req.From)
	if !ok {
		return "", ErrUnknownAddress
	}

	var feeRate uint64
	if req.Fee == nil {
		feeRate = b.feeSchedule(ctx).Normal
	}

	unspents, err := b.cfg.Explorer.ListUnspent(ctx, req.From)
	if err != nil {
		return "", err
	}
	unspents = filterValidUnspents(unspents)

	selected, fee, err := b.selectUnspents(unspents, amount, feeRate, req.Fee)
	if err != nil {
		return "", err
	}

	totalIn := domain.UnspentList(selected).TotalValue()
	change := totalIn - amount - fee

	ins := make([]transactionutil.Input, 0, len(selected))
	for _, u := range selected {
		ins = append(ins, transactionutil.Input{TxID: u.TxID, Index: u.Index})
	}
	outs := []transactionutil.Output{{Address: toAddr, Value: int64(amount)}}
	if change > 0 && change >= b.cfg.DustThreshold {
		outs = append(outs, transactionutil.Output{
			Address: fromAddr, Value: int64(change),
		})
	}

	tx, err := transactionutil.NewTx(ins, outs, transactionutil.ReplaceableSequence)
	if err != nil {
		return "", err
	}
	prevScript, err := txscript.PayToAddrScript(fromAddr)
	if err != nil {
		return "", err
	}
	for i := range tx.TxIn {
		if err := transactionutil.SignP2PKHInput(tx, i, prevScript, key); err != nil {
			return "", fmt.Errorf("failed to sign input %d: %w", i, err)
		}
	}
	txHex, err := transactionutil.ToHex(tx)
	if err != nil {
		return "", err
	}

	txid, err := b.cfg.Explorer.Broadcast(ctx, txHex)
	b.cfg.Metrics.Broadcast(b.cfg.Asset.String(), err)
	if err != nil {
		return "", err
	}

	log.WithFields(log.Fields{
		"asset":  b.cfg.Asset,
		"txid":   txid,
		"amount": amount,
		"fee":    fee,
		"inputs": len(selected),
	}).Debug("transaction broadcasted")

	return txid, nil
}

func (b *Builder) feeSchedule(ctx context.Context) domain.FeeSchedule {
	if b.cfg.Fees == nil {
		return domain.DefaultFeeSchedule(b.cfg.Asset)
	}
	return b.cfg.Fees.GetFeeSchedule(ctx, b.cfg.Asset)
}

// selectUnspents returns the unspents to spend along with the fee to pay. If
// explicitFee is not nil, it is used as is, otherwise the fee is derived from
// feeRate.
func (b *Builder) selectUnspents(
	unspents []domain.UnspentOutput, amount, feeRate uint64, explicitFee *uint64,
) ([]domain.UnspentOutput, uint64, error) {
	feeFor := func(numInputs int) uint64 {
		if explicitFee != nil {
			return *explicitFee
		}
		size := uint64(domain.DefaultTxSize)
		if b.cfg.SizeEstimation {
			size = uint64(transactionutil.EstimateP2PKHTxSize(numInputs, 2))
		}
		return domain.TxFeeValue(feeRate, size)
	}

	available := domain.UnspentList(unspents).TotalValue()

	if b.cfg.CoinSelection == CoinSelectionSpendAll {
		fee := feeFor(len(unspents))
		if len(unspents) == 0 || available < amount+fee {
			return nil, 0, &domain.InsufficientFundsError{
				Available: available, Required: amount + fee,
			}
		}
		return unspents, fee, nil
	}

	sorted := make([]domain.UnspentOutput, len(unspents))
	copy(sorted, unspents)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})

	var total uint64
	for i, u := range sorted {
		total += u.Value
		fee := feeFor(i + 1)
		if total >= amount+fee {
			return sorted[:i+1], fee, nil
		}
	}
	return nil, 0, &domain.InsufficientFundsError{
		Available: available, Required: amount + feeFor(len(sorted)),
	}
}

func (b *Builder) decodeAddress(address string) (btcutil.Address, error) {
	addr, err := btcutil.DecodeAddress(address, b.cfg.Network)
	if err != nil || !addr.IsForNet(b.cfg.Network) {
		return nil, ErrInvalidAddress
	}
	return addr, nil
}

func filterValidUnspents(unspents []domain.UnspentOutput) []domain.UnspentOutput {
	valid := make([]domain.UnspentOutput, 0, len(unspents))
	for _, u := range unspents {
		if err := u.Validate(); err != nil {
			log.WithField("outpoint", u.Key()).Warn("skipping invalid unspent")
			continue
		}
		valid = append(valid, u)
	}
	return valid
}
