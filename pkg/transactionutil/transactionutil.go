package transactionutil

import (
	"bytes"
	"encoding/hex"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

const (
	// TxVersion ...
	TxVersion = 2
	// ReplaceableSequence opts an input in for BIP-125 replacement while
	// the tx is unconfirmed.
	ReplaceableSequence = wire.MaxTxInSequenceNum - 2
)

var (
	// ErrEmptyInputs ...
	ErrEmptyInputs = errors.New("transaction must have at least one input")
	// ErrEmptyOutputs ...
	ErrEmptyOutputs = errors.New("transaction must have at least one output")
	// ErrInputIndexOutOfRange ...
	ErrInputIndexOutOfRange = errors.New("input index out of range")
)

// Input references a previous output to spend.
type Input struct {
	TxID  string
	Index uint32
}

// Output pays Value satoshis to Address.
type Output struct {
	Address btcutil.Address
	Value   int64
}

// NewTx crafts an unsigned transaction spending the given inputs, in order,
// each with the given sequence number.
func NewTx(ins []Input, outs []Output, sequence uint32) (*wire.MsgTx, error) {
	if len(ins) <= 0 {
		return nil, ErrEmptyInputs
	}
	if len(outs) <= 0 {
		return nil, ErrEmptyOutputs
	}

	tx := wire.NewMsgTx(TxVersion)
	for _, in := range ins {
		hash, err := chainhash.NewHashFromStr(in.TxID)
		if err != nil {
			return nil, err
		}
		txIn := wire.NewTxIn(wire.NewOutPoint(hash, in.Index), nil, nil)
		txIn.Sequence = sequence
		tx.AddTxIn(txIn)
	}
	for _, out := range outs {
		script, err := txscript.PayToAddrScript(out.Address)
		if err != nil {
			return nil, err
		}
		tx.AddTxOut(wire.NewTxOut(out.Value, script))
	}
	return tx, nil
}

// SignP2PKHInput signs the input at the given index, which must be locked by
// prevScript, with a SIGHASH_ALL signature of the compressed key.
func SignP2PKHInput(
	tx *wire.MsgTx, index int, prevScript []byte, key *btcec.PrivateKey,
) error {
	if index < 0 || index >= len(tx.TxIn) {
		return ErrInputIndexOutOfRange
	}
	sigScript, err := txscript.SignatureScript(
		tx, index, prevScript, txscript.SigHashAll, key, true,
	)
	if err != nil {
		return err
	}
	tx.TxIn[index].SignatureScript = sigScript
	return nil
}

// ToHex serializes the tx to its hex wire format.
func ToHex(tx *wire.MsgTx) (string, error) {
	buf := bytes.NewBuffer(make([]byte, 0, tx.SerializeSize()))
	if err := tx.Serialize(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// FromHex deserializes a tx in hex wire format.
func FromHex(txHex string) (*wire.MsgTx, error) {
	buf, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, err
	}
	tx := &wire.MsgTx{}
	if err := tx.Deserialize(bytes.NewReader(buf)); err != nil {
		return nil, err
	}
	return tx, nil
}
