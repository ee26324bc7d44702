package transactionutil

import "github.com/btcsuite/btcd/wire"

const (
	// hash + index + sequence
	inBaseSize = 40
	// len + opcode + sig + opcode + pubkey
	p2pkhScriptSigSize = 108
	// value
	outBaseSize = 8
	// len + opcodes (3) + hash(pubkey) + opcodes (2)
	p2pkhScriptPubKeySize = 26
	// version + locktime
	txOverhead = 8
)

// EstimateP2PKHTxSize makes an estimation of the size of a transaction
// spending only P2PKH inputs into only P2PKH outputs.
func EstimateP2PKHTxSize(numInputs, numOutputs int) int {
	return txOverhead +
		wire.VarIntSerializeSize(uint64(numInputs)) +
		wire.VarIntSerializeSize(uint64(numOutputs)) +
		numInputs*(inBaseSize+p2pkhScriptSigSize) +
		numOutputs*(outBaseSize+p2pkhScriptPubKeySize)
}
