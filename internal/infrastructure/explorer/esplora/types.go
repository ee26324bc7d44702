package esplora

type status struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint64 `json:"block_height"`
	BlockTime   int64  `json:"block_time"`
}

type utxo struct {
	TxID   string `json:"txid"`
	Vout   uint32 `json:"vout"`
	Value  uint64 `json:"value"`
	Status status `json:"status"`
}

type stats struct {
	FundedTxoSum uint64 `json:"funded_txo_sum"`
	SpentTxoSum  uint64 `json:"spent_txo_sum"`
}

func (s stats) balance() int64 {
	return int64(s.FundedTxoSum) - int64(s.SpentTxoSum)
}

type addressInfo struct {
	Address      string `json:"address"`
	ChainStats   stats  `json:"chain_stats"`
	MempoolStats stats  `json:"mempool_stats"`
}

type prevout struct {
	ScriptPubKeyAddress string `json:"scriptpubkey_address"`
	Value               uint64 `json:"value"`
}

type input struct {
	TxID    string   `json:"txid"`
	Vout    uint32   `json:"vout"`
	Prevout *prevout `json:"prevout"`
}

type transaction struct {
	TxID    string    `json:"txid"`
	Inputs  []input   `json:"vin"`
	Outputs []prevout `json:"vout"`
	Status  status    `json:"status"`
}
