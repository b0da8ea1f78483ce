// Package transport implements the node's HTTP gossip API, concurrent
// peer broadcast, a Prometheus metrics endpoint, and a best-effort
// WebSocket block feed layered on top.
package transport

import "github.com/supplychain/ledgerd/internal/ledger"

// InfoResponse is the body of GET /info.
type InfoResponse struct {
	NodeName string `json:"node_name"`
	Height   uint64 `json:"height"`
	LastHash string `json:"last_hash"`
}

// errorResponse is the JSON body written on 400/409 responses.
type errorResponse struct {
	Error string `json:"error"`
}

// blockHeaderEvent is what the /ws feed pushes: a block's header without
// its transaction list, trimmed for a lightweight live feed.
type blockHeaderEvent struct {
	Index      uint64 `json:"index"`
	Hash       string `json:"hash"`
	Validator  string `json:"validator"`
	TxCount    int    `json:"tx_count"`
	Timestamp  float64 `json:"timestamp"`
}

func toHeaderEvent(b *ledger.Block) blockHeaderEvent {
	return blockHeaderEvent{
		Index:     b.Index,
		Hash:      b.Hash,
		Validator: b.Validator,
		TxCount:   len(b.Transactions),
		Timestamp: b.Timestamp,
	}
}
