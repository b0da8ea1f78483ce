package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/supplychain/ledgerd/internal/ledger"
	"github.com/supplychain/ledgerd/pkg/logging"
)

// Broadcaster fans a transaction or block out to every configured peer
// concurrently, with a short per-request timeout, logging and ignoring
// individual peer failures.
type Broadcaster struct {
	peers       []string
	txClient    *http.Client
	blockClient *http.Client
	log         *logging.Logger
	metrics     *Metrics
}

// NewBroadcaster builds a Broadcaster over the given peer base URLs
// (e.g. "http://10.0.0.2:8080").
func NewBroadcaster(peers []string) *Broadcaster {
	return &Broadcaster{
		peers:       peers,
		txClient:    &http.Client{Timeout: 1 * time.Second},
		blockClient: &http.Client{Timeout: 2 * time.Second},
		log:         logging.GetDefault().Component(logging.ComponentBroadcast),
	}
}

// SetMetrics attaches the node's gossip counters, so every fan-out after
// this call records sends and failures. Safe to call once at server setup;
// not safe for concurrent fan-outs to race with.
func (b *Broadcaster) SetMetrics(m *Metrics) {
	b.metrics = m
}

// BroadcastTransaction relays tx to every peer's POST /transaction.
func (b *Broadcaster) BroadcastTransaction(tx *ledger.Transaction) {
	body, err := json.Marshal(tx)
	if err != nil {
		b.log.Warn("failed to encode transaction for broadcast", "error", err)
		return
	}
	b.fanOut(b.txClient, "/transaction", body)
}

// BroadcastBlock relays b to every peer's POST /block.
func (b *Broadcaster) BroadcastBlock(blk *ledger.Block) {
	body, err := json.Marshal(blk)
	if err != nil {
		b.log.Warn("failed to encode block for broadcast", "error", err)
		return
	}
	b.fanOut(b.blockClient, "/block", body)
}

func (b *Broadcaster) fanOut(client *http.Client, path string, body []byte) {
	correlationID := uuid.NewString()

	var wg sync.WaitGroup
	var sent int32
	for _, peer := range b.peers {
		wg.Add(1)
		go func(peer string) {
			defer wg.Done()
			resp, err := client.Post(peer+path, "application/json", bytes.NewReader(body))
			if err != nil {
				b.log.Debug("broadcast to peer failed", "correlation_id", correlationID, "peer", peer, "path", path, "error", err)
				if b.metrics != nil {
					b.metrics.GossipFailures.Inc()
				}
				return
			}
			resp.Body.Close()
			atomic.AddInt32(&sent, 1)
			if b.metrics != nil {
				b.metrics.GossipSends.Inc()
			}
		}(peer)
	}
	wg.Wait()

	b.log.Debug("broadcast complete", "correlation_id", correlationID, "path", path, "sent", sent, "total", len(b.peers))
}
