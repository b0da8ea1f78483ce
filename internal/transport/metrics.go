package transport

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the node's gossip-layer Prometheus counters and gauges,
// exposed on GET /metrics — an additive endpoint, not part of the required
// gossip contract. Each Metrics carries its own registry rather than the
// global default, so multiple nodes (or repeated test construction) in one
// process never collide on duplicate metric registration.
type Metrics struct {
	Registry             *prometheus.Registry
	TransactionsAccepted prometheus.Counter
	TransactionsRejected prometheus.Counter
	BlocksAccepted       prometheus.Counter
	BlocksRejected       prometheus.Counter
	BlocksForged         prometheus.Counter
	GossipSends          prometheus.Counter
	GossipFailures       prometheus.Counter
}

// NewMetrics builds a fresh registry and registers the node's gossip
// metrics against it, including a mempool-size and chain-height gauge
// sampled from store at scrape time.
func NewMetrics(store Store) *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		Registry: registry,
		TransactionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledgerd_transactions_accepted_total",
			Help: "Transactions admitted to the mempool.",
		}),
		TransactionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledgerd_transactions_rejected_total",
			Help: "Transactions rejected at the gossip API.",
		}),
		BlocksAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledgerd_blocks_accepted_total",
			Help: "Blocks committed to the local chain.",
		}),
		BlocksRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledgerd_blocks_rejected_total",
			Help: "Blocks rejected at the gossip API.",
		}),
		BlocksForged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledgerd_blocks_forged_total",
			Help: "Blocks this node forged as the selected validator.",
		}),
		GossipSends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledgerd_gossip_sends_total",
			Help: "Successful transaction/block broadcasts to a peer.",
		}),
		GossipFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledgerd_gossip_failures_total",
			Help: "Transaction/block broadcasts that failed to reach a peer.",
		}),
	}

	registry.MustRegister(
		m.TransactionsAccepted, m.TransactionsRejected,
		m.BlocksAccepted, m.BlocksRejected, m.BlocksForged,
		m.GossipSends, m.GossipFailures,
	)

	if store != nil {
		registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ledgerd_mempool_size",
			Help: "Transactions currently queued in the mempool.",
		}, func() float64 {
			n, err := store.MempoolSize()
			if err != nil {
				return 0
			}
			return float64(n)
		}))
		registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ledgerd_chain_height",
			Help: "Height of the local chain.",
		}, func() float64 {
			h, err := store.Height()
			if err != nil {
				return 0
			}
			return float64(h)
		}))
	}

	return m
}

// IncBlocksForged increments the forged-block counter. Implements
// miner.Metrics.
func (m *Metrics) IncBlocksForged() {
	m.BlocksForged.Inc()
}
