// Package miner runs the forging loop: every slot interval, check
// whether this node is the expected validator and, if so, drain the
// mempool into a new block.
package miner

import (
	"context"
	"fmt"
	"time"

	"github.com/supplychain/ledgerd/internal/consensus"
	"github.com/supplychain/ledgerd/internal/ledger"
	"github.com/supplychain/ledgerd/internal/validate"
	"github.com/supplychain/ledgerd/pkg/logging"
)

// Store is the subset of *store.Store the miner needs.
type Store interface {
	GetLastBlock() (*ledger.Block, error)
	TopDelegates(n int) ([]ledger.Participant, error)
	ListMempool() ([]ledger.Transaction, error)
	CommitBlock(b *ledger.Block) error
}

// Broadcaster relays a newly forged block to peers. Implemented by
// internal/transport; kept as a narrow interface here to avoid an import
// cycle between internal/miner and internal/transport.
type Broadcaster interface {
	BroadcastBlock(b *ledger.Block)
}

// Metrics receives forging-loop counters. Implemented by
// *transport.Metrics; optional — a nil Metrics is a no-op.
type Metrics interface {
	IncBlocksForged()
}

// Config holds the forging loop's tunables.
type Config struct {
	// NodeName is this node's participant name, compared against the
	// expected validator each slot.
	NodeName string
	// SlotInterval is how often the loop checks whether it is this
	// node's turn to forge. Default ~5s.
	SlotInterval time.Duration
	// DelegateCount is N in the top-N delegate selection, default 3.
	DelegateCount int
	// LivenessBumpSlots, when nonzero, raises the selection seed offset by
	// one for every that many consecutive slots in which the chain tip did
	// not advance, re-running the selection with a new seed. Disabled
	// (0) by default, since it changes the selection function and must be
	// configured identically across every node.
	LivenessBumpSlots int
}

// Miner runs the background forging loop.
type Miner struct {
	cfg         Config
	store       Store
	state       validate.StateSource
	broadcaster Broadcaster
	metrics     Metrics
	isNotFound  func(error) bool
	log         *logging.Logger

	missedSlots int
	lastTipHash string
}

// New builds a Miner. state must resolve against the same store as the
// one passed in, typically validate.NewStoreState(store, ...). isNotFound
// must report whether an error from store.GetLastBlock means "chain is
// empty" (as opposed to a real I/O failure) — typically
// errors.Is(err, store.ErrNotFound). metrics may be nil.
func New(cfg Config, store Store, state validate.StateSource, broadcaster Broadcaster, isNotFound func(error) bool, metrics Metrics) *Miner {
	if cfg.SlotInterval <= 0 {
		cfg.SlotInterval = 5 * time.Second
	}
	if cfg.DelegateCount <= 0 {
		cfg.DelegateCount = 3
	}
	return &Miner{
		cfg:         cfg,
		store:       store,
		state:       state,
		broadcaster: broadcaster,
		metrics:     metrics,
		isNotFound:  isNotFound,
		log:         logging.GetDefault().Component(logging.ComponentMiner),
	}
}

// Run blocks, ticking the forging loop until ctx is canceled.
func (m *Miner) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SlotInterval)
	defer ticker.Stop()

	m.log.Info("forging loop started", "slot_interval", m.cfg.SlotInterval, "node", m.cfg.NodeName)

	for {
		select {
		case <-ctx.Done():
			m.log.Info("forging loop stopped")
			return
		case <-ticker.C:
			if err := m.tick(); err != nil {
				m.log.Warn("forging tick failed", "error", err)
			}
		}
	}
}

// tick runs one pass of the forging algorithm.
func (m *Miner) tick() error {
	last, err := m.store.GetLastBlock()
	if err != nil {
		if m.isNotFound != nil && m.isNotFound(err) {
			return nil // no genesis block yet; skip this slot.
		}
		return fmt.Errorf("miner: read last block: %w", err)
	}

	delegates, err := m.store.TopDelegates(m.cfg.DelegateCount)
	if err != nil {
		return fmt.Errorf("miner: read delegates: %w", err)
	}

	offset := 0
	if m.cfg.LivenessBumpSlots > 0 {
		if last.Hash == m.lastTipHash {
			m.missedSlots++
		} else {
			m.lastTipHash = last.Hash
			m.missedSlots = 0
		}
		offset = m.missedSlots / m.cfg.LivenessBumpSlots
	}
	expected := consensus.SelectValidator(last.Hash, delegates, offset)

	if expected != m.cfg.NodeName {
		return nil
	}

	pending, err := m.store.ListMempool()
	if err != nil {
		return fmt.Errorf("miner: read mempool: %w", err)
	}

	included := m.filterTransactions(pending)
	if len(included) == 0 {
		return nil // empty blocks are not produced.
	}

	block, err := m.buildBlock(last, included)
	if err != nil {
		return fmt.Errorf("miner: build block: %w", err)
	}

	if err := m.store.CommitBlock(block); err != nil {
		m.log.Warn("local commit of forged block failed, dropping", "error", err)
		return nil
	}

	m.log.Info("forged block", "index", block.Index, "tx_count", len(block.Transactions))
	if m.metrics != nil {
		m.metrics.IncBlocksForged()
	}
	if m.broadcaster != nil {
		m.broadcaster.BroadcastBlock(block)
	}
	return nil
}

// filterTransactions validates pending transactions over a progressively
// built overlay state, so a block may contain e.g. an EXTRACT followed by
// a SHIP of the same new shipment.
func (m *Miner) filterTransactions(pending []ledger.Transaction) []ledger.Transaction {
	overlay := validate.NewOverlayState(m.state)
	included := make([]ledger.Transaction, 0, len(pending))

	for i := range pending {
		tx := &pending[i]
		if err := validate.ValidateTransaction(tx, overlay); err != nil {
			m.log.Debug("dropping transaction from forging candidate set", "tx_hash", tx.TxHash, "error", err)
			continue
		}
		overlay.Apply(tx)
		included = append(included, *tx)
	}
	return included
}

func (m *Miner) buildBlock(last *ledger.Block, txs []ledger.Transaction) (*ledger.Block, error) {
	b := &ledger.Block{
		Index:        last.Index + 1,
		Timestamp:    float64(time.Now().Unix()),
		PreviousHash: last.Hash,
		Validator:    m.cfg.NodeName,
		Transactions: txs,
	}

	root, err := b.ComputeMerkleRoot()
	if err != nil {
		return nil, fmt.Errorf("compute merkle root: %w", err)
	}
	b.MerkleRoot = root

	hash, err := b.ComputeHash()
	if err != nil {
		return nil, fmt.Errorf("compute block hash: %w", err)
	}
	b.Hash = hash

	return b, nil
}
