// Package sync implements longest-chain catch-up: probe every peer's
// height, pick the tallest, download its chain, and validate and commit
// blocks the local node is missing.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/supplychain/ledgerd/internal/ledger"
	"github.com/supplychain/ledgerd/internal/store"
	"github.com/supplychain/ledgerd/internal/validate"
	"github.com/supplychain/ledgerd/pkg/logging"
)

// Store is the subset of *store.Store the syncer needs.
type Store interface {
	Height() (uint64, error)
	GetLastBlock() (*ledger.Block, error)
	CommitBlock(b *ledger.Block) error
}

// Syncer runs on-demand longest-chain synchronization against a static
// peer list.
type Syncer struct {
	store  Store
	peers  []string
	client *http.Client
	log    *logging.Logger

	running int32
}

// New builds a Syncer over the given peer base URLs.
func New(store Store, peers []string) *Syncer {
	return &Syncer{
		store:  store,
		peers:  peers,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logging.GetDefault().Component(logging.ComponentSync),
	}
}

// TriggerAsync starts a synchronize_chain pass in the background if one
// isn't already running.
func (s *Syncer) TriggerAsync() {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return
	}
	go func() {
		defer atomic.StoreInt32(&s.running, 0)
		if err := s.SyncOnce(context.Background()); err != nil {
			s.log.Warn("chain sync failed", "error", err)
		}
	}()
}

// infoResponse mirrors transport.InfoResponse without importing
// internal/transport (which itself imports internal/sync).
type infoResponse struct {
	NodeName string `json:"node_name"`
	Height   uint64 `json:"height"`
	LastHash string `json:"last_hash"`
}

// SyncOnce runs one longest-chain catch-up pass: probe every peer's
// /info, pick the tallest, download its /chain, and validate+commit every
// block the local node is missing, stopping on first failure.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	localHeight, err := s.store.Height()
	if err != nil {
		return fmt.Errorf("sync: read local height: %w", err)
	}

	bestPeer, bestHeight, err := s.tallestPeer(ctx)
	if err != nil {
		return err
	}
	if bestPeer == "" || bestHeight <= localHeight {
		return nil // nothing taller available.
	}

	chain, err := s.fetchChain(ctx, bestPeer)
	if err != nil {
		return fmt.Errorf("sync: fetch chain from %s: %w", bestPeer, err)
	}

	for _, block := range chain {
		if block.Index <= localHeight {
			continue
		}

		last, err := s.store.GetLastBlock()
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("sync: read last block: %w", err)
			}
			last = nil
		}

		b := block
		if err := validate.ValidateBlock(&b, last); err != nil {
			return fmt.Errorf("sync: reject block %d from %s: %w", b.Index, bestPeer, err)
		}
		if err := s.store.CommitBlock(&b); err != nil {
			return fmt.Errorf("sync: commit block %d: %w", b.Index, err)
		}
		localHeight = b.Index
	}

	s.log.Info("chain sync complete", "from", bestPeer, "height", localHeight)
	return nil
}

func (s *Syncer) tallestPeer(ctx context.Context) (peer string, height uint64, err error) {
	for _, p := range s.peers {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p+"/info", nil)
		if err != nil {
			continue
		}
		resp, err := s.client.Do(req)
		if err != nil {
			s.log.Debug("peer unreachable during sync probe", "peer", p, "error", err)
			continue
		}
		var info infoResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&info)
		resp.Body.Close()
		if decodeErr != nil {
			continue
		}
		if info.Height > height {
			height = info.Height
			peer = p
		}
	}
	return peer, height, nil
}

func (s *Syncer) fetchChain(ctx context.Context, peer string) ([]ledger.Block, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, peer+"/chain", nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var blocks []ledger.Block
	if err := json.NewDecoder(resp.Body).Decode(&blocks); err != nil {
		return nil, fmt.Errorf("decode chain: %w", err)
	}
	return blocks, nil
}
