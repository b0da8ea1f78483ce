package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/supplychain/ledgerd/internal/ledger"
	"github.com/supplychain/ledgerd/internal/store"
)

type fakeStore struct {
	blocks map[uint64]*ledger.Block
	height uint64
}

func newFakeStore() *fakeStore { return &fakeStore{blocks: map[uint64]*ledger.Block{}} }

func (s *fakeStore) Height() (uint64, error) { return s.height, nil }

func (s *fakeStore) GetLastBlock() (*ledger.Block, error) {
	if s.height == 0 {
		return nil, store.ErrNotFound
	}
	return s.blocks[s.height], nil
}

func (s *fakeStore) CommitBlock(b *ledger.Block) error {
	s.blocks[b.Index] = b
	s.height = b.Index
	return nil
}

func buildChain(n int) []ledger.Block {
	blocks := make([]ledger.Block, 0, n)
	prevHash := ledger.GenesisPreviousHash
	for i := uint64(1); i <= uint64(n); i++ {
		b := ledger.Block{Index: i, PreviousHash: prevHash, Validator: "A"}
		hash, _ := b.ComputeHash()
		b.Hash = hash
		blocks = append(blocks, b)
		prevHash = hash
	}
	return blocks
}

func TestSyncOnceCatchesUpFromTallestPeer(t *testing.T) {
	remoteChain := buildChain(3)

	mux := http.NewServeMux()
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(infoResponse{NodeName: "peer", Height: 3, LastHash: remoteChain[2].Hash})
	})
	mux.HandleFunc("/chain", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(remoteChain)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	local := newFakeStore()
	syncer := New(local, []string{srv.URL})

	if err := syncer.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if local.height != 3 {
		t.Fatalf("local height = %d, want 3", local.height)
	}
}

func TestSyncOnceNoOpWhenLocalIsTallest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(infoResponse{NodeName: "peer", Height: 1})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	local := newFakeStore()
	genesis := ledger.Block{Index: 1, PreviousHash: ledger.GenesisPreviousHash, Validator: "A"}
	genesis.Hash, _ = genesis.ComputeHash()
	local.blocks[1] = &genesis
	local.height = 1

	syncer := New(local, []string{srv.URL})
	if err := syncer.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if local.height != 1 {
		t.Fatalf("local height changed to %d, want unchanged 1", local.height)
	}
}
