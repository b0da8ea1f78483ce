package transport

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/supplychain/ledgerd/internal/ledger"
)

func TestBroadcastTransactionReachesAllPeers(t *testing.T) {
	var hits int32
	peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer peer.Close()

	b := NewBroadcaster([]string{peer.URL, peer.URL})
	b.BroadcastTransaction(&ledger.Transaction{Sender: "s", Receiver: "r", Action: ledger.ActionVote})

	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("hits = %d, want 2", got)
	}
}

func TestBroadcastBlockIgnoresUnreachablePeer(t *testing.T) {
	b := NewBroadcaster([]string{"http://127.0.0.1:1"})
	done := make(chan struct{})
	go func() {
		b.BroadcastBlock(&ledger.Block{Index: 1})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("BroadcastBlock did not return for an unreachable peer")
	}
}
