package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/supplychain/ledgerd/internal/crypto"
	"github.com/supplychain/ledgerd/internal/ledger"
	"github.com/supplychain/ledgerd/internal/store"
	"github.com/supplychain/ledgerd/internal/validate"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	s, err := store.New(&store.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	state := validate.NewStoreState(s, func(err error) bool { return err == store.ErrNotFound })
	srv := New(Config{NodeName: "A", Store: s, State: state})
	return srv, s
}

func TestHandleInfoEmptyChain(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var info InfoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Height != 0 || info.NodeName != "A" {
		t.Fatalf("info = %+v, want height 0, node A", info)
	}
}

func TestHandleChainEmptyReturnsEmptyArray(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/chain", nil)
	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body = %s, want []", body)
	}
}

func TestHandleTransactionAcceptsValidVote(t *testing.T) {
	srv, st := newTestServer(t)

	priv, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	senderPub := crypto.PublicKeyToHex(priv.PubKey())

	candidate := &ledger.Participant{Name: "Bob", PublicKey: "candidate-pk"}
	if err := st.UpsertParticipant(candidate); err != nil {
		t.Fatalf("UpsertParticipant: %v", err)
	}

	tx := ledger.Transaction{Sender: senderPub, Receiver: "candidate-pk", Action: ledger.ActionVote, Timestamp: 1}
	hash, err := tx.ComputeHash()
	if err != nil {
		t.Fatalf("ComputeHash: %v", err)
	}
	tx.TxHash = hash
	sig, err := crypto.Sign(priv, hash)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tx.Signature = sig

	body, _ := json.Marshal(tx)
	req := httptest.NewRequest(http.MethodPost, "/transaction", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s, want 201", rec.Code, rec.Body.String())
	}

	mem, err := st.ListMempool()
	if err != nil {
		t.Fatalf("ListMempool: %v", err)
	}
	if len(mem) != 1 {
		t.Fatalf("mempool size = %d, want 1", len(mem))
	}
}

func TestHandleTransactionRejectsBadSignature(t *testing.T) {
	srv, _ := newTestServer(t)

	tx := ledger.Transaction{Sender: "not-a-valid-pubkey", Receiver: "x", Action: ledger.ActionVote, Timestamp: 1}
	body, _ := json.Marshal(tx)

	req := httptest.NewRequest(http.MethodPost, "/transaction", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleTransactionDuplicateReturns200(t *testing.T) {
	srv, st := newTestServer(t)

	priv, _ := crypto.GenerateKey()
	senderPub := crypto.PublicKeyToHex(priv.PubKey())
	candidate := &ledger.Participant{Name: "Bob", PublicKey: "candidate-pk"}
	if err := st.UpsertParticipant(candidate); err != nil {
		t.Fatalf("UpsertParticipant: %v", err)
	}

	tx := ledger.Transaction{Sender: senderPub, Receiver: "candidate-pk", Action: ledger.ActionVote, Timestamp: 1}
	hash, _ := tx.ComputeHash()
	tx.TxHash = hash
	sig, _ := crypto.Sign(priv, hash)
	tx.Signature = sig
	body, _ := json.Marshal(tx)

	req1 := httptest.NewRequest(http.MethodPost, "/transaction", bytes.NewReader(body))
	rec1 := httptest.NewRecorder()
	srv.router().ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusCreated {
		t.Fatalf("first submit status = %d, want 201", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/transaction", bytes.NewReader(body))
	rec2 := httptest.NewRecorder()
	srv.router().ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("duplicate submit status = %d, want 200", rec2.Code)
	}
}

func TestHandleBlockGenesisAccepted(t *testing.T) {
	srv, _ := newTestServer(t)

	b := ledger.Block{Index: 1, PreviousHash: ledger.GenesisPreviousHash, Validator: "A"}
	hash, err := b.ComputeHash()
	if err != nil {
		t.Fatalf("ComputeHash: %v", err)
	}
	b.Hash = hash

	body, _ := json.Marshal(b)
	req := httptest.NewRequest(http.MethodPost, "/block", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s, want 201", rec.Code, rec.Body.String())
	}
}

func TestHandleBlockRejectsBadLinkage(t *testing.T) {
	srv, _ := newTestServer(t)

	b := ledger.Block{Index: 1, PreviousHash: "not-the-genesis-hash", Validator: "A"}
	b.Hash, _ = b.ComputeHash()

	body, _ := json.Marshal(b)
	req := httptest.NewRequest(http.MethodPost, "/block", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestHandleChainIndexNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/chain/99", nil)
	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleMetricsServesPrometheusFormat(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
