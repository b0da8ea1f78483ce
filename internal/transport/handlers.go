package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/supplychain/ledgerd/internal/ledger"
	"github.com/supplychain/ledgerd/internal/store"
	"github.com/supplychain/ledgerd/internal/validate"
)

// handleTransaction admits a submitted transaction into the mempool: 201
// on new+valid admission (then async peer relay), 200 if duplicate, 400
// on signature/contract/decoding failure.
func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	var tx ledger.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		s.metrics.TransactionsRejected.Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "decode: " + err.Error()})
		return
	}

	if err := validate.ValidateTransaction(&tx, s.state); err != nil {
		s.metrics.TransactionsRejected.Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if dup, err := s.store.HasMempoolTx(tx.TxHash); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	} else if dup {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := s.store.AddMempoolTx(&tx, float64(time.Now().UnixNano())/1e9); err != nil {
		if errors.Is(err, store.ErrDuplicateTx) {
			w.WriteHeader(http.StatusOK)
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}

	s.metrics.TransactionsAccepted.Inc()
	w.WriteHeader(http.StatusCreated)

	if s.broadcaster != nil {
		go s.broadcaster.BroadcastTransaction(&tx)
	}
}

// handleBlock admits a submitted block: 201 on acceptance (then async
// re-broadcast), 409 on rejection, triggering an async synchronize_chain
// if the rejection indicates a gap or non-contiguous index.
func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	var b ledger.Block
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "decode: " + err.Error()})
		return
	}

	last, err := s.store.GetLastBlock()
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		last = nil
	}

	if err := validate.ValidateBlock(&b, last); err != nil {
		s.metrics.BlocksRejected.Inc()
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})

		var linkage *validate.ChainLinkageError
		if errors.As(err, &linkage) && (linkage.Kind == validate.IndexMismatch || linkage.Kind == validate.PreviousHashMismatch) {
			if s.syncer != nil {
				s.syncer.TriggerAsync()
			}
		}
		return
	}

	if err := s.store.CommitBlock(&b); err != nil {
		s.metrics.BlocksRejected.Inc()
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}

	s.metrics.BlocksAccepted.Inc()
	w.WriteHeader(http.StatusCreated)

	s.wsHub.Broadcast(toHeaderEvent(&b))

	if s.broadcaster != nil {
		go s.broadcaster.BroadcastBlock(&b)
	}
}

