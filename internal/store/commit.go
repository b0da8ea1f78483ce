package store

import (
	"database/sql"
	"fmt"

	"github.com/supplychain/ledgerd/internal/ledger"
)

// CommitBlock applies a validated block atomically: it inserts the block
// row, applies every transaction's world-state effect, and removes the
// included transactions from the mempool. Any failure rolls back the
// whole transaction, leaving the store unchanged.
func (s *Store) CommitBlock(b *ledger.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin commit: %w", err)
	}
	defer tx.Rollback()

	if err := insertBlock(tx, b); err != nil {
		return fmt.Errorf("store: insert block: %w", err)
	}

	hashes := make([]string, 0, len(b.Transactions))
	for i := range b.Transactions {
		t := &b.Transactions[i]
		if err := applyTransaction(tx, t); err != nil {
			return fmt.Errorf("store: apply transaction %s: %w", t.TxHash, err)
		}
		hashes = append(hashes, t.TxHash)
	}

	if err := removeMempoolTxs(tx, hashes); err != nil {
		return fmt.Errorf("store: clear mempool: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// applyTransaction applies one transaction's semantic world-state effect.
// Validation (ownership, unknown shipment/candidate, already-active,
// etc.) has already happened in internal/validate before a transaction
// ever reaches the mempool or a block; this step assumes the effect is
// well-formed and just applies it.
func applyTransaction(tx *sql.Tx, t *ledger.Transaction) error {
	switch {
	case t.Action == ledger.ActionVote:
		return incrementVotes(tx, t.Receiver, 1)

	case t.Action.IsCreate():
		goodID := ""
		if t.GoodID != nil {
			goodID = *t.GoodID
		}
		quantity := 0.0
		if t.Quantity != nil {
			quantity = *t.Quantity
		}
		sh := &ledger.Shipment{
			ShipmentID:      t.ShipmentID,
			GoodID:          goodID,
			Quantity:        quantity,
			CurrentOwner:    t.Receiver,
			CurrentLocation: t.Location,
			LastAction:      t.Action,
			LastUpdated:     t.Timestamp,
			IsActive:        true,
		}
		return createShipment(tx, sh)

	case t.Action.IsTerminal():
		return deactivateShipment(tx, t.ShipmentID, t.Action, t.Timestamp)

	default: // SHIPPED, RECEIVED, SOLD
		return transferShipment(tx, t.ShipmentID, t.Receiver, t.Location, t.Quantity, t.Action, t.Timestamp)
	}
}
