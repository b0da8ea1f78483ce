package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/supplychain/ledgerd/internal/ledger"
)

// ErrDuplicateTx is returned when a transaction with the same tx_hash is
// already present in the mempool.
var ErrDuplicateTx = errors.New("store: duplicate transaction")

// AddMempoolTx inserts a transaction into the mempool, rejecting duplicates
// by tx_hash.
func (s *Store) AddMempoolTx(tx *ledger.Transaction, arrivalTimestamp float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("store: encode mempool transaction: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO mempool (tx_hash, data, timestamp) VALUES (?, ?, ?)`,
		tx.TxHash, string(data), arrivalTimestamp,
	)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return ErrDuplicateTx
		}
		return err
	}
	return nil
}

// HasMempoolTx reports whether a transaction with the given hash is already
// queued.
func (s *Store) HasMempoolTx(txHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM mempool WHERE tx_hash = ?`, txHash).Scan(&count)
	return count > 0, err
}

// MempoolSize returns the number of transactions currently queued.
func (s *Store) MempoolSize() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM mempool`).Scan(&count)
	return count, err
}

// ListMempool returns every queued transaction ordered by arrival time,
// oldest first.
func (s *Store) ListMempool() ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT data FROM mempool ORDER BY timestamp ASC, tx_hash ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var tx ledger.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			return nil, fmt.Errorf("store: decode mempool transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// removeMempoolTxs deletes the given tx_hashes from the mempool within tx.
func removeMempoolTxs(tx *sql.Tx, txHashes []string) error {
	stmt, err := tx.Prepare(`DELETE FROM mempool WHERE tx_hash = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, h := range txHashes {
		if _, err := stmt.Exec(h); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
