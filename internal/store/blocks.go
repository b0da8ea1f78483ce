package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/supplychain/ledgerd/internal/ledger"
)

// ErrNotFound is returned by lookups that find nothing.
var ErrNotFound = errors.New("store: not found")

// Height returns the index of the tip block, or 0 if the chain is empty.
func (s *Store) Height() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var height sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(block_index) FROM blocks`).Scan(&height)
	if err != nil {
		return 0, err
	}
	if !height.Valid {
		return 0, nil
	}
	return uint64(height.Int64), nil
}

// GetLastBlock returns the tip block, or ErrNotFound if the chain is empty.
func (s *Store) GetLastBlock() (*ledger.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT data FROM blocks ORDER BY block_index DESC LIMIT 1`)
	return scanBlock(row)
}

// GetBlock returns the block at the given index.
func (s *Store) GetBlock(index uint64) (*ledger.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT data FROM blocks WHERE block_index = ?`, index)
	return scanBlock(row)
}

// ListBlocks returns every block from index 1 upward, ascending.
func (s *Store) ListBlocks() ([]ledger.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT data FROM blocks ORDER BY block_index ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []ledger.Block
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var b ledger.Block
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			return nil, fmt.Errorf("store: decode block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func scanBlock(row *sql.Row) (*ledger.Block, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var b ledger.Block
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, fmt.Errorf("store: decode block: %w", err)
	}
	return &b, nil
}

// insertBlock inserts a block's row within tx. Callers must have already
// validated the block and applied its world-state mutations in the same
// transaction (see CommitBlock).
func insertBlock(tx *sql.Tx, b *ledger.Block) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("store: encode block: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO blocks (block_index, block_hash, previous_hash, validator, timestamp, data)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.Index, b.Hash, b.PreviousHash, b.Validator, b.Timestamp, string(data),
	)
	return err
}
