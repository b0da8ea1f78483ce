package store

import (
	"database/sql"
	"errors"

	"github.com/supplychain/ledgerd/internal/ledger"
)

// UpsertGood registers or updates a catalog entry.
func (s *Store) UpsertGood(g *ledger.Good) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO goods (good_id, name, unit_of_measure) VALUES (?, ?, ?)
		 ON CONFLICT(good_id) DO UPDATE SET name = excluded.name, unit_of_measure = excluded.unit_of_measure`,
		g.GoodID, g.Name, g.UnitOfMeasure,
	)
	return err
}

// GetGood looks up a catalog entry by id.
func (s *Store) GetGood(goodID string) (*ledger.Good, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT good_id, name, unit_of_measure FROM goods WHERE good_id = ?`, goodID)
	var g ledger.Good
	if err := row.Scan(&g.GoodID, &g.Name, &g.UnitOfMeasure); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// ListGoods returns every catalog entry ordered by id.
func (s *Store) ListGoods() ([]ledger.Good, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT good_id, name, unit_of_measure FROM goods ORDER BY good_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Good
	for rows.Next() {
		var g ledger.Good
		if err := rows.Scan(&g.GoodID, &g.Name, &g.UnitOfMeasure); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
