package store

import (
	"database/sql"
	"errors"

	"github.com/supplychain/ledgerd/internal/ledger"
)

// UpsertParticipant registers or updates a participant by public key.
func (s *Store) UpsertParticipant(p *ledger.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO participants (name, public_key, role, reputation, votes)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(public_key) DO UPDATE SET
		   name = excluded.name,
		   role = excluded.role,
		   reputation = excluded.reputation`,
		p.Name, p.PublicKey, p.Role, p.Reputation, p.Votes,
	)
	return err
}

// GetParticipantByPublicKey looks up a participant by its public key.
func (s *Store) GetParticipantByPublicKey(publicKey string) (*ledger.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT name, public_key, role, reputation, votes FROM participants WHERE public_key = ?`,
		publicKey,
	)
	return scanParticipant(row)
}

// GetParticipantByName looks up a participant by its name.
func (s *Store) GetParticipantByName(name string) (*ledger.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT name, public_key, role, reputation, votes FROM participants WHERE name = ?`,
		name,
	)
	return scanParticipant(row)
}

// ListParticipants returns all participants ordered by name.
func (s *Store) ListParticipants() ([]ledger.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT name, public_key, role, reputation, votes FROM participants ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Participant
	for rows.Next() {
		var p ledger.Participant
		if err := rows.Scan(&p.Name, &p.PublicKey, &p.Role, &p.Reputation, &p.Votes); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TopDelegates returns the top n participants ordered by votes desc,
// name asc.
func (s *Store) TopDelegates(n int) ([]ledger.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT name, public_key, role, reputation, votes FROM participants
		 ORDER BY votes DESC, name ASC LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Participant
	for rows.Next() {
		var p ledger.Participant
		if err := rows.Scan(&p.Name, &p.PublicKey, &p.Role, &p.Reputation, &p.Votes); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func incrementVotes(tx *sql.Tx, publicKey string, delta int64) error {
	_, err := tx.Exec(`UPDATE participants SET votes = votes + ? WHERE public_key = ?`, delta, publicKey)
	return err
}

func scanParticipant(row *sql.Row) (*ledger.Participant, error) {
	var p ledger.Participant
	if err := row.Scan(&p.Name, &p.PublicKey, &p.Role, &p.Reputation, &p.Votes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
