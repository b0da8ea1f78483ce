// Package store provides the embedded persistent store backing a single
// ledgerd node: blocks, participants, goods, shipments, and the
// mempool. Schema creation is idempotent; a block commit is always one
// atomic unit covering the block insert and every world-state mutation
// it implies.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/supplychain/ledgerd/pkg/logging"
)

// Store wraps the node's SQLite database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
	log    *logging.Logger
}

// Config holds store configuration.
type Config struct {
	// DataDir is the directory the node's database file lives in.
	DataDir string
}

// New opens (creating if necessary) the node's database and initializes
// its schema.
func New(cfg *Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("store: create data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "ledger.db")

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	// SQLite only supports one writer at a time; serialize through a
	// single connection and let s.mu order readers/writers in process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
		log:    logging.GetDefault().Component(logging.ComponentStore),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB, for callers that need raw access
// (notably tests seeding fixtures directly).
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blocks (
		block_index   INTEGER PRIMARY KEY,
		block_hash    TEXT UNIQUE NOT NULL,
		previous_hash TEXT NOT NULL,
		validator     TEXT NOT NULL,
		timestamp     REAL NOT NULL,
		data          TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_blocks_hash ON blocks(block_hash);

	CREATE TABLE IF NOT EXISTS participants (
		name        TEXT UNIQUE NOT NULL,
		public_key  TEXT PRIMARY KEY,
		role        TEXT NOT NULL DEFAULT '',
		reputation  INTEGER NOT NULL DEFAULT 0,
		votes       INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_participants_votes ON participants(votes DESC, name ASC);

	CREATE TABLE IF NOT EXISTS goods (
		good_id        TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		unit_of_measure TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS shipments (
		shipment_id            TEXT PRIMARY KEY,
		good_id                TEXT NOT NULL DEFAULT '',
		quantity               REAL NOT NULL DEFAULT 0,
		current_owner_pk       TEXT NOT NULL,
		current_location       TEXT NOT NULL DEFAULT '',
		last_action            TEXT NOT NULL,
		last_updated_timestamp REAL NOT NULL,
		is_active              INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_shipments_owner ON shipments(current_owner_pk);
	CREATE INDEX IF NOT EXISTS idx_shipments_active ON shipments(is_active);

	CREATE TABLE IF NOT EXISTS mempool (
		tx_hash   TEXT PRIMARY KEY,
		data      TEXT NOT NULL,
		timestamp REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_mempool_timestamp ON mempool(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}
