// Package ledger defines the wire/hash data model shared by every node:
// transactions, blocks, and the world-state rows they derive.
package ledger

import (
	"fmt"

	"github.com/supplychain/ledgerd/internal/canon"
	"github.com/supplychain/ledgerd/internal/crypto"
)

// ActionType is the closed set of actions a transaction can carry.
type ActionType string

const (
	ActionExtracted    ActionType = "EXTRACTED"
	ActionManufactured ActionType = "MANUFACTURED"
	ActionShipped      ActionType = "SHIPPED"
	ActionReceived     ActionType = "RECEIVED"
	ActionSold         ActionType = "SOLD"
	ActionDestroyed    ActionType = "DESTROYED"
	ActionConsumed     ActionType = "CONSUMED"
	ActionVote         ActionType = "VOTE"
)

// Valid reports whether a is one of the eight known actions.
func (a ActionType) Valid() bool {
	switch a {
	case ActionExtracted, ActionManufactured, ActionShipped, ActionReceived,
		ActionSold, ActionDestroyed, ActionConsumed, ActionVote:
		return true
	}
	return false
}

// IsCreate reports whether a action creates a new shipment row.
func (a ActionType) IsCreate() bool {
	return a == ActionExtracted || a == ActionManufactured
}

// IsTerminal reports whether a action deactivates a shipment.
func (a ActionType) IsTerminal() bool {
	return a == ActionDestroyed || a == ActionConsumed
}

// GenesisPreviousHash is the fixed previous_hash of the first block: 64
// ASCII zero characters, the same length as a hex-encoded SHA-256 digest.
const GenesisPreviousHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Transaction is a signed action against a shipment.
type Transaction struct {
	Sender     string            `json:"sender"`
	Receiver   string            `json:"receiver"`
	ShipmentID string            `json:"shipment_id"`
	Action     ActionType        `json:"action"`
	Location   string            `json:"location"`
	GoodID     *string           `json:"good_id,omitempty"`
	Quantity   *float64          `json:"quantity,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Timestamp  float64           `json:"timestamp"`
	Signature  string            `json:"signature"`
	TxHash     string            `json:"tx_hash"`
}

// hashFields returns exactly the fields bound by tx_hash: sender,
// receiver, shipment_id, action, good_id, quantity, timestamp, location,
// metadata — signature and tx_hash are explicitly excluded.
func (t *Transaction) hashFields() map[string]any {
	fields := map[string]any{
		"sender":      t.Sender,
		"receiver":    t.Receiver,
		"shipment_id": t.ShipmentID,
		"action":      string(t.Action),
		"location":    t.Location,
		"timestamp":   t.Timestamp,
	}
	if t.GoodID != nil {
		fields["good_id"] = *t.GoodID
	} else {
		fields["good_id"] = nil
	}
	if t.Quantity != nil {
		fields["quantity"] = *t.Quantity
	} else {
		fields["quantity"] = nil
	}
	if t.Metadata != nil {
		fields["metadata"] = t.Metadata
	} else {
		fields["metadata"] = nil
	}
	return fields
}

// ComputeHash recomputes tx_hash from the transaction's hashed fields. It
// does not mutate t or consult t.TxHash.
func (t *Transaction) ComputeHash() (string, error) {
	data, err := canon.Marshal(t.hashFields())
	if err != nil {
		return "", fmt.Errorf("ledger: canonicalize transaction: %w", err)
	}
	return crypto.Sha256Hex(data), nil
}

// Block is a forged batch of transactions linked to its predecessor.
type Block struct {
	Index        uint64        `json:"index"`
	Timestamp    float64       `json:"timestamp"`
	PreviousHash string        `json:"previous_hash"`
	Validator    string        `json:"validator"`
	Transactions []Transaction `json:"transactions"`
	MerkleRoot   string        `json:"merkle_root"`
	Hash         string        `json:"hash"`
}

// headerFields returns exactly the fields bound by block.hash, per spec
// §3/§4.1: index, timestamp, previous_hash, merkle_root, validator. The
// transaction list is deliberately excluded — it is bound only via
// merkle_root.
func (b *Block) headerFields() map[string]any {
	return map[string]any{
		"index":         b.Index,
		"timestamp":     b.Timestamp,
		"previous_hash": b.PreviousHash,
		"merkle_root":   b.MerkleRoot,
		"validator":     b.Validator,
	}
}

// ComputeHash recomputes block.hash from the block's header fields.
func (b *Block) ComputeHash() (string, error) {
	data, err := canon.Marshal(b.headerFields())
	if err != nil {
		return "", fmt.Errorf("ledger: canonicalize block header: %w", err)
	}
	return crypto.Sha256Hex(data), nil
}

// ComputeMerkleRoot recomputes merkle_root from the block's transactions.
func (b *Block) ComputeMerkleRoot() (string, error) {
	hashes := make([]string, len(b.Transactions))
	for i := range b.Transactions {
		hashes[i] = b.Transactions[i].TxHash
	}
	return ComputeMerkleRoot(hashes)
}

// Participant is a named, keyed member of the network.
type Participant struct {
	Name       string `json:"name"`
	PublicKey  string `json:"public_key"`
	Role       string `json:"role"`
	Reputation int64  `json:"reputation"`
	Votes      int64  `json:"votes"`
}

// Good is a catalog entry for a tracked kind of goods.
type Good struct {
	GoodID       string `json:"good_id"`
	Name         string `json:"name"`
	UnitOfMeasure string `json:"unit_of_measure"`
}

// Shipment is the mutable world-state row for one tracked batch of goods.
type Shipment struct {
	ShipmentID    string     `json:"shipment_id"`
	GoodID        string     `json:"good_id"`
	Quantity      float64    `json:"quantity"`
	CurrentOwner  string     `json:"current_owner"`
	CurrentLocation string   `json:"current_location"`
	LastAction    ActionType `json:"last_action"`
	LastUpdated   float64    `json:"last_updated_timestamp"`
	IsActive      bool       `json:"is_active"`
}

// MempoolEntry is one unconfirmed transaction awaiting inclusion.
type MempoolEntry struct {
	TxHash          string  `json:"tx_hash"`
	Transaction     Transaction `json:"-"`
	ArrivalTimestamp float64 `json:"arrival_timestamp"`
}
