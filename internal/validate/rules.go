package validate

import (
	"fmt"

	"github.com/supplychain/ledgerd/internal/crypto"
	"github.com/supplychain/ledgerd/internal/ledger"
)

// VerifySignature reconstructs tx_hash from tx's hashed fields, stores it
// on tx, and checks tx.Signature against it under the sender's public
// key. Any tx_hash carried in the submitted body is ignored and replaced
// by the recomputed value, so a tampered field makes the signature fail
// to verify. ValidateBlock's merkle_root check covers the tx_hash values
// a block carries, not the fields behind them.
func VerifySignature(tx *ledger.Transaction) error {
	hash, err := tx.ComputeHash()
	if err != nil {
		return &DecodeError{Err: err}
	}
	pub, err := crypto.PublicKeyFromHex(tx.Sender)
	if err != nil {
		return &InvalidSignature{Reason: "malformed sender public key"}
	}
	if err := crypto.Verify(pub, hash, tx.Signature); err != nil {
		return &InvalidSignature{Reason: err.Error()}
	}
	tx.TxHash = hash
	return nil
}

// CheckContractRules applies the smart-contract rule set for tx against
// state, returning a *ContractViolation on failure.
func CheckContractRules(tx *ledger.Transaction, state StateSource) error {
	switch {
	case tx.Action == ledger.ActionVote:
		_, ok, err := state.GetParticipantByPublicKey(tx.Receiver)
		if err != nil {
			return fmt.Errorf("validate: lookup candidate: %w", err)
		}
		if !ok {
			return &ContractViolation{Kind: UnknownCandidate}
		}
		return nil

	case tx.Action.IsCreate():
		sh, ok, err := state.GetShipment(tx.ShipmentID)
		if err != nil {
			return fmt.Errorf("validate: lookup shipment: %w", err)
		}
		if ok && sh.IsActive {
			return &ContractViolation{Kind: AlreadyActive}
		}
		return nil

	default:
		sh, ok, err := state.GetShipment(tx.ShipmentID)
		if err != nil {
			return fmt.Errorf("validate: lookup shipment: %w", err)
		}
		if !ok {
			return &ContractViolation{Kind: UnknownShipment}
		}
		if !sh.IsActive {
			return &ContractViolation{Kind: InactiveShipment}
		}
		if tx.Sender != sh.CurrentOwner {
			return &ContractViolation{Kind: NotOwner}
		}
		return nil
	}
}

// ValidateTransaction runs the full transaction validation pipeline:
// signature, then smart-contract rules against state.
func ValidateTransaction(tx *ledger.Transaction, state StateSource) error {
	if !tx.Action.Valid() {
		return &DecodeError{Err: fmt.Errorf("unknown action %q", tx.Action)}
	}
	if err := VerifySignature(tx); err != nil {
		return err
	}
	return CheckContractRules(tx, state)
}
