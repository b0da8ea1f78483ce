// Package validate implements block linkage/hash checks and the
// smart-contract lifecycle rules that govern which transactions a block
// may legally contain.
package validate

import "fmt"

// DecodeError wraps a failure to decode a transaction or block body.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// InvalidSignature is returned when verify(tx) fails.
type InvalidSignature struct {
	Reason string
}

func (e *InvalidSignature) Error() string { return "invalid signature: " + e.Reason }

// ContractViolationKind is the closed set of smart-contract rule
// failures.
type ContractViolationKind string

const (
	UnknownCandidate  ContractViolationKind = "UnknownCandidate"
	AlreadyActive     ContractViolationKind = "AlreadyActive"
	UnknownShipment   ContractViolationKind = "UnknownShipment"
	InactiveShipment  ContractViolationKind = "InactiveShipment"
	NotOwner          ContractViolationKind = "NotOwner"
)

// ContractViolation is returned when a transaction fails the contract
// rule set.
type ContractViolation struct {
	Kind ContractViolationKind
}

func (e *ContractViolation) Error() string { return "contract violation: " + string(e.Kind) }

// ChainLinkageErrorKind is the closed set of block validation failures.
type ChainLinkageErrorKind string

const (
	NotGenesis        ChainLinkageErrorKind = "NotGenesis"
	IndexMismatch     ChainLinkageErrorKind = "IndexMismatch"
	PreviousHashMismatch ChainLinkageErrorKind = "PreviousHashMismatch"
	HashMismatch      ChainLinkageErrorKind = "HashMismatch"
	MerkleRootMismatch ChainLinkageErrorKind = "MerkleRootMismatch"
)

// ChainLinkageError is returned when a block fails §4.4 block validation.
type ChainLinkageError struct {
	Kind ChainLinkageErrorKind
}

func (e *ChainLinkageError) Error() string { return "chain linkage: " + string(e.Kind) }

// DuplicateSubmit names the duplicate-submission error kind. No function
// in this module returns it: POST /transaction detects mempool duplicates
// through the store (HasMempoolTx / store.ErrDuplicateTx) and answers 200.
var DuplicateSubmit = fmt.Errorf("transaction already submitted")
