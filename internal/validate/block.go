package validate

import (
	"fmt"

	"github.com/supplychain/ledgerd/internal/ledger"
)

// ValidateBlock checks a candidate block's linkage and hashes against the
// local chain tip. last is the local tip block, or nil if the local chain
// is empty.
func ValidateBlock(b *ledger.Block, last *ledger.Block) error {
	if b.Index == 1 {
		if last != nil {
			return &ChainLinkageError{Kind: NotGenesis}
		}
		if b.PreviousHash != ledger.GenesisPreviousHash {
			return &ChainLinkageError{Kind: NotGenesis}
		}
	} else {
		if last == nil {
			return &ChainLinkageError{Kind: IndexMismatch}
		}
		if b.Index != last.Index+1 {
			return &ChainLinkageError{Kind: IndexMismatch}
		}
		if b.PreviousHash != last.Hash {
			return &ChainLinkageError{Kind: PreviousHashMismatch}
		}
	}

	wantHash, err := b.ComputeHash()
	if err != nil {
		return &DecodeError{Err: err}
	}
	if wantHash != b.Hash {
		return &ChainLinkageError{Kind: HashMismatch}
	}

	wantRoot, err := b.ComputeMerkleRoot()
	if err != nil {
		return &DecodeError{Err: err}
	}
	if wantRoot != b.MerkleRoot {
		return &ChainLinkageError{Kind: MerkleRootMismatch}
	}

	return nil
}

// ValidateBlockTransactions validates every transaction in b against state
// using a progressively built overlay: each transaction sees the effects
// of the ones before it in the same block.
func ValidateBlockTransactions(b *ledger.Block, base StateSource) error {
	overlay := NewOverlayState(base)
	for i := range b.Transactions {
		tx := &b.Transactions[i]
		if err := ValidateTransaction(tx, overlay); err != nil {
			return fmt.Errorf("tx %d (%s): %w", i, tx.TxHash, err)
		}
		overlay.Apply(tx)
	}
	return nil
}
