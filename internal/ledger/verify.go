package ledger

import "fmt"

// VerifyChain walks an ordered list of blocks (index 1..N, ascending)
// and checks every structural invariant: contiguous indices,
// previous_hash linkage, recomputed header hash, and recomputed merkle
// root. It does not re-verify transaction signatures or smart-contract
// rules — those are checked at mempool admission and when the forger
// builds a block (see internal/validate); this is the read-only
// diagnostic behind the `ledgerd verify` CLI command.
func VerifyChain(blocks []Block) error {
	for i := range blocks {
		b := blocks[i]

		wantIndex := uint64(i + 1)
		if b.Index != wantIndex {
			return fmt.Errorf("ledger: block at position %d has index %d, want %d", i, b.Index, wantIndex)
		}

		if i == 0 {
			if b.PreviousHash != GenesisPreviousHash {
				return fmt.Errorf("ledger: genesis block has previous_hash %q, want %d zeros", b.PreviousHash, len(GenesisPreviousHash))
			}
		} else {
			prev := blocks[i-1]
			if b.PreviousHash != prev.Hash {
				return fmt.Errorf("ledger: block %d previous_hash %q does not match block %d hash %q", b.Index, b.PreviousHash, prev.Index, prev.Hash)
			}
		}

		wantHash, err := b.ComputeHash()
		if err != nil {
			return fmt.Errorf("ledger: block %d: %w", b.Index, err)
		}
		if wantHash != b.Hash {
			return fmt.Errorf("ledger: block %d hash %q does not match recomputed %q", b.Index, b.Hash, wantHash)
		}

		wantRoot, err := b.ComputeMerkleRoot()
		if err != nil {
			return fmt.Errorf("ledger: block %d: %w", b.Index, err)
		}
		if wantRoot != b.MerkleRoot {
			return fmt.Errorf("ledger: block %d merkle_root %q does not match recomputed %q", b.Index, b.MerkleRoot, wantRoot)
		}
	}
	return nil
}
