package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeMerkleRoot iteratively pairwise-hashes a list of hex-encoded
// transaction hashes, duplicating the last element at any level with an
// odd count. An empty input yields an empty root (no transactions to
// bind). A single input's root equals that input unchanged, since hex
// decode/encode round-trips.
func ComputeMerkleRoot(txHashes []string) (string, error) {
	if len(txHashes) == 0 {
		return "", nil
	}

	layer := make([][]byte, len(txHashes))
	for i, h := range txHashes {
		b, err := hex.DecodeString(h)
		if err != nil {
			return "", fmt.Errorf("ledger: decode tx hash %d: %w", i, err)
		}
		layer[i] = b
	}

	for len(layer) > 1 {
		next := make([][]byte, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			left := layer[i]
			right := left
			if i+1 < len(layer) {
				right = layer[i+1]
			}
			pair := append(append([]byte{}, left...), right...)
			sum := sha256.Sum256(pair)
			next = append(next, sum[:])
		}
		layer = next
	}

	return hex.EncodeToString(layer[0]), nil
}
