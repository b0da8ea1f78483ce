// Package consensus implements the DPoS validator-selection rule: a pure
// function of the previous block's hash and a slot offset, identical on
// every node given the same participant set and vote tallies.
package consensus

import (
	"crypto/sha256"
	"math/big"
	"sort"
	"strconv"

	"github.com/supplychain/ledgerd/internal/ledger"
)

// UnknownValidator is returned by SelectValidator when no participant has
// ever been registered. Not expected in normal operation.
const UnknownValidator = "Unknown"

// TopDelegates orders delegates by (votes DESC, name ASC) and truncates to
// n, matching the store's TopDelegates query. Exposed here too so callers
// that already hold a full participant list (e.g. tests) don't need a
// store round-trip.
func TopDelegates(delegates []ledger.Participant, n int) []ledger.Participant {
	sorted := make([]ledger.Participant, len(delegates))
	copy(sorted, delegates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Votes != sorted[j].Votes {
			return sorted[i].Votes > sorted[j].Votes
		}
		return sorted[i].Name < sorted[j].Name
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// SelectValidator deterministically picks this slot's winner given the
// previous block hash and the current top-N delegate set (already ordered
// by votes desc/name asc).
//
// seedOffset is 0 for the current slot; a nonzero offset selects a
// different, still-deterministic winner for a future/past slot at the
// same previous_hash (used by liveness-bump rotation, disabled by
// default — see internal/miner).
func SelectValidator(previousHash string, delegates []ledger.Participant, seedOffset int) string {
	if len(delegates) == 0 {
		return UnknownValidator
	}

	seed := sha256.Sum256([]byte(previousHash + strconv.Itoa(seedOffset)))
	seedInt := new(big.Int).SetBytes(seed[:])
	n := big.NewInt(int64(len(delegates)))
	idx := new(big.Int).Mod(seedInt, n).Int64()

	return delegates[idx].Name
}
