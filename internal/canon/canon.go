// Package canon implements the canonical JSON encoding used to produce
// hash inputs for transactions and blocks. Every node must derive the
// exact same bytes for the same logical value or consensus breaks.
package canon

import (
	"bytes"
	"encoding/json"
)

// Marshal encodes fields as canonical JSON: UTF-8, object keys sorted
// lexicographically at every nesting level, no insignificant whitespace,
// numbers emitted via Go's default (shortest round-trip) float
// formatting. encoding/json already sorts the keys of any map[string]T
// value when marshaling, at every level of nesting, so canonicalization
// reduces to "always marshal a map, never a struct" — a struct's field
// order would otherwise leak into the output.
//
// HTML escaping is disabled: the default escaping of '<', '>' and '&'
// is itself deterministic, but turning it off keeps the canonical form
// closer to a literal representation of the input strings, which is
// what field values like `location` actually are.
func Marshal(fields map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
