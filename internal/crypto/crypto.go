// Package crypto wraps the SECP256k1 primitives used to sign and verify
// transactions, plus the hex codecs shared across the ledger.
package crypto

import (
	"crypto/sha256"
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// ErrInvalidSignature is returned by Verify on any mismatch or malformed
// signature/key input.
var ErrInvalidSignature = errors.New("crypto: invalid signature")

// GenerateKey returns a fresh SECP256k1 private key.
func GenerateKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}

// PrivateKeyFromHex decodes a lowercase-hex-encoded private scalar.
func PrivateKeyFromHex(s string) (*btcec.PrivateKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	priv, _ := btcec.PrivKeyFromBytes(b)
	if priv == nil {
		return nil, errors.New("crypto: invalid private key bytes")
	}
	return priv, nil
}

// PrivateKeyToHex encodes a private scalar as lowercase hex.
func PrivateKeyToHex(priv *btcec.PrivateKey) string {
	return hex.EncodeToString(priv.Serialize())
}

// PublicKeyFromHex decodes a compressed SECP256k1 public key from hex.
func PublicKeyFromHex(s string) (*btcec.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return btcec.ParsePubKey(b)
}

// PublicKeyToHex encodes a compressed SECP256k1 public key as lowercase hex.
func PublicKeyToHex(pub *btcec.PublicKey) string {
	return hex.EncodeToString(pub.SerializeCompressed())
}

// Sha256Hex hashes data with SHA-256 and hex-encodes the digest.
func Sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Sign hashes the UTF-8 bytes of the hex tx_hash string with SHA-256,
// signs with SECP256k1, and returns a raw 64-byte r||s signature (not
// DER), hex-encoded.
func Sign(priv *btcec.PrivateKey, txHash string) (string, error) {
	digest := sha256.Sum256([]byte(txHash))
	sig := ecdsa.Sign(priv, digest[:])
	return compactFromDER(sig.Serialize())
}

// Verify checks a raw r||s signature (as produced by Sign) against the
// SHA-256 digest of the UTF-8 bytes of txHash, under pub.
func Verify(pub *btcec.PublicKey, txHash string, sigHex string) error {
	der, err := derFromCompact(sigHex)
	if err != nil {
		return ErrInvalidSignature
	}
	sig, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return ErrInvalidSignature
	}
	digest := sha256.Sum256([]byte(txHash))
	if !sig.Verify(digest[:], pub) {
		return ErrInvalidSignature
	}
	return nil
}

// derSignature mirrors the ASN.1 SEQUENCE{r INTEGER, s INTEGER} shape of
// a DER-encoded ECDSA signature, used to convert between DER (what
// btcec's ecdsa package produces/consumes) and the raw r||s wire format
// used on the wire and in storage.
type derSignature struct {
	R *big.Int
	S *big.Int
}

func compactFromDER(der []byte) (string, error) {
	var sig derSignature
	if _, err := asn1.Unmarshal(der, &sig); err != nil {
		return "", err
	}
	var buf [64]byte
	rb := sig.R.Bytes()
	sb := sig.S.Bytes()
	if len(rb) > 32 || len(sb) > 32 {
		return "", errors.New("crypto: signature component overflow")
	}
	copy(buf[32-len(rb):32], rb)
	copy(buf[64-len(sb):64], sb)
	return hex.EncodeToString(buf[:]), nil
}

func derFromCompact(sigHex string) ([]byte, error) {
	raw, err := hex.DecodeString(sigHex)
	if err != nil {
		return nil, err
	}
	if len(raw) != 64 {
		return nil, ErrInvalidSignature
	}
	r := new(big.Int).SetBytes(raw[:32])
	s := new(big.Int).SetBytes(raw[32:])
	return asn1.Marshal(derSignature{R: r, S: s})
}
