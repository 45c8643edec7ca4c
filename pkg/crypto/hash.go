// Package crypto provides the cryptographic primitives for EtherVault:
// keccak-256 hashing, secp256k1 key handling and recoverable ECDSA
// signatures in the form the target ledger expects.
package crypto

import (
	"golang.org/x/crypto/sha3"

	"github.com/ethervault/ethervault/pkg/types"
)

// Keccak256 computes the legacy keccak-256 hash of the concatenation of
// the given byte slices. This is the ledger's native hash function.
func Keccak256(data ...[]byte) types.Hash {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	var h types.Hash
	d.Sum(h[:0])
	return h
}

// AddressFromPubKey derives an account address from a 65-byte
// uncompressed public key: the low 20 bytes of keccak256(pubkey[1:]).
func AddressFromPubKey(uncompressed []byte) types.Address {
	h := Keccak256(uncompressed[1:])
	var addr types.Address
	copy(addr[:], h[types.HashSize-types.AddressSize:])
	return addr
}

// Fingerprint computes the content-addressed hash used to prove a
// recorded payload was not altered after storage.
func Fingerprint(data []byte) types.Hash {
	return Keccak256(data)
}

// VerifyFingerprint recomputes the fingerprint of data and compares it
// to the expected hash. Purely local and side-effect free.
func VerifyFingerprint(data []byte, expected types.Hash) bool {
	return Fingerprint(data) == expected
}
