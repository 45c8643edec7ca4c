package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/ethervault/ethervault/pkg/types"
)

// Signature is a recoverable ECDSA signature over a 32-byte hash.
// V is the raw recovery id (0-3), not yet bound to any chain id.
type Signature struct {
	R [32]byte
	S [32]byte
	V byte
}

// SignRecoverable produces a deterministic (RFC 6979) low-S ECDSA
// signature over a 32-byte hash. The recovery id allows the signing
// address to be recovered from the signature alone.
func (pk *PrivateKey) SignRecoverable(hash []byte) (*Signature, error) {
	if len(hash) != types.HashSize {
		return nil, fmt.Errorf("hash must be %d bytes, got %d", types.HashSize, len(hash))
	}
	// Compact format: [recovery code (27 + id)][R (32)][S (32)].
	compact := ecdsa.SignCompact(pk.key, hash, false)
	sig := &Signature{V: compact[0] - 27}
	copy(sig.R[:], compact[1:33])
	copy(sig.S[:], compact[33:65])
	return sig, nil
}

// RecoverAddress recovers the address that produced the signature over
// the given 32-byte hash.
func RecoverAddress(hash []byte, sig *Signature) (types.Address, error) {
	if len(hash) != types.HashSize {
		return types.Address{}, fmt.Errorf("hash must be %d bytes, got %d", types.HashSize, len(hash))
	}
	compact := make([]byte, 65)
	compact[0] = sig.V + 27
	copy(compact[1:33], sig.R[:])
	copy(compact[33:65], sig.S[:])
	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return types.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return AddressFromPubKey(pub.SerializeUncompressed()), nil
}

// VerifySignature checks that the signature over hash recovers to the
// expected address. Returns false on any error.
func VerifySignature(hash []byte, sig *Signature, expected types.Address) bool {
	recovered, err := RecoverAddress(hash, sig)
	if err != nil {
		return false
	}
	return recovered == expected
}
