package crypto

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/ethervault/ethervault/pkg/types"
)

// SecretSize is the length of a private key scalar in bytes.
const SecretSize = 32

// ErrInvalidSecret is returned when bytes do not form a valid scalar
// for the curve (wrong length, zero, or >= the group order).
var ErrInvalidSecret = errors.New("invalid secp256k1 secret")

// PrivateKey wraps a secp256k1 private key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte secret.
// The bytes must be a canonical non-zero scalar below the curve order;
// anything else yields ErrInvalidSecret rather than a silently reduced key.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != SecretSize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidSecret, SecretSize, len(b))
	}
	var scalar secp256k1.ModNScalar
	overflow := scalar.SetByteSlice(b)
	if overflow || scalar.IsZero() {
		return nil, ErrInvalidSecret
	}
	return &PrivateKey{key: secp256k1.NewPrivateKey(&scalar)}, nil
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// PublicKeyUncompressed returns the 65-byte uncompressed public key
// (0x04 prefix followed by the X and Y coordinates).
func (pk *PrivateKey) PublicKeyUncompressed() []byte {
	return pk.key.PubKey().SerializeUncompressed()
}

// Address derives the account address controlled by this key.
func (pk *PrivateKey) Address() types.Address {
	return AddressFromPubKey(pk.PublicKeyUncompressed())
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}
