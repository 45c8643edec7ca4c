// Package keyvault generates and imports account key material and holds
// it under password-derived authenticated encryption.
package keyvault

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/ethervault/ethervault/internal/log"
	"github.com/ethervault/ethervault/pkg/crypto"
	"github.com/ethervault/ethervault/pkg/types"
)

var (
	// ErrInvalidSecretFormat is returned when an imported secret does
	// not decode to exactly the curve's scalar width.
	ErrInvalidSecretFormat = errors.New("invalid secret format")

	// ErrInvalidMnemonic is returned when a word list fails BIP-39
	// wordlist or checksum validation.
	ErrInvalidMnemonic = errors.New("invalid mnemonic phrase")
)

// Vault creates, imports, encrypts and recovers account secrets.
type Vault struct {
	cipher *Cipher
}

// New creates a Vault with the given PBKDF2 work factor.
func New(kdfIterations int) (*Vault, error) {
	c, err := NewCipher(kdfIterations)
	if err != nil {
		return nil, err
	}
	return &Vault{cipher: c}, nil
}

// Generate produces a fresh key pair and the address it controls.
func (v *Vault) Generate() (types.Address, *crypto.PrivateKey, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return types.Address{}, nil, err
	}
	addr := key.Address()
	log.Vault.Debug().Stringer("address", addr).Msg("generated key pair")
	return addr, key, nil
}

// ImportSecretHex imports a secret from its hex encoding. The hex must
// decode to exactly 32 bytes and form a valid curve scalar.
func (v *Vault) ImportSecretHex(secretHex string) (types.Address, *crypto.PrivateKey, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(secretHex), "0x"), "0X")
	raw, err := hex.DecodeString(h)
	if err != nil {
		return types.Address{}, nil, fmt.Errorf("%w: not hex", ErrInvalidSecretFormat)
	}
	if len(raw) != crypto.SecretSize {
		return types.Address{}, nil, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidSecretFormat, crypto.SecretSize, len(raw))
	}
	key, err := crypto.PrivateKeyFromBytes(raw)
	zero(raw)
	if err != nil {
		return types.Address{}, nil, fmt.Errorf("%w: %v", ErrInvalidSecretFormat, err)
	}
	return key.Address(), key, nil
}

// ImportMnemonic derives a secret from a BIP-39 word list and optional
// passphrase. Derivation is deterministic: the same words and
// passphrase always yield the same secret, and a different passphrase
// yields a different one. The secret is SHA-256 of the BIP-39 seed.
func (v *Vault) ImportMnemonic(words, passphrase string) (types.Address, *crypto.PrivateKey, error) {
	if !bip39.IsMnemonicValid(words) {
		return types.Address{}, nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(words, passphrase)
	if err != nil {
		return types.Address{}, nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	scalar := sha256.Sum256(seed)
	zero(seed)
	key, err := crypto.PrivateKeyFromBytes(scalar[:])
	zero(scalar[:])
	if err != nil {
		return types.Address{}, nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	return key.Address(), key, nil
}

// Encrypt seals the key's secret scalar under the password.
func (v *Vault) Encrypt(key *crypto.PrivateKey, password []byte) (string, error) {
	secret := key.Serialize()
	defer zero(secret)
	return v.cipher.Encrypt(secret, password)
}

// Recover decrypts an encrypted secret and checks that the key it
// contains controls the expected address. Both gates are required: an
// authenticated decryption that yields a key for a different address
// indicates corrupt stored data. Every failure is ErrDecrypt so the
// caller cannot tell a bad password from corruption.
func (v *Vault) Recover(blob string, expected types.Address, password []byte) (*crypto.PrivateKey, error) {
	secret, err := v.cipher.Decrypt(blob, password)
	if err != nil {
		return nil, err
	}
	key, err := crypto.PrivateKeyFromBytes(secret)
	zero(secret)
	if err != nil {
		return nil, ErrDecrypt
	}
	if key.Address() != expected {
		key.Zero()
		return nil, ErrDecrypt
	}
	return key, nil
}

// ValidatePassword reports whether the password opens the blob and the
// recovered key matches the expected address. False on any failure.
func (v *Vault) ValidatePassword(blob string, expected types.Address, password []byte) bool {
	key, err := v.Recover(blob, expected, password)
	if err != nil {
		return false
	}
	key.Zero()
	return true
}
