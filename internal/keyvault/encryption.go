package keyvault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Encrypted secret layout: base64( salt(16) || iv(12) || ciphertext || tag(16) ).
// The GCM tag is appended to the ciphertext by Seal.
const (
	saltSize = 16
	ivSize   = 12
	tagSize  = 16
	keySize  = 32

	// MinKDFIterations is the floor for the PBKDF2 work factor.
	MinKDFIterations = 100_000

	// DefaultKDFIterations is the default PBKDF2 work factor.
	DefaultKDFIterations = 100_000
)

// ErrDecrypt covers every decryption failure: bad base64, truncated
// blob, wrong password, or tampered ciphertext. A single error keeps
// the failure path uniform so callers cannot distinguish a wrong
// password from corrupt data.
var ErrDecrypt = errors.New("wrong password or corrupt key data")

// Cipher performs password-based authenticated encryption of secrets.
// The KDF work factor is fixed at construction; there is no global
// crypto registry.
type Cipher struct {
	iterations int
}

// NewCipher creates a Cipher with the given PBKDF2 iteration count.
func NewCipher(iterations int) (*Cipher, error) {
	if iterations < MinKDFIterations {
		return nil, fmt.Errorf("kdf iterations %d below minimum %d", iterations, MinKDFIterations)
	}
	return &Cipher{iterations: iterations}, nil
}

// deriveKey derives the 256-bit AES key via PBKDF2-HMAC-SHA256.
// Deliberately slow; this is the offline-guessing work factor.
func (c *Cipher) deriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, c.iterations, keySize, sha256.New)
}

// Encrypt seals the secret under the password with a fresh random salt
// and IV. Two calls with identical inputs produce different blobs that
// both decrypt to the same plaintext.
func (c *Cipher) Encrypt(secret, password []byte) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	key := c.deriveKey(password, salt)
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create gcm: %w", err)
	}

	ciphertext := aead.Seal(nil, iv, secret, nil)

	out := make([]byte, 0, saltSize+ivSize+len(ciphertext))
	out = append(out, salt...)
	out = append(out, iv...)
	out = append(out, ciphertext...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a blob produced by Encrypt. Any failure is ErrDecrypt;
// a wrong password never silently returns wrong bytes.
func (c *Cipher) Decrypt(blob string, password []byte) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, ErrDecrypt
	}
	if len(data) < saltSize+ivSize+tagSize {
		return nil, ErrDecrypt
	}

	salt := data[:saltSize]
	iv := data[saltSize : saltSize+ivSize]
	ciphertext := data[saltSize+ivSize:]

	key := c.deriveKey(password, salt)
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecrypt
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrDecrypt
	}

	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
