package keyvault

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

func testCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher(MinKDFIterations)
	if err != nil {
		t.Fatalf("NewCipher() error: %v", err)
	}
	return c
}

func TestNewCipherRejectsWeakWorkFactor(t *testing.T) {
	if _, err := NewCipher(MinKDFIterations - 1); err == nil {
		t.Error("NewCipher() should reject an iteration count below the floor")
	}
	if _, err := NewCipher(0); err == nil {
		t.Error("NewCipher() should reject zero iterations")
	}
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	c := testCipher(t)
	secret := []byte("exactly-32-byte-secret-material!")
	password := []byte("hunter2")

	blob, err := c.Encrypt(secret, password)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	plain, err := c.Decrypt(blob, password)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if !bytes.Equal(plain, secret) {
		t.Error("decrypted secret does not match original")
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	c := testCipher(t)
	blob, err := c.Encrypt([]byte("secret"), []byte("correct"))
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	_, err = c.Decrypt(blob, []byte("wrong"))
	if !errors.Is(err, ErrDecrypt) {
		t.Errorf("Decrypt() with wrong password = %v, want ErrDecrypt", err)
	}
}

func TestEncryptProducesDistinctBlobs(t *testing.T) {
	c := testCipher(t)
	secret := []byte("secret")
	password := []byte("pass")

	b1, err := c.Encrypt(secret, password)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	b2, err := c.Encrypt(secret, password)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if b1 == b2 {
		t.Error("two encryptions of the same input must use fresh salt and iv")
	}

	p1, err := c.Decrypt(b1, password)
	if err != nil {
		t.Fatalf("Decrypt(b1) error: %v", err)
	}
	p2, err := c.Decrypt(b2, password)
	if err != nil {
		t.Fatalf("Decrypt(b2) error: %v", err)
	}
	if !bytes.Equal(p1, secret) || !bytes.Equal(p2, secret) {
		t.Error("both blobs must decrypt to the original secret")
	}
}

func TestDecryptMalformedBlob(t *testing.T) {
	c := testCipher(t)
	tests := []struct {
		name string
		blob string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"empty", ""},
		{"too short", base64.StdEncoding.EncodeToString([]byte("short"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decrypt(tt.blob, []byte("pass"))
			if !errors.Is(err, ErrDecrypt) {
				t.Errorf("Decrypt() = %v, want ErrDecrypt", err)
			}
		})
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	c := testCipher(t)
	blob, err := c.Encrypt([]byte("secret"), []byte("pass"))
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		t.Fatalf("decode blob: %v", err)
	}
	raw[len(raw)-1] ^= 0x01 // flip a tag bit
	tampered := base64.StdEncoding.EncodeToString(raw)

	if _, err := c.Decrypt(tampered, []byte("pass")); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Decrypt() of tampered blob = %v, want ErrDecrypt", err)
	}
}

func TestBlobLayout(t *testing.T) {
	c := testCipher(t)
	secret := []byte("0123456789abcdef0123456789abcdef")

	blob, err := c.Encrypt(secret, []byte("pass"))
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		t.Fatalf("blob must be standard base64: %v", err)
	}

	want := saltSize + ivSize + len(secret) + tagSize
	if len(raw) != want {
		t.Errorf("blob length = %d, want %d (salt+iv+ct+tag)", len(raw), want)
	}
}
