package keyvault

import (
	"errors"
	"strings"
	"testing"

	"github.com/ethervault/ethervault/pkg/crypto"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New(MinKDFIterations)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return v
}

func TestGenerate(t *testing.T) {
	v := testVault(t)

	addr1, key1, err := v.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	defer key1.Zero()
	addr2, key2, err := v.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	defer key2.Zero()

	if addr1.IsZero() || addr2.IsZero() {
		t.Error("generated address must not be zero")
	}
	if addr1 == addr2 {
		t.Error("two generated accounts must not collide")
	}
	if key1.Address() != addr1 {
		t.Error("returned address must match the key")
	}
}

func TestImportSecretHex(t *testing.T) {
	v := testVault(t)

	secret := "0x" + strings.Repeat("0", 63) + "1"
	addr, key, err := v.ImportSecretHex(secret)
	if err != nil {
		t.Fatalf("ImportSecretHex() error: %v", err)
	}
	defer key.Zero()

	// Address of scalar 1 is fixed.
	if addr.String() != "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf" {
		t.Errorf("unexpected address %s", addr)
	}

	// Same secret without the 0x prefix imports identically.
	addr2, key2, err := v.ImportSecretHex(strings.Repeat("0", 63) + "1")
	if err != nil {
		t.Fatalf("ImportSecretHex() without prefix error: %v", err)
	}
	defer key2.Zero()
	if addr2 != addr {
		t.Error("prefix must not change the imported key")
	}
}

func TestImportSecretHexRejectsBadInput(t *testing.T) {
	v := testVault(t)

	tests := []struct {
		name   string
		secret string
	}{
		{"not hex", "0xzz"},
		{"too short", "0x1234"},
		{"too long", "0x" + strings.Repeat("11", crypto.SecretSize+1)},
		{"zero scalar", "0x" + strings.Repeat("0", 64)},
		{"above order", "0x" + strings.Repeat("f", 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := v.ImportSecretHex(tt.secret)
			if !errors.Is(err, ErrInvalidSecretFormat) {
				t.Errorf("ImportSecretHex(%q) = %v, want ErrInvalidSecretFormat", tt.secret, err)
			}
		})
	}
}

func TestImportMnemonicDeterministic(t *testing.T) {
	v := testVault(t)

	addr1, key1, err := v.ImportMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("ImportMnemonic() error: %v", err)
	}
	defer key1.Zero()
	addr2, key2, err := v.ImportMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("ImportMnemonic() error: %v", err)
	}
	defer key2.Zero()

	if addr1 != addr2 {
		t.Error("same words and passphrase must yield the same account")
	}
}

func TestImportMnemonicPassphraseChangesSecret(t *testing.T) {
	v := testVault(t)

	plain, key1, err := v.ImportMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("ImportMnemonic() error: %v", err)
	}
	defer key1.Zero()
	salted, key2, err := v.ImportMnemonic(testMnemonic, "TREZOR")
	if err != nil {
		t.Fatalf("ImportMnemonic() with passphrase error: %v", err)
	}
	defer key2.Zero()

	if plain == salted {
		t.Error("a different passphrase must yield a different account")
	}
}

func TestImportMnemonicRejectsInvalid(t *testing.T) {
	v := testVault(t)

	tests := []struct {
		name  string
		words string
	}{
		{"empty", ""},
		{"not words", "definitely not a mnemonic"},
		{"bad checksum", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := v.ImportMnemonic(tt.words, "")
			if !errors.Is(err, ErrInvalidMnemonic) {
				t.Errorf("ImportMnemonic(%q) = %v, want ErrInvalidMnemonic", tt.words, err)
			}
		})
	}
}

func TestEncryptRecoverRoundtrip(t *testing.T) {
	v := testVault(t)
	password := []byte("correct horse battery staple")

	addr, key, err := v.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	blob, err := v.Encrypt(key, password)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	original := key.Address()
	key.Zero()

	recovered, err := v.Recover(blob, addr, password)
	if err != nil {
		t.Fatalf("Recover() error: %v", err)
	}
	defer recovered.Zero()
	if recovered.Address() != original {
		t.Error("recovered key must control the original address")
	}
}

func TestRecoverWrongPassword(t *testing.T) {
	v := testVault(t)

	addr, key, err := v.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	defer key.Zero()
	blob, err := v.Encrypt(key, []byte("right"))
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	if _, err := v.Recover(blob, addr, []byte("wrong")); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Recover() with wrong password = %v, want ErrDecrypt", err)
	}
}

// A blob that decrypts cleanly but holds a key for a different address
// is corruption, and must fail with the same error as a bad password.
func TestRecoverAddressMismatch(t *testing.T) {
	v := testVault(t)
	password := []byte("pass")

	_, key, err := v.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	defer key.Zero()
	blob, err := v.Encrypt(key, password)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	other, otherKey, err := v.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	otherKey.Zero()

	if _, err := v.Recover(blob, other, password); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Recover() with mismatched address = %v, want ErrDecrypt", err)
	}
}

func TestValidatePassword(t *testing.T) {
	v := testVault(t)
	password := []byte("pass")

	addr, key, err := v.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	defer key.Zero()
	blob, err := v.Encrypt(key, password)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	if !v.ValidatePassword(blob, addr, password) {
		t.Error("correct password should validate")
	}
	if v.ValidatePassword(blob, addr, []byte("wrong")) {
		t.Error("wrong password must not validate")
	}
	if v.ValidatePassword("garbage", addr, password) {
		t.Error("corrupt blob must not validate")
	}
}
