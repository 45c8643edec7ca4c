package types

import (
	"encoding/json"
	"testing"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid with prefix", "0x1234567890abcdef1234567890abcdef12345678", false},
		{"valid without prefix", "1234567890abcdef1234567890abcdef12345678", false},
		{"uppercase prefix", "0X1234567890ABCDEF1234567890ABCDEF12345678", false},
		{"empty", "", true},
		{"too short", "0x1234", true},
		{"too long", "0x1234567890abcdef1234567890abcdef1234567890", true},
		{"not hex", "0xzz34567890abcdef1234567890abcdef12345678", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseAddress(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestAddressStringRoundtrip(t *testing.T) {
	var a Address
	for i := range a {
		a[i] = byte(i)
	}

	parsed, err := ParseAddress(a.String())
	if err != nil {
		t.Fatalf("ParseAddress() error: %v", err)
	}
	if parsed != a {
		t.Errorf("roundtrip mismatch: got %s, want %s", parsed, a)
	}
}

func TestAddressJSON(t *testing.T) {
	a, err := ParseAddress("0x1234567890abcdef1234567890abcdef12345678")
	if err != nil {
		t.Fatalf("ParseAddress() error: %v", err)
	}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != `"0x1234567890abcdef1234567890abcdef12345678"` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var back Address
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if back != a {
		t.Errorf("JSON roundtrip mismatch: got %s, want %s", back, a)
	}
}

func TestAddressIsZero(t *testing.T) {
	var zero Address
	if !zero.IsZero() {
		t.Error("zero address should report IsZero")
	}
	zero[19] = 1
	if zero.IsZero() {
		t.Error("non-zero address should not report IsZero")
	}
}

func TestIsValidAddress(t *testing.T) {
	if !IsValidAddress("0x1234567890abcdef1234567890abcdef12345678") {
		t.Error("well-formed address reported invalid")
	}
	if IsValidAddress("0x1234") {
		t.Error("short address reported valid")
	}
}
