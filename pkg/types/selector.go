package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// SelectorSize is the length of a contract function selector in bytes.
const SelectorSize = 4

// Selector identifies a contract function (first 4 bytes of the
// keccak-256 hash of its canonical signature).
type Selector [SelectorSize]byte

// String returns the 0x-prefixed hex encoding of the selector.
func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// Bytes returns a copy of the selector as a byte slice.
func (s Selector) Bytes() []byte {
	b := make([]byte, SelectorSize)
	copy(b, s[:])
	return b
}

// MarshalJSON encodes the selector as a 0x-prefixed hex string.
func (s Selector) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a hex string into a selector.
func (s *Selector) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		*s = Selector{}
		return nil
	}
	parsed, err := ParseSelector(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSelector parses a 0x-prefixed or raw 8-char hex string.
func ParseSelector(str string) (Selector, error) {
	hexStr := strings.TrimPrefix(strings.TrimPrefix(str, "0x"), "0X")
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return Selector{}, fmt.Errorf("invalid selector hex: %w", err)
	}
	if len(decoded) != SelectorSize {
		return Selector{}, fmt.Errorf("selector must be %d bytes, got %d", SelectorSize, len(decoded))
	}
	var s Selector
	copy(s[:], decoded)
	return s, nil
}
