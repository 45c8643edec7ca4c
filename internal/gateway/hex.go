package gateway

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Hex-quantity codec for the node's wire encoding: quantities are
// 0x-prefixed minimal hex, byte blobs are 0x-prefixed even-length hex.

func encodeUint64(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}

func encodeBig(v *big.Int) string {
	if v == nil || v.Sign() == 0 {
		return "0x0"
	}
	return "0x" + v.Text(16)
}

func encodeBytes(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func decodeUint64(s string) (uint64, error) {
	v, err := decodeBig(s)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("quantity %s overflows uint64", s)
	}
	return v.Uint64(), nil
}

func decodeBig(s string) (*big.Int, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if trimmed == "" {
		return nil, fmt.Errorf("empty quantity")
	}
	v, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex quantity %q", s)
	}
	return v, nil
}

func decodeBytes(s string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data %q: %w", s, err)
	}
	return b, nil
}
