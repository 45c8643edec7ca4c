package tx

import (
	"encoding/binary"
	"math/big"
)

// Minimal RLP encoding: byte strings, unsigned integers and flat lists.
// That is all a legacy transaction payload needs; decoding never happens
// on this side of the wire.

// rlpAppendBytes appends b encoded as an RLP string item.
func rlpAppendBytes(dst, b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return append(dst, b[0])
	}
	dst = rlpAppendLength(dst, len(b), 0x80)
	return append(dst, b...)
}

// rlpAppendUint64 appends v as a minimal big-endian RLP string item.
func rlpAppendUint64(dst []byte, v uint64) []byte {
	if v == 0 {
		return append(dst, 0x80)
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	i := 0
	for buf[i] == 0 {
		i++
	}
	return rlpAppendBytes(dst, buf[i:])
}

// rlpAppendBig appends v as a minimal big-endian RLP string item.
// nil and zero both encode as the empty string.
func rlpAppendBig(dst []byte, v *big.Int) []byte {
	if v == nil || v.Sign() == 0 {
		return append(dst, 0x80)
	}
	return rlpAppendBytes(dst, v.Bytes())
}

// rlpWrapList wraps an already-encoded payload as an RLP list.
func rlpWrapList(payload []byte) []byte {
	out := rlpAppendLength(nil, len(payload), 0xc0)
	return append(out, payload...)
}

// rlpAppendLength appends the RLP length prefix for the given item or
// list offset (0x80 for strings, 0xc0 for lists).
func rlpAppendLength(dst []byte, length int, offset byte) []byte {
	if length <= 55 {
		return append(dst, offset+byte(length))
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(length))
	i := 0
	for buf[i] == 0 {
		i++
	}
	lenBytes := buf[i:]
	dst = append(dst, offset+55+byte(len(lenBytes)))
	return append(dst, lenBytes...)
}
