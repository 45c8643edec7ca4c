package tx

import (
	"bytes"
	"math/big"
	"testing"
)

func TestRLPAppendBytes(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{"empty string", nil, []byte{0x80}},
		{"single low byte", []byte{0x0f}, []byte{0x0f}},
		{"single high byte", []byte{0x80}, []byte{0x81, 0x80}},
		{"dog", []byte("dog"), []byte{0x83, 'd', 'o', 'g'}},
		{
			"55 bytes",
			bytes.Repeat([]byte{0xaa}, 55),
			append([]byte{0xb7}, bytes.Repeat([]byte{0xaa}, 55)...),
		},
		{
			"56 bytes",
			bytes.Repeat([]byte{0xaa}, 56),
			append([]byte{0xb8, 0x38}, bytes.Repeat([]byte{0xaa}, 56)...),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rlpAppendBytes(nil, tt.input)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("rlpAppendBytes() = %x, want %x", got, tt.want)
			}
		})
	}
}

func TestRLPAppendUint64(t *testing.T) {
	tests := []struct {
		name  string
		input uint64
		want  []byte
	}{
		{"zero", 0, []byte{0x80}},
		{"fifteen", 15, []byte{0x0f}},
		{"128", 128, []byte{0x81, 0x80}},
		{"1024", 1024, []byte{0x82, 0x04, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rlpAppendUint64(nil, tt.input)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("rlpAppendUint64(%d) = %x, want %x", tt.input, got, tt.want)
			}
		})
	}
}

func TestRLPAppendBig(t *testing.T) {
	tests := []struct {
		name  string
		input *big.Int
		want  []byte
	}{
		{"nil", nil, []byte{0x80}},
		{"zero", big.NewInt(0), []byte{0x80}},
		{"one", big.NewInt(1), []byte{0x01}},
		{"1024", big.NewInt(1024), []byte{0x82, 0x04, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rlpAppendBig(nil, tt.input)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("rlpAppendBig() = %x, want %x", got, tt.want)
			}
		})
	}
}

func TestRLPWrapList(t *testing.T) {
	// ["cat", "dog"]
	var payload []byte
	payload = rlpAppendBytes(payload, []byte("cat"))
	payload = rlpAppendBytes(payload, []byte("dog"))

	got := rlpWrapList(payload)
	want := []byte{0xc8, 0x83, 'c', 'a', 't', 0x83, 'd', 'o', 'g'}
	if !bytes.Equal(got, want) {
		t.Errorf("rlpWrapList() = %x, want %x", got, want)
	}

	// Empty list.
	if got := rlpWrapList(nil); !bytes.Equal(got, []byte{0xc0}) {
		t.Errorf("empty list = %x, want c0", got)
	}
}
