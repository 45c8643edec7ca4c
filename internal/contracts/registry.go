// Package contracts holds the closed set of contract call descriptors
// the core knows how to encode. Each descriptor carries its selector
// and encode/decode functions; the table is looked up by function name
// and unknown names are rejected up front rather than failing at
// dispatch time.
package contracts

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethervault/ethervault/pkg/crypto"
	"github.com/ethervault/ethervault/pkg/types"
)

// ErrUnsupportedFunction is returned when no descriptor exists for the
// requested function name.
var ErrUnsupportedFunction = errors.New("unsupported contract function")

// Descriptor describes one callable contract function.
type Descriptor struct {
	Name      string
	Signature string
	Selector  types.Selector
	// Encode builds the full call data (selector plus ABI-encoded args).
	Encode func(args []string) ([]byte, error)
	// Decode renders the raw return data as a human-readable string.
	Decode func(result []byte) (string, error)
}

// Registry is an immutable name-to-descriptor table.
type Registry struct {
	byName map[string]*Descriptor
}

// NewRegistry builds the built-in descriptor table (the ERC-20 core set).
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]*Descriptor)}
	r.add("totalSupply", "totalSupply()", nil, decodeUint256)
	r.add("decimals", "decimals()", nil, decodeUint256)
	r.add("balanceOf", "balanceOf(address)", []argKind{argAddress}, decodeUint256)
	r.add("allowance", "allowance(address,address)", []argKind{argAddress, argAddress}, decodeUint256)
	r.add("transfer", "transfer(address,uint256)", []argKind{argAddress, argUint256}, decodeBool)
	r.add("approve", "approve(address,uint256)", []argKind{argAddress, argUint256}, decodeBool)
	return r
}

// Lookup returns the descriptor for a function name.
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFunction, name)
	}
	return d, nil
}

// Names returns the supported function names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	return out
}

func (r *Registry) add(name, signature string, kinds []argKind, decode func([]byte) (string, error)) {
	sel := SelectorFor(signature)
	r.byName[name] = &Descriptor{
		Name:      name,
		Signature: signature,
		Selector:  sel,
		Encode: func(args []string) ([]byte, error) {
			return encodeCall(sel, kinds, args)
		},
		Decode: decode,
	}
}

// SelectorFor computes the 4-byte selector for a canonical function
// signature: keccak256(signature)[:4].
func SelectorFor(signature string) types.Selector {
	h := crypto.Keccak256([]byte(signature))
	var s types.Selector
	copy(s[:], h[:types.SelectorSize])
	return s
}

// argKind is the static ABI type of one argument.
type argKind int

const (
	argAddress argKind = iota
	argUint256
)

const wordSize = 32

// encodeCall produces selector || one 32-byte word per argument.
func encodeCall(sel types.Selector, kinds []argKind, args []string) ([]byte, error) {
	if len(args) != len(kinds) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(kinds), len(args))
	}
	out := make([]byte, 0, types.SelectorSize+wordSize*len(kinds))
	out = append(out, sel[:]...)
	for i, kind := range kinds {
		word, err := encodeWord(kind, args[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out = append(out, word...)
	}
	return out, nil
}

func encodeWord(kind argKind, arg string) ([]byte, error) {
	word := make([]byte, wordSize)
	switch kind {
	case argAddress:
		addr, err := types.ParseAddress(arg)
		if err != nil {
			return nil, err
		}
		copy(word[wordSize-types.AddressSize:], addr[:])
	case argUint256:
		v, ok := new(big.Int).SetString(strings.TrimSpace(arg), 10)
		if !ok || v.Sign() < 0 || v.BitLen() > 256 {
			return nil, fmt.Errorf("invalid uint256 %q", arg)
		}
		v.FillBytes(word)
	default:
		return nil, fmt.Errorf("unknown argument kind %d", kind)
	}
	return word, nil
}

func decodeUint256(result []byte) (string, error) {
	if len(result) < wordSize {
		return "", fmt.Errorf("result too short: %d bytes", len(result))
	}
	return new(big.Int).SetBytes(result[:wordSize]).String(), nil
}

func decodeBool(result []byte) (string, error) {
	if len(result) < wordSize {
		return "", fmt.Errorf("result too short: %d bytes", len(result))
	}
	if new(big.Int).SetBytes(result[:wordSize]).Sign() != 0 {
		return "true", nil
	}
	return "false", nil
}
