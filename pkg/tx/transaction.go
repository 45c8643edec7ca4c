// Package tx builds and signs ledger transactions. Construction is pure
// data assembly; signing binds the transaction to a chain id so a
// signature is never replayable across chains.
package tx

import (
	"math/big"

	"github.com/ethervault/ethervault/pkg/types"
)

// UnsignedTx is a canonical transaction awaiting a signature.
// Nonce must be the sending account's next unused sequence number.
type UnsignedTx struct {
	Nonce    uint64
	GasPrice *big.Int
	GasLimit uint64
	To       *types.Address // nil means contract creation
	Value    *big.Int
	Data     []byte
}

// NewTransfer assembles a plain value transfer. No I/O.
func NewTransfer(nonce uint64, gasPrice *big.Int, gasLimit uint64, to types.Address, value *big.Int) *UnsignedTx {
	return &UnsignedTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		GasLimit: gasLimit,
		To:       &to,
		Value:    value,
	}
}

// NewContractCall assembles a transaction carrying encoded call data. No I/O.
func NewContractCall(nonce uint64, gasPrice *big.Int, gasLimit uint64, to types.Address, value *big.Int, data []byte) *UnsignedTx {
	return &UnsignedTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		GasLimit: gasLimit,
		To:       &to,
		Value:    value,
		Data:     data,
	}
}

// toBytes returns the recipient as raw bytes, empty for contract creation.
func (utx *UnsignedTx) toBytes() []byte {
	if utx.To == nil {
		return nil
	}
	return utx.To.Bytes()
}
