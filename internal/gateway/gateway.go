// Package gateway defines the narrow contract the custody core requires
// from a remote ledger node and implements it over JSON-RPC.
//
// The core never assumes the node's answers are cached or consistent
// between calls; reconciliation against them is the monitor's job.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethervault/ethervault/pkg/types"
)

// Receipt is the ledger's authoritative record that a transaction was
// included in a block and whether it succeeded.
type Receipt struct {
	TxHash      types.Hash
	OK          bool
	BlockNumber uint64
	Index       uint32
	FeeUsed     uint64
	Logs        json.RawMessage
}

// TxSummary is what the node knows about a transaction by id.
// BlockNumber is nil while the transaction sits in the mempool.
type TxSummary struct {
	TxHash      types.Hash
	BlockNumber *uint64
}

// ChainGateway is the only way the core talks to the ledger.
// Receipt and Lookup return (nil, nil) when the node has no record.
type ChainGateway interface {
	NextNonce(ctx context.Context, account types.Address) (uint64, error)
	FeePrice(ctx context.Context) (*big.Int, error)
	EstimateFeeLimit(ctx context.Context, from, to types.Address, value *big.Int, data []byte) (uint64, error)
	Submit(ctx context.Context, rawTx []byte) (types.Hash, error)
	Receipt(ctx context.Context, txID types.Hash) (*Receipt, error)
	Lookup(ctx context.Context, txID types.Hash) (*TxSummary, error)
	Balance(ctx context.Context, account types.Address) (*big.Int, error)
	// CallContract executes a read-only contract call: opaque encoded
	// call data in, opaque encoded result out.
	CallContract(ctx context.Context, from, to types.Address, data []byte) ([]byte, error)
}

// NetworkError wraps a transport-level failure. Transient; reads are
// safe to retry, a failed Submit is not (the transaction may have
// landed anyway).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// LedgerError is an error reported by the node itself.
type LedgerError struct {
	Code    int
	Message string
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger error %d: %s", e.Code, e.Message)
}
