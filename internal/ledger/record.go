// Package ledger holds the locally recorded custody entities (accounts,
// transfers and contract interactions) and their append-only store.
package ledger

import (
	"math/big"
	"time"

	"github.com/ethervault/ethervault/pkg/types"
)

// TransferStatus is the lifecycle state of a recorded transfer.
// PENDING is the only non-terminal state.
type TransferStatus string

const (
	TransferPending   TransferStatus = "PENDING"
	TransferConfirmed TransferStatus = "CONFIRMED"
	TransferFailed    TransferStatus = "FAILED"
	TransferCancelled TransferStatus = "CANCELLED"
)

// Terminal reports whether the status can never change again.
func (s TransferStatus) Terminal() bool {
	return s != TransferPending
}

// InteractionStatus is the lifecycle state of a contract interaction.
type InteractionStatus string

const (
	InteractionPending  InteractionStatus = "PENDING"
	InteractionSuccess  InteractionStatus = "SUCCESS"
	InteractionFailed   InteractionStatus = "FAILED"
	InteractionReverted InteractionStatus = "REVERTED"
)

// Terminal reports whether the status can never change again.
func (s InteractionStatus) Terminal() bool {
	return s != InteractionPending
}

// Account is a locally held account. The encrypted secret blob is
// meaningless without the matching password; the address is a pure
// function of the public key and is never chosen.
type Account struct {
	Address         types.Address `json:"address"`
	Name            string        `json:"name"`
	EncryptedSecret string        `json:"encrypted_secret"`
	Active          bool          `json:"active"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Transfer is a recorded value transfer. Created when the gateway
// accepts the signed transaction; mutated only by the monitor or an
// explicit cancel; never deleted.
type Transfer struct {
	TxHash      types.Hash     `json:"tx_hash"`
	Account     types.Address  `json:"account"`
	From        types.Address  `json:"from"`
	To          types.Address  `json:"to"`
	Amount      *big.Int       `json:"amount"`
	GasPrice    *big.Int       `json:"gas_price"`
	GasLimit    uint64         `json:"gas_limit"`
	GasUsed     uint64         `json:"gas_used,omitempty"`
	Status      TransferStatus `json:"status"`
	BlockNumber uint64         `json:"block_number,omitempty"`
	TxIndex     uint32         `json:"tx_index,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	ConfirmedAt *time.Time     `json:"confirmed_at,omitempty"`
}

// Interaction is a recorded contract call. TxHash is nil for read-only
// calls that never touched the chain.
type Interaction struct {
	ID        string            `json:"id"`
	Account   types.Address     `json:"account"`
	Contract  types.Address     `json:"contract"`
	Function  string            `json:"function"`
	Selector  types.Selector    `json:"selector"`
	Input     []byte            `json:"input"`
	Output    []byte            `json:"output,omitempty"`
	TxHash    *types.Hash       `json:"tx_hash,omitempty"`
	Status    InteractionStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
