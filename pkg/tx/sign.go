package tx

import (
	"fmt"
	"math/big"

	"github.com/ethervault/ethervault/pkg/crypto"
	"github.com/ethervault/ethervault/pkg/types"
)

// SignedTx is a wire-ready transaction. Hash is keccak256(Raw) and is
// known before the transaction is submitted anywhere.
type SignedTx struct {
	Unsigned *UnsignedTx
	ChainID  uint64
	Raw      []byte
	Hash     types.Hash

	sig *crypto.Signature
}

// signingPayload is the chain-id-bound encoding defined by EIP-155:
// rlp(nonce, gasPrice, gasLimit, to, value, data, chainId, 0, 0).
func (utx *UnsignedTx) signingPayload(chainID uint64) []byte {
	var p []byte
	p = rlpAppendUint64(p, utx.Nonce)
	p = rlpAppendBig(p, utx.GasPrice)
	p = rlpAppendUint64(p, utx.GasLimit)
	p = rlpAppendBytes(p, utx.toBytes())
	p = rlpAppendBig(p, utx.Value)
	p = rlpAppendBytes(p, utx.Data)
	p = rlpAppendUint64(p, chainID)
	p = append(p, 0x80, 0x80)
	return rlpWrapList(p)
}

// SigningHash returns the canonical hash that is signed for the given
// chain id. Different chain ids yield different hashes.
func (utx *UnsignedTx) SigningHash(chainID uint64) types.Hash {
	return crypto.Keccak256(utx.signingPayload(chainID))
}

// Sign signs the transaction with the given secret and serializes
// signature plus transaction into the wire format. The secret must be a
// valid curve scalar; crypto.ErrInvalidSecret is surfaced by the key
// constructor before this point, so Sign never emits an unverifiable
// signature.
func Sign(utx *UnsignedTx, key *crypto.PrivateKey, chainID uint64) (*SignedTx, error) {
	hash := utx.SigningHash(chainID)
	sig, err := key.SignRecoverable(hash.Bytes())
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	v := new(big.Int).SetUint64(uint64(sig.V) + 35 + 2*chainID)
	r := new(big.Int).SetBytes(sig.R[:])
	s := new(big.Int).SetBytes(sig.S[:])

	var p []byte
	p = rlpAppendUint64(p, utx.Nonce)
	p = rlpAppendBig(p, utx.GasPrice)
	p = rlpAppendUint64(p, utx.GasLimit)
	p = rlpAppendBytes(p, utx.toBytes())
	p = rlpAppendBig(p, utx.Value)
	p = rlpAppendBytes(p, utx.Data)
	p = rlpAppendBig(p, v)
	p = rlpAppendBig(p, r)
	p = rlpAppendBig(p, s)
	raw := rlpWrapList(p)

	return &SignedTx{
		Unsigned: utx,
		ChainID:  chainID,
		Raw:      raw,
		Hash:     crypto.Keccak256(raw),
		sig:      sig,
	}, nil
}

// Sender recovers the address that signed this transaction.
func (stx *SignedTx) Sender() (types.Address, error) {
	if stx.sig == nil {
		return types.Address{}, fmt.Errorf("transaction carries no signature")
	}
	hash := stx.Unsigned.SigningHash(stx.ChainID)
	return crypto.RecoverAddress(hash.Bytes(), stx.sig)
}

// VerifiesUnder reports whether the embedded signature is valid for the
// expected sender under the given chain id. A signature produced for a
// different chain id does not verify.
func (stx *SignedTx) VerifiesUnder(chainID uint64, expected types.Address) bool {
	if stx.sig == nil {
		return false
	}
	hash := stx.Unsigned.SigningHash(chainID)
	return crypto.VerifySignature(hash.Bytes(), stx.sig, expected)
}
