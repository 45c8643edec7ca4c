// Package wallet orchestrates the custody core: account creation and
// import, signed transfers and contract calls, cancellation, and the
// bookkeeping records the confirmation monitor reconciles.
package wallet

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ethervault/ethervault/internal/contracts"
	"github.com/ethervault/ethervault/internal/gateway"
	"github.com/ethervault/ethervault/internal/keyvault"
	"github.com/ethervault/ethervault/internal/ledger"
	"github.com/ethervault/ethervault/internal/log"
	"github.com/ethervault/ethervault/pkg/crypto"
	"github.com/ethervault/ethervault/pkg/tx"
	"github.com/ethervault/ethervault/pkg/types"
)

// Service ties the vault, signer, gateway and record store together.
type Service struct {
	store    *ledger.Store
	vault    *keyvault.Vault
	gw       gateway.ChainGateway
	registry *contracts.Registry
	chainID  uint64

	// accountLocks serializes the nonce-fetch -> sign -> submit ->
	// persist window per account. The ledger silently drops or rejects
	// transactions that reuse a nonce, so concurrent transfers from
	// one account must not interleave inside that window.
	mu           sync.Mutex
	accountLocks map[types.Address]*sync.Mutex
}

// NewService creates the orchestration service.
func NewService(store *ledger.Store, vault *keyvault.Vault, gw gateway.ChainGateway, registry *contracts.Registry, chainID uint64) *Service {
	return &Service{
		store:        store,
		vault:        vault,
		gw:           gw,
		registry:     registry,
		chainID:      chainID,
		accountLocks: make(map[types.Address]*sync.Mutex),
	}
}

func (s *Service) lockFor(addr types.Address) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.accountLocks[addr]
	if !ok {
		l = &sync.Mutex{}
		s.accountLocks[addr] = l
	}
	return l
}

// CreateAccount generates a fresh key pair, encrypts the secret under
// the password and stores the account record.
func (s *Service) CreateAccount(name string, password []byte) (*ledger.Account, error) {
	addr, key, err := s.vault.Generate()
	if err != nil {
		return nil, err
	}
	defer key.Zero()
	return s.storeAccount(name, addr, key, password)
}

// ImportAccount imports key material given either a mnemonic phrase or
// a hex-encoded secret, mirroring how users paste either one into the
// same field. The mnemonic passphrase is ignored for hex imports.
func (s *Service) ImportAccount(name, secretOrMnemonic, mnemonicPassphrase string, password []byte) (*ledger.Account, error) {
	var (
		addr types.Address
		key  *crypto.PrivateKey
		err  error
	)
	if looksLikeMnemonic(secretOrMnemonic) {
		addr, key, err = s.vault.ImportMnemonic(secretOrMnemonic, mnemonicPassphrase)
		if err != nil {
			return nil, newError(KindValidation, "import mnemonic: %v", err)
		}
	} else {
		addr, key, err = s.vault.ImportSecretHex(secretOrMnemonic)
		if err != nil {
			return nil, newError(KindValidation, "import secret: %v", err)
		}
	}
	defer key.Zero()
	return s.storeAccount(name, addr, key, password)
}

func (s *Service) storeAccount(name string, addr types.Address, key *crypto.PrivateKey, password []byte) (*ledger.Account, error) {
	blob, err := s.vault.Encrypt(key, password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	account := &ledger.Account{
		Address:         addr,
		Name:            name,
		EncryptedSecret: blob,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateAccount(account); err != nil {
		if errors.Is(err, ledger.ErrDuplicateAccount) {
			return nil, newError(KindConflict, "account %s already exists", addr)
		}
		return nil, err
	}
	log.Wallet.Info().Stringer("address", addr).Str("name", name).Msg("account stored")
	return account, nil
}

// Account loads an account by address.
func (s *Service) Account(addr types.Address) (*ledger.Account, error) {
	account, err := s.store.Account(addr)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, newError(KindNotFound, "account %s not found", addr)
	}
	return account, err
}

// Accounts returns all active accounts.
func (s *Service) Accounts() ([]*ledger.Account, error) {
	all, err := s.store.Accounts()
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, a := range all {
		if a.Active {
			active = append(active, a)
		}
	}
	return active, nil
}

// Balance queries the ledger for the account's balance in minor units.
func (s *Service) Balance(ctx context.Context, addr types.Address) (*big.Int, error) {
	if _, err := s.Account(addr); err != nil {
		return nil, err
	}
	return s.gw.Balance(ctx, addr)
}

// ValidatePassword reports whether the password opens the account's
// encrypted secret and the recovered key matches the stored address.
// The answer is a single boolean; nothing distinguishes a wrong
// password from corrupt data.
func (s *Service) ValidatePassword(addr types.Address, password []byte) (bool, error) {
	account, err := s.Account(addr)
	if err != nil {
		return false, err
	}
	return s.vault.ValidatePassword(account.EncryptedSecret, account.Address, password), nil
}

// ExportSecret decrypts and returns the account's secret hex. The
// caller is responsible for handling the plaintext safely.
func (s *Service) ExportSecret(addr types.Address, password []byte) (string, error) {
	account, err := s.Account(addr)
	if err != nil {
		return "", err
	}
	key, err := s.vault.Recover(account.EncryptedSecret, account.Address, password)
	if err != nil {
		return "", newError(KindAuthentication, "cannot decrypt secret")
	}
	defer key.Zero()
	secret := key.Serialize()
	out := "0x" + hex.EncodeToString(secret)
	for i := range secret {
		secret[i] = 0
	}
	return out, nil
}

// Rename updates the account's human label.
func (s *Service) Rename(addr types.Address, name string) (*ledger.Account, error) {
	account, err := s.Account(addr)
	if err != nil {
		return nil, err
	}
	account.Name = name
	account.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateAccount(account); err != nil {
		return nil, err
	}
	return account, nil
}

// Deactivate flags the account inactive. Its transfer and interaction
// history stays intact.
func (s *Service) Deactivate(addr types.Address) error {
	account, err := s.Account(addr)
	if err != nil {
		return err
	}
	account.Active = false
	account.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateAccount(account); err != nil {
		return err
	}
	log.Wallet.Info().Stringer("address", addr).Msg("account deactivated")
	return nil
}

// TransferRequest describes a value transfer. GasPrice and GasLimit
// are optional overrides; zero values mean "ask the node".
type TransferRequest struct {
	Account  types.Address
	To       types.Address
	Amount   *big.Int
	Password []byte
	GasPrice *big.Int
	GasLimit uint64
}

// Transfer signs and submits a value transfer and records it PENDING.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (*ledger.Transfer, error) {
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, newError(KindValidation, "amount must be positive")
	}
	account, err := s.Account(req.Account)
	if err != nil {
		return nil, err
	}

	key, err := s.vault.Recover(account.EncryptedSecret, account.Address, req.Password)
	if err != nil {
		return nil, newError(KindAuthentication, "cannot decrypt secret")
	}
	defer key.Zero()

	balance, err := s.gw.Balance(ctx, account.Address)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(req.Amount) < 0 {
		return nil, newError(KindInsufficientFunds, "balance %s below amount %s", balance, req.Amount)
	}

	stx, gasPrice, gasLimit, err := s.signAndSubmit(ctx, account.Address, key, req.To, req.Amount, nil, req.GasPrice, req.GasLimit)
	if err != nil {
		return nil, err
	}

	record := &ledger.Transfer{
		TxHash:    stx.Hash,
		Account:   account.Address,
		From:      account.Address,
		To:        req.To,
		Amount:    new(big.Int).Set(req.Amount),
		GasPrice:  gasPrice,
		GasLimit:  gasLimit,
		Status:    ledger.TransferPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateTransfer(record); err != nil {
		return nil, err
	}
	log.Wallet.Info().
		Stringer("tx", record.TxHash).
		Stringer("to", req.To).
		Str("amount", req.Amount.String()).
		Msg("transfer submitted")
	return record, nil
}

// CallRequest describes a contract function call.
type CallRequest struct {
	Account  types.Address
	Contract types.Address
	Function string
	Args     []string
	Value    *big.Int
	Password []byte
	GasPrice *big.Int
	GasLimit uint64
}

// ExecuteContract signs and submits a state-changing contract call and
// records a PENDING interaction.
func (s *Service) ExecuteContract(ctx context.Context, req CallRequest) (*ledger.Interaction, error) {
	account, err := s.Account(req.Account)
	if err != nil {
		return nil, err
	}
	desc, err := s.registry.Lookup(req.Function)
	if err != nil {
		return nil, newError(KindValidation, "lookup function: %v", err)
	}
	input, err := desc.Encode(req.Args)
	if err != nil {
		return nil, newError(KindValidation, "encode %s: %v", req.Function, err)
	}

	key, err := s.vault.Recover(account.EncryptedSecret, account.Address, req.Password)
	if err != nil {
		return nil, newError(KindAuthentication, "cannot decrypt secret")
	}
	defer key.Zero()

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	stx, _, _, err := s.signAndSubmit(ctx, account.Address, key, req.Contract, value, input, req.GasPrice, req.GasLimit)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	hash := stx.Hash
	record := &ledger.Interaction{
		ID:        uuid.NewString(),
		Account:   account.Address,
		Contract:  req.Contract,
		Function:  desc.Name,
		Selector:  desc.Selector,
		Input:     input,
		TxHash:    &hash,
		Status:    ledger.InteractionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateInteraction(record); err != nil {
		return nil, err
	}
	log.Contract.Info().
		Str("function", desc.Name).
		Stringer("contract", req.Contract).
		Stringer("tx", hash).
		Msg("contract call submitted")
	return record, nil
}

// ReadContract performs a read-only contract call. No key material is
// touched; the decoded result and a SUCCESS interaction record (with
// no transaction id) are returned.
func (s *Service) ReadContract(ctx context.Context, req CallRequest) (string, *ledger.Interaction, error) {
	account, err := s.Account(req.Account)
	if err != nil {
		return "", nil, err
	}
	desc, err := s.registry.Lookup(req.Function)
	if err != nil {
		return "", nil, newError(KindValidation, "lookup function: %v", err)
	}
	input, err := desc.Encode(req.Args)
	if err != nil {
		return "", nil, newError(KindValidation, "encode %s: %v", req.Function, err)
	}

	output, err := s.gw.CallContract(ctx, account.Address, req.Contract, input)
	if err != nil {
		return "", nil, err
	}
	decoded, err := desc.Decode(output)
	if err != nil {
		return "", nil, newError(KindValidation, "decode %s result: %v", req.Function, err)
	}

	now := time.Now().UTC()
	record := &ledger.Interaction{
		ID:        uuid.NewString(),
		Account:   account.Address,
		Contract:  req.Contract,
		Function:  desc.Name,
		Selector:  desc.Selector,
		Input:     input,
		Output:    output,
		Status:    ledger.InteractionSuccess,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateInteraction(record); err != nil {
		return "", nil, err
	}
	return decoded, record, nil
}

// signAndSubmit runs the serialized nonce -> sign -> submit window for
// one account and returns the signed transaction plus the fee
// parameters actually used.
func (s *Service) signAndSubmit(ctx context.Context, from types.Address, key *crypto.PrivateKey, to types.Address, value *big.Int, data []byte, gasPrice *big.Int, gasLimit uint64) (*tx.SignedTx, *big.Int, uint64, error) {
	lock := s.lockFor(from)
	lock.Lock()
	defer lock.Unlock()

	nonce, err := s.gw.NextNonce(ctx, from)
	if err != nil {
		return nil, nil, 0, err
	}
	if gasPrice == nil {
		gasPrice, err = s.gw.FeePrice(ctx)
		if err != nil {
			return nil, nil, 0, err
		}
	}
	if gasLimit == 0 {
		gasLimit, err = s.gw.EstimateFeeLimit(ctx, from, to, value, data)
		if err != nil {
			return nil, nil, 0, err
		}
	}

	var utx *tx.UnsignedTx
	if len(data) == 0 {
		utx = tx.NewTransfer(nonce, gasPrice, gasLimit, to, value)
	} else {
		utx = tx.NewContractCall(nonce, gasPrice, gasLimit, to, value, data)
	}

	stx, err := tx.Sign(utx, key, s.chainID)
	if err != nil {
		return nil, nil, 0, err
	}

	if _, err := s.gw.Submit(ctx, stx.Raw); err != nil {
		// A transport failure after broadcast is ambiguous: the node
		// may have the transaction anyway. Check before surfacing,
		// otherwise a blind retry would burn a second nonce.
		var netErr *gateway.NetworkError
		if errors.As(err, &netErr) {
			if summary, lookupErr := s.gw.Lookup(ctx, stx.Hash); lookupErr == nil && summary != nil {
				log.Wallet.Warn().
					Stringer("tx", stx.Hash).
					Msg("submit failed but transaction landed on node")
				return stx, gasPrice, gasLimit, nil
			}
		}
		return nil, nil, 0, err
	}
	return stx, gasPrice, gasLimit, nil
}

// CancelTransfer marks a PENDING transfer CANCELLED. This is local
// bookkeeping only; it does not stop a transaction already broadcast.
func (s *Service) CancelTransfer(hash types.Hash) (*ledger.Transfer, error) {
	record, err := s.store.Transfer(hash)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, newError(KindNotFound, "transfer %s not found", hash)
	}
	if err != nil {
		return nil, err
	}
	if record.Status != ledger.TransferPending {
		return nil, newError(KindInvalidState, "transfer %s is %s, only PENDING can be cancelled", hash, record.Status)
	}
	record.Status = ledger.TransferCancelled
	if err := s.store.UpdateTransfer(record); err != nil {
		return nil, err
	}
	log.Wallet.Info().Stringer("tx", hash).Msg("transfer cancelled")
	return record, nil
}

// Transfers returns the account's transfer history.
func (s *Service) Transfers(addr types.Address) ([]*ledger.Transfer, error) {
	if _, err := s.Account(addr); err != nil {
		return nil, err
	}
	return s.store.TransfersByAccount(addr)
}

// Interactions returns the account's contract interaction history.
func (s *Service) Interactions(addr types.Address) ([]*ledger.Interaction, error) {
	if _, err := s.Account(addr); err != nil {
		return nil, err
	}
	return s.store.InteractionsByAccount(addr)
}

// VerifyInteraction checks that the recorded input plus output of an
// interaction still matches the expected fingerprint.
func (s *Service) VerifyInteraction(id string, expected types.Hash) (bool, error) {
	record, err := s.store.Interaction(id)
	if errors.Is(err, ledger.ErrNotFound) {
		return false, newError(KindNotFound, "interaction %s not found", id)
	}
	if err != nil {
		return false, err
	}
	data := make([]byte, 0, len(record.Input)+len(record.Output))
	data = append(data, record.Input...)
	data = append(data, record.Output...)
	return crypto.VerifyFingerprint(data, expected), nil
}

// InteractionFingerprint computes the current fingerprint of an
// interaction's recorded input plus output.
func (s *Service) InteractionFingerprint(id string) (types.Hash, error) {
	record, err := s.store.Interaction(id)
	if errors.Is(err, ledger.ErrNotFound) {
		return types.Hash{}, newError(KindNotFound, "interaction %s not found", id)
	}
	if err != nil {
		return types.Hash{}, err
	}
	data := make([]byte, 0, len(record.Input)+len(record.Output))
	data = append(data, record.Input...)
	data = append(data, record.Output...)
	return crypto.Fingerprint(data), nil
}

// looksLikeMnemonic distinguishes a pasted mnemonic from a hex secret:
// mnemonics contain spaces, hex strings never do.
func looksLikeMnemonic(s string) bool {
	return strings.ContainsRune(strings.TrimSpace(s), ' ')
}
