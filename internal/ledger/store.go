package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethervault/ethervault/internal/storage"
	"github.com/ethervault/ethervault/pkg/types"
)

// Storage key prefixes.
const (
	accountPrefix     = "acct:"
	transferPrefix    = "xfer:"
	interactionPrefix = "itx:"
)

var (
	// ErrNotFound is returned when no record exists for the key.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateAccount is returned when an account with the same
	// address already exists.
	ErrDuplicateAccount = errors.New("account address already exists")

	// ErrTerminalStatus is returned on an attempt to change a record
	// whose status is already terminal.
	ErrTerminalStatus = errors.New("record status is terminal")
)

// Store persists ledger records as JSON values in a key-value DB.
// Records are append-only: transfers and interactions are never deleted,
// and a terminal status is never overwritten.
type Store struct {
	db storage.DB
}

// NewStore creates a record store over the given database.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

func accountKey(addr types.Address) []byte {
	return []byte(accountPrefix + addr.String())
}

func transferKey(hash types.Hash) []byte {
	return []byte(transferPrefix + hash.String())
}

func interactionKey(id string) []byte {
	return []byte(interactionPrefix + id)
}

// CreateAccount stores a new account. The address must be unused.
func (s *Store) CreateAccount(a *Account) error {
	key := accountKey(a.Address)
	exists, err := s.db.Has(key)
	if err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if exists {
		return ErrDuplicateAccount
	}
	return s.put(key, a)
}

// UpdateAccount rewrites an existing account record.
func (s *Store) UpdateAccount(a *Account) error {
	key := accountKey(a.Address)
	exists, err := s.db.Has(key)
	if err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return s.put(key, a)
}

// Account loads an account by address.
func (s *Store) Account(addr types.Address) (*Account, error) {
	var a Account
	if err := s.get(accountKey(addr), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Accounts returns all stored accounts, active or not.
func (s *Store) Accounts() ([]*Account, error) {
	var out []*Account
	err := s.db.ForEach([]byte(accountPrefix), func(_, value []byte) error {
		var a Account
		if err := json.Unmarshal(value, &a); err != nil {
			return fmt.Errorf("decode account: %w", err)
		}
		out = append(out, &a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTransfer stores a new transfer record.
func (s *Store) CreateTransfer(t *Transfer) error {
	return s.put(transferKey(t.TxHash), t)
}

// Transfer loads a transfer by transaction id.
func (s *Store) Transfer(hash types.Hash) (*Transfer, error) {
	var t Transfer
	if err := s.get(transferKey(hash), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTransfer rewrites a transfer record. Terminal states are
// immutable: once a transfer left PENDING its status never changes,
// which makes monitor re-runs idempotent.
func (s *Store) UpdateTransfer(t *Transfer) error {
	existing, err := s.Transfer(t.TxHash)
	if err != nil {
		return err
	}
	if existing.Status.Terminal() && existing.Status != t.Status {
		return ErrTerminalStatus
	}
	return s.put(transferKey(t.TxHash), t)
}

// TransfersByAccount returns all transfers owned by the account.
func (s *Store) TransfersByAccount(addr types.Address) ([]*Transfer, error) {
	all, err := s.transfers(func(t *Transfer) bool { return t.Account == addr })
	if err != nil {
		return nil, err
	}
	return all, nil
}

// PendingTransfers returns every transfer still in PENDING state.
func (s *Store) PendingTransfers() ([]*Transfer, error) {
	return s.transfers(func(t *Transfer) bool { return t.Status == TransferPending })
}

func (s *Store) transfers(keep func(*Transfer) bool) ([]*Transfer, error) {
	var out []*Transfer
	err := s.db.ForEach([]byte(transferPrefix), func(_, value []byte) error {
		var t Transfer
		if err := json.Unmarshal(value, &t); err != nil {
			return fmt.Errorf("decode transfer: %w", err)
		}
		if keep(&t) {
			out = append(out, &t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateInteraction stores a new interaction record.
func (s *Store) CreateInteraction(i *Interaction) error {
	return s.put(interactionKey(i.ID), i)
}

// Interaction loads an interaction by id.
func (s *Store) Interaction(id string) (*Interaction, error) {
	var i Interaction
	if err := s.get(interactionKey(id), &i); err != nil {
		return nil, err
	}
	return &i, nil
}

// UpdateInteraction rewrites an interaction record, with the same
// terminal-immutability guard as transfers.
func (s *Store) UpdateInteraction(i *Interaction) error {
	existing, err := s.Interaction(i.ID)
	if err != nil {
		return err
	}
	if existing.Status.Terminal() && existing.Status != i.Status {
		return ErrTerminalStatus
	}
	return s.put(interactionKey(i.ID), i)
}

// InteractionsByAccount returns all interactions owned by the account.
func (s *Store) InteractionsByAccount(addr types.Address) ([]*Interaction, error) {
	return s.interactions(func(i *Interaction) bool { return i.Account == addr })
}

// PendingInteractions returns every interaction still in PENDING state.
func (s *Store) PendingInteractions() ([]*Interaction, error) {
	return s.interactions(func(i *Interaction) bool { return i.Status == InteractionPending })
}

func (s *Store) interactions(keep func(*Interaction) bool) ([]*Interaction, error) {
	var out []*Interaction
	err := s.db.ForEach([]byte(interactionPrefix), func(_, value []byte) error {
		var i Interaction
		if err := json.Unmarshal(value, &i); err != nil {
			return fmt.Errorf("decode interaction: %w", err)
		}
		if keep(&i) {
			out = append(out, &i)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) put(key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.db.Put(key, data); err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	return nil
}

func (s *Store) get(key []byte, v interface{}) error {
	data, err := s.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
