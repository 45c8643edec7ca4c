package ledger

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethervault/ethervault/internal/storage"
	"github.com/ethervault/ethervault/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(storage.NewMemory())
}

func addr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func hash(b byte) types.Hash {
	var h types.Hash
	h[31] = b
	return h
}

func testAccount(b byte) *Account {
	now := time.Now().UTC()
	return &Account{
		Address:         addr(b),
		Name:            "acct",
		EncryptedSecret: "blob",
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func testTransfer(b byte) *Transfer {
	return &Transfer{
		TxHash:    hash(b),
		Account:   addr(1),
		From:      addr(1),
		To:        addr(2),
		Amount:    big.NewInt(1000),
		GasPrice:  big.NewInt(5),
		GasLimit:  21000,
		Status:    TransferPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestCreateAndLoadAccount(t *testing.T) {
	s := testStore(t)
	a := testAccount(1)

	if err := s.CreateAccount(a); err != nil {
		t.Fatalf("CreateAccount() error: %v", err)
	}

	loaded, err := s.Account(a.Address)
	if err != nil {
		t.Fatalf("Account() error: %v", err)
	}
	if loaded.Name != a.Name || loaded.EncryptedSecret != a.EncryptedSecret {
		t.Error("loaded account does not match stored account")
	}
}

func TestCreateDuplicateAccount(t *testing.T) {
	s := testStore(t)
	if err := s.CreateAccount(testAccount(1)); err != nil {
		t.Fatalf("first CreateAccount() error: %v", err)
	}
	err := s.CreateAccount(testAccount(1))
	if !errors.Is(err, ErrDuplicateAccount) {
		t.Errorf("second CreateAccount() = %v, want ErrDuplicateAccount", err)
	}
}

func TestUpdateMissingAccount(t *testing.T) {
	s := testStore(t)
	err := s.UpdateAccount(testAccount(9))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateAccount() for unknown address = %v, want ErrNotFound", err)
	}
}

func TestAccountsListsAll(t *testing.T) {
	s := testStore(t)
	for b := byte(1); b <= 3; b++ {
		if err := s.CreateAccount(testAccount(b)); err != nil {
			t.Fatalf("CreateAccount(%d) error: %v", b, err)
		}
	}
	all, err := s.Accounts()
	if err != nil {
		t.Fatalf("Accounts() error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Accounts() returned %d, want 3", len(all))
	}
}

func TestTransferRoundtrip(t *testing.T) {
	s := testStore(t)
	tr := testTransfer(1)

	if err := s.CreateTransfer(tr); err != nil {
		t.Fatalf("CreateTransfer() error: %v", err)
	}
	loaded, err := s.Transfer(tr.TxHash)
	if err != nil {
		t.Fatalf("Transfer() error: %v", err)
	}
	if loaded.Amount.Cmp(tr.Amount) != 0 || loaded.Status != TransferPending {
		t.Error("loaded transfer does not match stored transfer")
	}
}

func TestTransferTerminalImmutability(t *testing.T) {
	s := testStore(t)
	tr := testTransfer(1)
	if err := s.CreateTransfer(tr); err != nil {
		t.Fatalf("CreateTransfer() error: %v", err)
	}

	tr.Status = TransferConfirmed
	tr.BlockNumber = 100
	if err := s.UpdateTransfer(tr); err != nil {
		t.Fatalf("UpdateTransfer() to CONFIRMED error: %v", err)
	}

	tr.Status = TransferFailed
	err := s.UpdateTransfer(tr)
	if !errors.Is(err, ErrTerminalStatus) {
		t.Errorf("UpdateTransfer() CONFIRMED->FAILED = %v, want ErrTerminalStatus", err)
	}

	// A terminal record may still be rewritten without a status change.
	tr.Status = TransferConfirmed
	tr.GasUsed = 21000
	if err := s.UpdateTransfer(tr); err != nil {
		t.Errorf("UpdateTransfer() same terminal status error: %v", err)
	}
}

func TestPendingTransfers(t *testing.T) {
	s := testStore(t)

	pending := testTransfer(1)
	if err := s.CreateTransfer(pending); err != nil {
		t.Fatalf("CreateTransfer() error: %v", err)
	}
	done := testTransfer(2)
	done.Status = TransferConfirmed
	if err := s.CreateTransfer(done); err != nil {
		t.Fatalf("CreateTransfer() error: %v", err)
	}

	got, err := s.PendingTransfers()
	if err != nil {
		t.Fatalf("PendingTransfers() error: %v", err)
	}
	if len(got) != 1 || got[0].TxHash != pending.TxHash {
		t.Errorf("PendingTransfers() returned %d records, want only the pending one", len(got))
	}
}

func TestTransfersByAccount(t *testing.T) {
	s := testStore(t)

	mine := testTransfer(1)
	if err := s.CreateTransfer(mine); err != nil {
		t.Fatalf("CreateTransfer() error: %v", err)
	}
	theirs := testTransfer(2)
	theirs.Account = addr(7)
	if err := s.CreateTransfer(theirs); err != nil {
		t.Fatalf("CreateTransfer() error: %v", err)
	}

	got, err := s.TransfersByAccount(addr(1))
	if err != nil {
		t.Fatalf("TransfersByAccount() error: %v", err)
	}
	if len(got) != 1 || got[0].TxHash != mine.TxHash {
		t.Error("TransfersByAccount() must only return the account's own transfers")
	}
}

func TestInteractionLifecycle(t *testing.T) {
	s := testStore(t)
	txh := hash(5)
	now := time.Now().UTC()
	i := &Interaction{
		ID:        "itx-1",
		Account:   addr(1),
		Contract:  addr(3),
		Function:  "transfer",
		Input:     []byte{0xa9, 0x05, 0x9c, 0xbb},
		TxHash:    &txh,
		Status:    InteractionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.CreateInteraction(i); err != nil {
		t.Fatalf("CreateInteraction() error: %v", err)
	}

	pending, err := s.PendingInteractions()
	if err != nil {
		t.Fatalf("PendingInteractions() error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("PendingInteractions() returned %d, want 1", len(pending))
	}

	i.Status = InteractionSuccess
	if err := s.UpdateInteraction(i); err != nil {
		t.Fatalf("UpdateInteraction() to SUCCESS error: %v", err)
	}

	i.Status = InteractionFailed
	if err := s.UpdateInteraction(i); !errors.Is(err, ErrTerminalStatus) {
		t.Errorf("UpdateInteraction() SUCCESS->FAILED = %v, want ErrTerminalStatus", err)
	}

	byAccount, err := s.InteractionsByAccount(addr(1))
	if err != nil {
		t.Fatalf("InteractionsByAccount() error: %v", err)
	}
	if len(byAccount) != 1 || byAccount[0].ID != "itx-1" {
		t.Error("InteractionsByAccount() must return the stored interaction")
	}
}

func TestStatusTerminal(t *testing.T) {
	transferCases := map[TransferStatus]bool{
		TransferPending:   false,
		TransferConfirmed: true,
		TransferFailed:    true,
		TransferCancelled: true,
	}
	for status, want := range transferCases {
		if status.Terminal() != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, !want, want)
		}
	}

	interactionCases := map[InteractionStatus]bool{
		InteractionPending:  false,
		InteractionSuccess:  true,
		InteractionFailed:   true,
		InteractionReverted: true,
	}
	for status, want := range interactionCases {
		if status.Terminal() != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, !want, want)
		}
	}
}
