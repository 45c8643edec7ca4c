// Package monitor reconciles locally recorded PENDING transfers and
// interactions against the remote ledger and drives them to a terminal
// state.
package monitor

import (
	"context"
	"time"

	"github.com/ethervault/ethervault/internal/gateway"
	"github.com/ethervault/ethervault/internal/ledger"
	"github.com/ethervault/ethervault/internal/log"
)

// Default reconciliation parameters.
const (
	DefaultInterval = 30 * time.Second
	// DefaultDropAfter is how long an unseen transaction stays PENDING
	// before it is treated as dropped by the network. This is a
	// best-effort heuristic, not a ledger guarantee: a transaction can
	// confirm after being temporarily invisible to a query, and in
	// that case the local FAILED record is stale (terminal records are
	// never rewritten).
	DefaultDropAfter = 10 * time.Minute
)

// Monitor owns a background loop that reconciles pending records each
// tick. It is started and stopped explicitly. Per-record network
// errors are logged and retried on the next tick, never propagated.
type Monitor struct {
	store     *ledger.Store
	gw        gateway.ChainGateway
	interval  time.Duration
	dropAfter time.Duration
	now       func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a monitor. Zero interval or dropAfter select the defaults.
func New(store *ledger.Store, gw gateway.ChainGateway, interval, dropAfter time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if dropAfter <= 0 {
		dropAfter = DefaultDropAfter
	}
	return &Monitor{
		store:     store,
		gw:        gw,
		interval:  interval,
		dropAfter: dropAfter,
		now:       time.Now,
	}
}

// Start launches the reconciliation loop. It runs until Stop is called
// or the parent context is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		log.Monitor.Info().
			Dur("interval", m.interval).
			Dur("drop_after", m.dropAfter).
			Msg("confirmation monitor started")

		for {
			select {
			case <-ctx.Done():
				log.Monitor.Info().Msg("confirmation monitor stopped")
				return
			case <-ticker.C:
				m.Reconcile(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

// Reconcile runs one reconciliation pass over every pending record.
// Records are independent; a failure on one never blocks the rest, and
// re-running a pass over already-terminal records is a no-op.
func (m *Monitor) Reconcile(ctx context.Context) {
	transfers, err := m.store.PendingTransfers()
	if err != nil {
		log.Monitor.Error().Err(err).Msg("list pending transfers")
	} else {
		for _, t := range transfers {
			if err := m.reconcileTransfer(ctx, t); err != nil {
				log.Monitor.Warn().Err(err).Stringer("tx", t.TxHash).Msg("transfer reconciliation deferred")
			}
		}
	}

	interactions, err := m.store.PendingInteractions()
	if err != nil {
		log.Monitor.Error().Err(err).Msg("list pending interactions")
		return
	}
	for _, i := range interactions {
		if err := m.reconcileInteraction(ctx, i); err != nil {
			log.Monitor.Warn().Err(err).Str("id", i.ID).Msg("interaction reconciliation deferred")
		}
	}
}

// reconcileTransfer advances one transfer. Priority order is fixed:
// receipt, then mempool lookup, then the age-based drop heuristic.
func (m *Monitor) reconcileTransfer(ctx context.Context, t *ledger.Transfer) error {
	if t.Status.Terminal() {
		return nil
	}

	receipt, err := m.gw.Receipt(ctx, t.TxHash)
	if err != nil {
		return err
	}
	if receipt != nil {
		t.BlockNumber = receipt.BlockNumber
		t.TxIndex = receipt.Index
		t.GasUsed = receipt.FeeUsed
		if receipt.OK {
			t.Status = ledger.TransferConfirmed
			now := m.now().UTC()
			t.ConfirmedAt = &now
		} else {
			t.Status = ledger.TransferFailed
		}
		if err := m.store.UpdateTransfer(t); err != nil {
			return err
		}
		log.Monitor.Info().
			Stringer("tx", t.TxHash).
			Str("status", string(t.Status)).
			Uint64("block", t.BlockNumber).
			Msg("transfer settled")
		return nil
	}

	summary, err := m.gw.Lookup(ctx, t.TxHash)
	if err != nil {
		return err
	}
	if summary != nil {
		// Known to the node but not mined yet. Leave PENDING.
		return nil
	}

	if m.now().Sub(t.CreatedAt) > m.dropAfter {
		t.Status = ledger.TransferFailed
		if err := m.store.UpdateTransfer(t); err != nil {
			return err
		}
		log.Monitor.Warn().
			Stringer("tx", t.TxHash).
			Msg("transfer not found on network, marked failed")
	}
	return nil
}

// reconcileInteraction advances one contract interaction using the same
// receipt -> lookup -> drop priority. A failed receipt means the call
// REVERTED; a vanished transaction means the submission FAILED.
func (m *Monitor) reconcileInteraction(ctx context.Context, i *ledger.Interaction) error {
	if i.Status.Terminal() || i.TxHash == nil {
		return nil
	}
	txHash := *i.TxHash

	receipt, err := m.gw.Receipt(ctx, txHash)
	if err != nil {
		return err
	}
	if receipt != nil {
		if receipt.OK {
			i.Status = ledger.InteractionSuccess
			if len(i.Output) == 0 && len(receipt.Logs) > 0 {
				i.Output = receipt.Logs
			}
		} else {
			i.Status = ledger.InteractionReverted
		}
		i.UpdatedAt = m.now().UTC()
		if err := m.store.UpdateInteraction(i); err != nil {
			return err
		}
		log.Monitor.Info().
			Str("id", i.ID).
			Str("status", string(i.Status)).
			Msg("interaction settled")
		return nil
	}

	summary, err := m.gw.Lookup(ctx, txHash)
	if err != nil {
		return err
	}
	if summary != nil {
		return nil
	}

	if m.now().Sub(i.CreatedAt) > m.dropAfter {
		i.Status = ledger.InteractionFailed
		i.UpdatedAt = m.now().UTC()
		if err := m.store.UpdateInteraction(i); err != nil {
			return err
		}
		log.Monitor.Warn().Str("id", i.ID).Msg("interaction not found on network, marked failed")
	}
	return nil
}

// SetNow overrides the clock. Tests only.
func (m *Monitor) SetNow(now func() time.Time) {
	m.now = now
}
