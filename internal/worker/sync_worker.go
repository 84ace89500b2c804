package worker

import (
	"context"
	"errors"
	"fmt"

	"finanzas/internal/amqp"
	"finanzas/internal/ledger"
	"finanzas/internal/log"
	"finanzas/internal/sheets"
)

// SyncWorker mirrors transaction events into a spreadsheet. Events only carry
// identifiers, so the current state is always read back from the store; a
// redelivered or out-of-order event therefore converges on the same row.
type SyncWorker struct {
	store  ledger.TransactionReader
	sheet  sheets.RowWriter
	logger *log.Logger
}

func NewSyncWorker(store ledger.TransactionReader, sheet sheets.RowWriter, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{store: store, sheet: sheet, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleEvent is an amqp.Handler.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev amqp.TransactionEvent) error {
	logger := w.logger.WithFields(log.NewFields().
		WithOwner(ev.OwnerID).
		WithOperation(log.OpSync)).
		With(log.FieldTransactionID, ev.ID, "event", string(ev.Type), "version", ev.Version)

	if ev.Type == amqp.EventDeleted {
		if err := w.sheet.Delete(ctx, ev.ID); err != nil {
			return fmt.Errorf("delete row: %w", err)
		}
		logger.InfoContext(ctx, "Transaction removed from sheet")
		return nil
	}

	tx, err := w.store.Get(ctx, ev.OwnerID, ev.ID)
	if errors.Is(err, ledger.ErrNotFound) {
		// Deleted after the event was published; the delete event follows.
		logger.InfoContext(ctx, "Transaction no longer exists, removing row")
		return w.sheet.Delete(ctx, ev.ID)
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}
	if v := tx.UpdatedAt.UnixNano(); v > ev.Version {
		logger.DebugContext(ctx, "Event is older than stored state, writing current state", "stored_version", v)
	}

	if err := w.sheet.Upsert(ctx, tx); err != nil {
		return fmt.Errorf("upsert row: %w", err)
	}
	logger.InfoContext(ctx, "Transaction mirrored to sheet",
		log.FieldAmountCents, tx.Amount.Cents,
		log.FieldDate, tx.Date.String())
	return nil
}

// Resync writes every transaction of ownerID to the sheet. It recovers from
// events lost while the broker or the worker was down.
func (w *SyncWorker) Resync(ctx context.Context, ownerID string) (int, error) {
	txs, err := w.store.List(ctx, ownerID, ledger.Filter{})
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}

	synced, failed := 0, 0
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.sheet.Upsert(ctx, tx); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mirror transaction",
				log.FieldTransactionID, tx.ID, log.FieldError, err)
			failed++
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Resync completed",
		log.FieldOwnerID, ownerID,
		"total", len(txs),
		"synced", synced,
		"errors", failed)
	if failed > 0 {
		return synced, fmt.Errorf("resync: %d of %d rows failed", failed, len(txs))
	}
	return synced, nil
}
