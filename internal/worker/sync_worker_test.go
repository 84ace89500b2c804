package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/ledger/memory"
	sheetmem "finanzas/internal/sheets/memory"
)

func newTx(desc string, cents int64) core.Transaction {
	return core.Transaction{
		OwnerID:     "alice",
		Kind:        core.Expense,
		Description: desc,
		Amount:      core.Cents(cents),
		Category:    core.Transporte,
		Date:        core.NewDate(2025, 4, 2),
	}
}

func TestSyncWorker_HandleEvent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	sheet := sheetmem.New()
	w := NewSyncWorker(store, sheet, nil)

	tx, err := store.Create(ctx, newTx("Metro", 250))
	require.NoError(t, err)

	created := amqp.NewTransactionEvent(amqp.EventCreated, tx.ID, "alice", tx.UpdatedAt.UnixNano())
	require.NoError(t, w.HandleEvent(ctx, created))
	require.NoError(t, w.HandleEvent(ctx, created), "redelivery is idempotent")
	require.Len(t, sheet.Rows(), 1)
	assert.Equal(t, "2.50", sheet.Rows()[0][5])

	tx.Amount = core.Cents(300)
	tx, err = store.Update(ctx, tx)
	require.NoError(t, err)
	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventUpdated, tx.ID, "alice", tx.UpdatedAt.UnixNano())))
	require.Len(t, sheet.Rows(), 1)
	assert.Equal(t, "3.00", sheet.Rows()[0][5])

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventDeleted, tx.ID, "alice", 0)))
	assert.Empty(t, sheet.Rows())
}

func TestSyncWorker_MissingTransactionRemovesRow(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	sheet := sheetmem.New()
	w := NewSyncWorker(store, sheet, nil)

	tx, err := store.Create(ctx, newTx("Taxi", 1200))
	require.NoError(t, err)
	require.NoError(t, sheet.Upsert(ctx, tx))
	require.NoError(t, store.Delete(ctx, "alice", tx.ID))

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventUpdated, tx.ID, "alice", 1)))
	assert.Empty(t, sheet.Rows())
}

func TestSyncWorker_OwnerMismatchDoesNotLeak(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	sheet := sheetmem.New()
	w := NewSyncWorker(store, sheet, nil)

	tx, err := store.Create(ctx, newTx("Taxi", 1200))
	require.NoError(t, err)

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventCreated, tx.ID, "mallory", 1)))
	assert.Empty(t, sheet.Rows())
}

type failingSheet struct{ failID string }

func (f failingSheet) Upsert(_ context.Context, tx core.Transaction) error {
	if tx.ID == f.failID {
		return errors.New("quota exceeded")
	}
	return nil
}

func (failingSheet) Delete(context.Context, string) error { return nil }

func TestSyncWorker_Resync(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	a, err := store.Create(ctx, newTx("Metro", 250))
	require.NoError(t, err)
	_, err = store.Create(ctx, newTx("Bus", 150))
	require.NoError(t, err)

	sheet := sheetmem.New()
	n, err := NewSyncWorker(store, sheet, nil).Resync(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, sheet.Rows(), 2)

	n, err = NewSyncWorker(store, failingSheet{failID: a.ID}, nil).Resync(ctx, "alice")
	assert.Error(t, err)
	assert.Equal(t, 1, n)
}

func TestSyncWorker_SheetErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	tx, err := store.Create(ctx, newTx("Metro", 250))
	require.NoError(t, err)

	w := NewSyncWorker(store, failingSheet{failID: tx.ID}, nil)
	err = w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventCreated, tx.ID, "alice", 1))
	assert.ErrorContains(t, err, "quota exceeded")
}
