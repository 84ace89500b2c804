package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/services"
	mock_services "finanzas/internal/services/mocks"
)

func groceries() core.Transaction {
	return core.Transaction{
		Kind:        core.Expense,
		Description: "  Supermercado  ",
		Amount:      core.Cents(4250),
		Category:    core.Alimentacion,
		Date:        core.NewDate(2025, 3, 14),
	}
}

func TestTransactionService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_services.NewMockTransactionStore(ctrl)
	events := mock_services.NewMockEventPublisher(ctrl)
	svc := services.NewTransactionService(store, events, nil)

	updatedAt := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	store.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx core.Transaction) (core.Transaction, error) {
			assert.Equal(t, "alice", tx.OwnerID)
			assert.Equal(t, "Supermercado", tx.Description)
			assert.Empty(t, tx.ID)
			tx.ID = "tx-1"
			tx.CreatedAt, tx.UpdatedAt = updatedAt, updatedAt
			return tx, nil
		})
	events.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev amqp.TransactionEvent) error {
			assert.Equal(t, amqp.EventCreated, ev.Type)
			assert.Equal(t, "tx-1", ev.ID)
			assert.Equal(t, "alice", ev.OwnerID)
			assert.Equal(t, updatedAt.UnixNano(), ev.Version)
			return nil
		})

	in := groceries()
	in.ID = "client-chosen"
	in.OwnerID = "mallory"
	got, err := svc.Create(context.Background(), "alice", in)
	require.NoError(t, err)
	assert.Equal(t, "tx-1", got.ID)
}

func TestTransactionService_CreateValidationSkipsStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_services.NewMockTransactionStore(ctrl)
	events := mock_services.NewMockEventPublisher(ctrl)
	svc := services.NewTransactionService(store, events, nil)

	tests := []struct {
		name   string
		mutate func(*core.Transaction)
		want   error
	}{
		{"zero amount", func(tx *core.Transaction) { tx.Amount = core.Cents(0) }, core.ErrInvalidAmount},
		{"blank description", func(tx *core.Transaction) { tx.Description = "   " }, core.ErrEmptyDescription},
		{"wrong category", func(tx *core.Transaction) { tx.Category = core.Salario }, core.ErrInvalidCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := groceries()
			tt.mutate(&tx)
			_, err := svc.Create(context.Background(), "alice", tx)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, core.IsValidationError(err))
		})
	}
}

func TestTransactionService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_services.NewMockTransactionStore(ctrl)
	events := mock_services.NewMockEventPublisher(ctrl)
	svc := services.NewTransactionService(store, events, nil)

	store.EXPECT().Delete(gomock.Any(), "alice", "tx-1").Return(nil)
	events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(amqp.ErrCircuitOpen)

	assert.NoError(t, svc.Delete(context.Background(), "alice", "tx-1"))
}

func TestTransactionService_NotFoundIsWrapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_services.NewMockTransactionStore(ctrl)
	svc := services.NewTransactionService(store, nil, nil)

	store.EXPECT().Get(gomock.Any(), "bob", "tx-1").Return(core.Transaction{}, ledger.ErrNotFound)
	store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(core.Transaction{}, ledger.ErrNotFound)
	store.EXPECT().Delete(gomock.Any(), "bob", "tx-1").Return(ledger.ErrNotFound)

	_, err := svc.Get(context.Background(), "bob", "tx-1")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = svc.Update(context.Background(), "bob", "tx-1", groceries())
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), "bob", "tx-1"), ledger.ErrNotFound)
}

func TestTransactionService_Summary(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_services.NewMockTransactionStore(ctrl)
	svc := services.NewTransactionService(store, nil, nil)

	from, to := core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31)
	store.EXPECT().
		List(gomock.Any(), "alice", ledger.Filter{Kind: core.Income, From: from, To: to}).
		Return([]core.Transaction{
			{ID: "i1", Kind: core.Income, Amount: core.Cents(300000), Category: core.Salario, Date: core.NewDate(2025, 1, 1)},
		}, nil)
	store.EXPECT().
		List(gomock.Any(), "alice", ledger.Filter{Kind: core.Expense, From: from, To: to}).
		Return([]core.Transaction{
			{ID: "e1", Kind: core.Expense, Amount: core.Cents(90000), Category: core.Vivienda, Date: core.NewDate(2025, 1, 2)},
			{ID: "e2", Kind: core.Expense, Amount: core.Amount{Raw: "n/a"}, Category: core.Ropa, Date: core.NewDate(2025, 1, 3)},
		}, nil)

	sum, anomalies, err := svc.Summary(context.Background(), "alice", from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), sum.TotalIncome.Cents)
	assert.Equal(t, int64(90000), sum.TotalExpense.Cents)
	assert.Equal(t, int64(210000), sum.Balance.Cents)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "e2", anomalies[0].TransactionID)
}

func TestTransactionService_SummaryPropagatesStoreErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_services.NewMockTransactionStore(ctrl)
	svc := services.NewTransactionService(store, nil, nil)

	boom := errors.New("database is locked")
	store.EXPECT().List(gomock.Any(), "alice", gomock.Any()).Return(nil, boom).AnyTimes()

	_, _, err := svc.Summary(context.Background(), "alice", core.Date{}, core.Date{})
	assert.ErrorIs(t, err, boom)
}
