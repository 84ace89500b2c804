package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/loan"
)

func expense(owner string, cents int64, date core.Date) core.Transaction {
	return core.Transaction{
		OwnerID:     owner,
		Kind:        core.Expense,
		Description: "gasto",
		Amount:      core.Cents(cents),
		Category:    core.Alimentacion,
		Date:        date,
	}
}

func TestStoreCRUDIsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Create(ctx, expense("alice", 100, core.NewDate(2025, 1, 2)))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = s.Get(ctx, "bob", created.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	other := created
	other.OwnerID = "bob"
	_, err = s.Update(ctx, other)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "bob", created.ID), ledger.ErrNotFound)

	created.Description = "supermercado"
	updated, err := s.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "supermercado", updated.Description)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	require.NoError(t, s.Delete(ctx, "alice", created.ID))
	_, err = s.Get(ctx, "alice", created.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestStoreRejectsInvalid(t *testing.T) {
	_, err := New().Create(context.Background(), expense("alice", 0, core.NewDate(2025, 1, 2)))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestStoreListFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	s := New()
	n := s.Seed(ctx, "alice", []core.Transaction{
		expense("", 300, core.NewDate(2025, 3, 1)),
		expense("", 100, core.NewDate(2025, 1, 1)),
		expense("", 200, core.NewDate(2025, 2, 1)),
		{Kind: core.Income, Description: "nómina", Amount: core.Cents(5000), Category: core.Salario, Date: core.NewDate(2025, 2, 1)},
		expense("", -1, core.NewDate(2025, 2, 1)),
	})
	assert.Equal(t, 4, n)
	_, err := s.Create(ctx, expense("bob", 999, core.NewDate(2025, 2, 1)))
	require.NoError(t, err)

	all, err := s.List(ctx, "alice", ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, int64(100), all[0].Amount.Cents)
	assert.Equal(t, int64(300), all[3].Amount.Cents)

	feb, err := s.List(ctx, "alice", ledger.Filter{Kind: core.Expense, From: core.NewDate(2025, 2, 1), To: core.NewDate(2025, 2, 28)})
	require.NoError(t, err)
	require.Len(t, feb, 1)
	assert.Equal(t, int64(200), feb[0].Amount.Cents)

	none, err := s.List(ctx, "carol", ledger.Filter{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestStoreRecurring(t *testing.T) {
	ctx := context.Background()
	s := New()
	tpl := expense("alice", 1200, core.NewDate(2025, 1, 5))
	tpl.IsRecurring = true
	tpl.RecurrenceIntervalDays = 30
	tpl, err := s.Create(ctx, tpl)
	require.NoError(t, err)
	_, err = s.Create(ctx, expense("alice", 50, core.NewDate(2025, 1, 5)))
	require.NoError(t, err)

	rec, err := s.ListRecurring(ctx)
	require.NoError(t, err)
	require.Len(t, rec, 1)
	assert.True(t, rec[0].LastOccurrence.IsZero())

	require.NoError(t, s.MarkOccurrence(ctx, "alice", tpl.ID, core.NewDate(2025, 2, 4)))
	got, err := s.Get(ctx, "alice", tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-04", got.LastOccurrence.String())
	assert.ErrorIs(t, s.MarkOccurrence(ctx, "bob", tpl.ID, core.NewDate(2025, 3, 1)), ledger.ErrNotFound)
}

func TestStoreSimulations(t *testing.T) {
	ctx := context.Background()
	s := New()
	tick := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { tick = tick.Add(time.Minute); return tick }

	first, err := s.SaveSimulation(ctx, loan.Saved{OwnerID: "alice", Name: "coche", Principal: decimal.NewFromInt(15000), TermMonths: 48})
	require.NoError(t, err)
	second, err := s.SaveSimulation(ctx, loan.Saved{OwnerID: "alice", Name: "casa", Principal: decimal.NewFromInt(200000), TermMonths: 360})
	require.NoError(t, err)

	list, err := s.ListSimulations(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	assert.ErrorIs(t, s.DeleteSimulation(ctx, "bob", first.ID), ledger.ErrNotFound)
	require.NoError(t, s.DeleteSimulation(ctx, "alice", first.ID))
	list, _ = s.ListSimulations(ctx, "alice")
	assert.Len(t, list, 1)
}
