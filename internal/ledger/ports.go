// Package ledger defines the persistence ports for transactions and saved loan
// simulations. Every operation is scoped to an owner.
package ledger

import (
	"context"
	"errors"

	"finanzas/internal/core"
	"finanzas/internal/loan"
)

// ErrNotFound is returned for missing records and for records owned by
// someone else.
var ErrNotFound = errors.New("not found")

// Filter narrows List results. Zero values match everything; From and To are
// inclusive.
type Filter struct {
	Kind core.Kind
	From core.Date
	To   core.Date
}

// Match reports whether tx passes the filter.
func (f Filter) Match(tx core.Transaction) bool {
	if f.Kind != "" && tx.Kind != f.Kind {
		return false
	}
	if !f.From.IsZero() && tx.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && tx.Date.After(f.To) {
		return false
	}
	return true
}

type (
	TransactionWriter interface {
		// Create assigns ID and timestamps and returns the stored record.
		Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		Update(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		Delete(ctx context.Context, ownerID, id string) error
	}

	TransactionReader interface {
		Get(ctx context.Context, ownerID, id string) (core.Transaction, error)
		// List returns the owner's transactions ordered by date, then creation.
		List(ctx context.Context, ownerID string, f Filter) ([]core.Transaction, error)
	}

	// RecurringSource feeds the recurring processor across all owners.
	RecurringSource interface {
		ListRecurring(ctx context.Context) ([]core.Transaction, error)
		MarkOccurrence(ctx context.Context, ownerID, id string, last core.Date) error
	}

	SimulationStore interface {
		SaveSimulation(ctx context.Context, s loan.Saved) (loan.Saved, error)
		ListSimulations(ctx context.Context, ownerID string) ([]loan.Saved, error)
		DeleteSimulation(ctx context.Context, ownerID, id string) error
	}

	Store interface {
		TransactionWriter
		TransactionReader
		RecurringSource
		SimulationStore
		Ping(ctx context.Context) error
		Close() error
	}
)
