// Package services holds the application use cases: owner-scoped transaction
// management, recurring materialisation and loan simulations.
package services

import (
	"context"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/loan"
)

//go:generate mockgen -destination=mocks/mock_services.go -package=mocks -source=interface.go

// TransactionStore is the persistence the transaction service depends on.
type TransactionStore interface {
	Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	Update(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	Delete(ctx context.Context, ownerID, id string) error
	Get(ctx context.Context, ownerID, id string) (core.Transaction, error)
	List(ctx context.Context, ownerID string, f ledger.Filter) ([]core.Transaction, error)
}

// EventPublisher announces transaction changes to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev amqp.TransactionEvent) error
}

type SimulationStore interface {
	SaveSimulation(ctx context.Context, s loan.Saved) (loan.Saved, error)
	ListSimulations(ctx context.Context, ownerID string) ([]loan.Saved, error)
	DeleteSimulation(ctx context.Context, ownerID, id string) error
}
