package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/log"
	"finanzas/internal/summary"
)

// TransactionService scopes every operation to the authenticated owner and
// announces changes on the event bus. Publishing is best effort: the store is
// the source of truth and a failed publish never fails the request.
type TransactionService struct {
	store  TransactionStore
	events EventPublisher
	logger *log.Logger
}

func NewTransactionService(store TransactionStore, events EventPublisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	return &TransactionService{
		store:  store,
		events: events,
		logger: logger.WithComponent(log.ComponentTransaction),
	}
}

func normalize(ownerID string, tx core.Transaction) core.Transaction {
	tx.OwnerID = ownerID
	tx.Description = strings.TrimSpace(tx.Description)
	tx.Notes = strings.TrimSpace(tx.Notes)
	if !tx.IsRecurring {
		tx.RecurrenceIntervalDays = 0
	}
	return tx
}

func (s *TransactionService) Create(ctx context.Context, ownerID string, tx core.Transaction) (core.Transaction, error) {
	tx = normalize(ownerID, tx)
	tx.ID = ""
	tx.LastOccurrence = core.Date{}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.Create(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction created", s.fields(created, log.OpCreate).ToSlice()...)
	s.publish(ctx, amqp.EventCreated, created.ID, ownerID, created.UpdatedAt)
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, ownerID, id string, tx core.Transaction) (core.Transaction, error) {
	tx = normalize(ownerID, tx)
	tx.ID = id
	// Only the recurring processor advances the occurrence marker; a zero
	// value tells the store to keep its own.
	tx.LastOccurrence = core.Date{}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.Update(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Transaction updated", s.fields(updated, log.OpUpdate).ToSlice()...)
	s.publish(ctx, amqp.EventUpdated, updated.ID, ownerID, updated.UpdatedAt)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldOwnerID, ownerID,
		log.FieldTransactionID, id,
		log.FieldOperation, log.OpDelete)
	s.publish(ctx, amqp.EventDeleted, id, ownerID, time.Now())
	return nil
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	tx, err := s.store.Get(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return tx, nil
}

func (s *TransactionService) List(ctx context.Context, ownerID string, f ledger.Filter) ([]core.Transaction, error) {
	txs, err := s.store.List(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Summary loads incomes and expenses in parallel and aggregates them.
// Skipped records are logged at warn level and returned to the caller.
func (s *TransactionService) Summary(ctx context.Context, ownerID string, from, to core.Date) (core.FinancialSummary, []summary.Anomaly, error) {
	var incomes, expenses []core.Transaction

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incomes, err = s.store.List(gctx, ownerID, ledger.Filter{Kind: core.Income, From: from, To: to})
		if err != nil {
			return fmt.Errorf("list incomes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		expenses, err = s.store.List(gctx, ownerID, ledger.Filter{Kind: core.Expense, From: from, To: to})
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.FinancialSummary{}, nil, err
	}

	all := make([]core.Transaction, 0, len(incomes)+len(expenses))
	all = append(all, incomes...)
	all = append(all, expenses...)

	sum, anomalies := summary.Summarize(all)
	for _, a := range anomalies {
		s.logger.WarnContext(ctx, "Skipped transaction while summarizing",
			log.FieldOwnerID, ownerID,
			log.FieldTransactionID, a.TransactionID,
			log.FieldReason, a.Reason,
			log.FieldOperation, log.OpSummarize)
	}
	return sum, anomalies, nil
}

func (s *TransactionService) publish(ctx context.Context, t amqp.EventType, id, ownerID string, at time.Time) {
	if s.events == nil {
		return
	}
	ev := amqp.NewTransactionEvent(t, id, ownerID, at.UnixNano())
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldTransactionID, id,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err.Error())
	}
}

func (s *TransactionService) fields(tx core.Transaction, op string) log.LogFields {
	return log.NewFields().
		WithOwner(tx.OwnerID).
		WithTransaction(tx.ID, string(tx.Kind), string(tx.Category), tx.Amount.Cents, tx.Date.String()).
		WithOperation(op)
}
