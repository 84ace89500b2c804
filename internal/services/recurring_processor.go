package services

import (
	"context"
	"fmt"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/log"
)

// MaxCatchUp bounds how many missed occurrences one template may produce in a
// single run.
const MaxCatchUp = 31

type transactionCreator interface {
	Create(ctx context.Context, ownerID string, tx core.Transaction) (core.Transaction, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// RecurringProcessor materialises due occurrences of recurring templates as
// ordinary, non-recurring transactions.
type RecurringProcessor struct {
	source  ledger.RecurringSource
	creator transactionCreator
	checker DuenessChecker
	logger  *log.Logger
}

func NewRecurringProcessor(source ledger.RecurringSource, creator *TransactionService, logger *log.Logger) *RecurringProcessor {
	if logger == nil {
		logger = log.Discard()
	}
	return &RecurringProcessor{
		source:  source,
		creator: creator,
		checker: IntervalChecker{},
		logger:  logger.WithComponent(log.ComponentRecurring),
	}
}

// ProcessDue creates every occurrence due on or before now's calendar day and
// returns how many were created. A failing template is logged and skipped; its
// marker only advances past occurrences that were actually stored.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.source == nil || p.creator == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.source.ListRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring transactions: %w", err)
	}

	today := core.DateOf(now)
	p.logger.InfoContext(ctx, "Processing recurring transactions",
		log.FieldCount, len(templates),
		log.FieldDate, today.String())

	created := 0
	for _, tpl := range templates {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		n, err := p.materialise(ctx, tpl, today)
		created += n
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to materialise recurring transaction",
				log.FieldOwnerID, tpl.OwnerID,
				log.FieldTransactionID, tpl.ID,
				log.FieldError, err.Error())
		}
	}

	p.logger.InfoContext(ctx, "Recurring processing complete",
		"created", created,
		"templates", len(templates))
	return created, nil
}

func (p *RecurringProcessor) materialise(ctx context.Context, tpl core.Transaction, today core.Date) (int, error) {
	dates := p.checker.DueDates(tpl, today, MaxCatchUp)
	created := 0
	for _, due := range dates {
		occurrence := core.Transaction{
			Kind:        tpl.Kind,
			Description: tpl.Description,
			Amount:      tpl.Amount,
			Category:    tpl.Category,
			Date:        due,
			Notes:       tpl.Notes,
		}
		stored, err := p.creator.Create(ctx, tpl.OwnerID, occurrence)
		if err != nil {
			return created, fmt.Errorf("create occurrence %s: %w", due, err)
		}
		if err := p.source.MarkOccurrence(ctx, tpl.OwnerID, tpl.ID, due); err != nil {
			// The marker did not move, so the next run recreates this date.
			// Drop the row now; if that fails too the date ends up duplicated.
			if delErr := p.creator.Delete(ctx, tpl.OwnerID, stored.ID); delErr != nil {
				p.logger.ErrorContext(ctx, "Failed to roll back unmarked occurrence",
					log.FieldOwnerID, tpl.OwnerID,
					log.FieldTransactionID, stored.ID,
					log.FieldError, delErr.Error())
				return created + 1, fmt.Errorf("mark occurrence %s: %w", due, err)
			}
			return created, fmt.Errorf("mark occurrence %s: %w", due, err)
		}
		created++
	}
	if len(dates) == MaxCatchUp {
		p.logger.WarnContext(ctx, "Recurring catch-up capped",
			log.FieldTransactionID, tpl.ID,
			log.FieldCount, MaxCatchUp)
	}
	return created, nil
}
