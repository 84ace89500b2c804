package sheets

import (
	"context"

	"finanzas/internal/core"
)

// Ports for the spreadsheet mirror. Rows are keyed by transaction ID, so both
// operations are idempotent and safe to retry from a redelivered event.
type (
	RowWriter interface {
		// Upsert writes tx, replacing the existing row with the same ID.
		Upsert(ctx context.Context, tx core.Transaction) error
		// Delete removes the row for id. A missing row is not an error.
		Delete(ctx context.Context, id string) error
	}
)

// Header is the first row of the mirror sheet.
var Header = []any{"id", "date", "kind", "category", "description", "amount"}

// Row renders tx in sheet column order. Amounts are plain decimals so the
// sheet can sum them.
func Row(tx core.Transaction) []any {
	return []any{
		tx.ID,
		tx.Date.String(),
		string(tx.Kind),
		tx.Category.Describe(tx.Kind).Label,
		tx.Description,
		tx.Amount.Money().String(),
	}
}
