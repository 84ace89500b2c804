package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"finanzas/internal/core"
)

func TestRow(t *testing.T) {
	tests := []struct {
		name string
		tx   core.Transaction
		want []any
	}{
		{
			name: "expense",
			tx: core.Transaction{
				ID: "tx-1", Kind: core.Expense, Description: "Alquiler",
				Amount: core.Cents(80000), Category: core.Vivienda, Date: core.NewDate(2025, 1, 1),
			},
			want: []any{"tx-1", "2025-01-01", "expense", "Vivienda", "Alquiler", "800.00"},
		},
		{
			name: "income with cents",
			tx: core.Transaction{
				ID: "tx-2", Kind: core.Income, Description: "Factura",
				Amount: core.Cents(123405), Category: core.Freelance, Date: core.NewDate(2025, 2, 3),
			},
			want: []any{"tx-2", "2025-02-03", "income", "Freelance", "Factura", "1234.05"},
		},
		{
			name: "unknown category falls back to generic label",
			tx: core.Transaction{
				ID: "tx-3", Kind: core.Expense, Description: "Veterinario",
				Amount: core.Cents(5), Category: core.Category("mascotas"), Date: core.NewDate(2025, 2, 3),
			},
			want: []any{"tx-3", "2025-02-03", "expense", "Sin categoría", "Veterinario", "0.05"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Row(tt.tx))
		})
	}
	assert.Len(t, Header, 6)
}
