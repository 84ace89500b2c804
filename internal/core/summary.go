package core

import (
	"fmt"
	"sort"
)

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month int // 1-12
}

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
}

// MonthlyPoint is one entry of the month-over-month trend.
type MonthlyPoint struct {
	Month   MonthKey `json:"month"`
	Income  Money    `json:"income"`
	Expense Money    `json:"expense"`
	Balance Money    `json:"balance"`
}

// FinancialSummary is derived from a transaction list and never persisted.
type FinancialSummary struct {
	TotalIncome       Money              `json:"total_income"`
	TotalExpense      Money              `json:"total_expense"`
	Balance           Money              `json:"balance"`
	IncomeCount       int                `json:"income_count"`
	ExpenseCount      int                `json:"expense_count"`
	CategoryBreakdown map[Category]Money `json:"category_breakdown"`
	MonthlyTrend      []MonthlyPoint     `json:"monthly_trend"`
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}

// Before reports whether k is an earlier month than o.
func (k MonthKey) Before(o MonthKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}

func (k MonthKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// SortedBreakdown returns the category breakdown ordered by amount descending,
// ties broken by category key.
func (s FinancialSummary) SortedBreakdown() []CategoryAmount {
	out := make([]CategoryAmount, 0, len(s.CategoryBreakdown))
	for c, m := range s.CategoryBreakdown {
		out = append(out, CategoryAmount{Category: c, Amount: m})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}
