// Package summary turns transaction lists into financial summaries.
//
// Summarize is pure: it performs no I/O, keeps no state and is safe to call
// concurrently. Scoping the input to one owner is the caller's job.
package summary

import (
	"fmt"
	"sort"

	"finanzas/internal/core"
)

// Anomaly describes a record that was skipped during summarization.
type Anomaly struct {
	Index         int    `json:"index"`
	TransactionID string `json:"transaction_id,omitempty"`
	Reason        string `json:"reason"`
}

func (a Anomaly) String() string {
	return fmt.Sprintf("record %d (%s): %s", a.Index, a.TransactionID, a.Reason)
}

// Summarize computes totals, the expense category breakdown and the monthly
// trend. Records with a missing or non-positive amount, an unknown kind or no
// date are skipped and reported as anomalies; they never abort the run.
func Summarize(txs []core.Transaction) (core.FinancialSummary, []Anomaly) {
	s := core.FinancialSummary{
		CategoryBreakdown: make(map[core.Category]core.Money),
		MonthlyTrend:      []core.MonthlyPoint{},
	}
	var anomalies []Anomaly
	months := make(map[core.MonthKey]*core.MonthlyPoint)

	for i, tx := range txs {
		if reason := skipReason(tx); reason != "" {
			anomalies = append(anomalies, Anomaly{Index: i, TransactionID: tx.ID, Reason: reason})
			continue
		}

		amount := tx.Amount.Money()
		key := tx.Date.Key()
		point, ok := months[key]
		if !ok {
			point = &core.MonthlyPoint{Month: key}
			months[key] = point
		}

		switch tx.Kind {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(amount)
			s.IncomeCount++
			point.Income = point.Income.Add(amount)
		case core.Expense:
			s.TotalExpense = s.TotalExpense.Add(amount)
			s.ExpenseCount++
			point.Expense = point.Expense.Add(amount)
			s.CategoryBreakdown[tx.Category] = s.CategoryBreakdown[tx.Category].Add(amount)
		}
	}

	s.Balance = s.TotalIncome.Sub(s.TotalExpense)

	keys := make([]core.MonthKey, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	for _, k := range keys {
		p := months[k]
		p.Balance = p.Income.Sub(p.Expense)
		s.MonthlyTrend = append(s.MonthlyTrend, *p)
	}

	return s, anomalies
}

func skipReason(tx core.Transaction) string {
	switch {
	case !tx.Amount.Valid && tx.Amount.Raw == "":
		return "missing amount"
	case !tx.Amount.Valid:
		return fmt.Sprintf("non-numeric amount %q", tx.Amount.Raw)
	case tx.Amount.Cents <= 0:
		return "non-positive amount"
	case !tx.Kind.Valid():
		return fmt.Sprintf("unknown kind %q", tx.Kind)
	case tx.Date.IsZero():
		return "missing date"
	}
	return ""
}

// Filter keeps transactions dated within [from, to]; zero bounds are open.
func Filter(txs []core.Transaction, from, to core.Date) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !from.IsZero() && tx.Date.Before(from) {
			continue
		}
		if !to.IsZero() && tx.Date.After(to) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
