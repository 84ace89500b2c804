package services

import (
	"finanzas/internal/core"
)

// DuenessChecker decides which occurrences of a recurring template are due.
type DuenessChecker interface {
	// DueDates returns the occurrence dates up to and including today, oldest
	// first, at most limit of them.
	DueDates(tpl core.Transaction, today core.Date, limit int) []core.Date
}

// IntervalChecker repeats a template every RecurrenceIntervalDays. The
// template itself is the first occurrence; later ones are counted from the
// last materialised date, or from the template date when none exists yet.
type IntervalChecker struct{}

func (IntervalChecker) DueDates(tpl core.Transaction, today core.Date, limit int) []core.Date {
	if !tpl.IsRecurring || tpl.RecurrenceIntervalDays <= 0 || limit <= 0 || tpl.Date.IsZero() {
		return nil
	}
	anchor := tpl.Date
	if !tpl.LastOccurrence.IsZero() && tpl.LastOccurrence.After(anchor) {
		anchor = tpl.LastOccurrence
	}

	var out []core.Date
	for next := anchor.AddDays(tpl.RecurrenceIntervalDays); !next.After(today) && len(out) < limit; next = next.AddDays(tpl.RecurrenceIntervalDays) {
		out = append(out, next)
	}
	return out
}
