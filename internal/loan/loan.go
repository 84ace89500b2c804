// Package loan simulates fixed-installment (French system) loans.
//
// All arithmetic runs on shopspring/decimal at full precision; rounding to
// two places happens only in Rounded, at the presentation boundary.
package loan

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// PreviewPeriods is the number of installments shown by Preview.
	PreviewPeriods = 12

	// MaxTermMonths bounds the schedule length to keep responses finite.
	MaxTermMonths = 1200

	precision = 28
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("invalid loan parameters")

	one          = decimal.NewFromInt(1)
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
)

// ValidationError reports which simulation parameter was rejected.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %s: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Installment is one period of the amortization schedule.
type Installment struct {
	Period           int             `json:"period"`
	Payment          decimal.Decimal `json:"payment"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

type Simulation struct {
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	TermMonths        int             `json:"term_months"`
	MonthlyPayment    decimal.Decimal `json:"monthly_payment"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
	Schedule          []Installment   `json:"schedule"`
}

// Saved is a simulation the user chose to keep.
type Saved struct {
	ID                string          `json:"id"`
	OwnerID           string          `json:"owner_id"`
	Name              string          `json:"name"`
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	TermMonths        int             `json:"term_months"`
	MonthlyPayment    decimal.Decimal `json:"monthly_payment"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Simulate validates float inputs coming from a form and runs SimulateDecimal.
func Simulate(principal, annualRatePercent float64, termMonths int) (Simulation, error) {
	if math.IsNaN(principal) || math.IsInf(principal, 0) {
		return Simulation{}, &ValidationError{Field: "principal", Value: fmt.Sprint(principal), Reason: "must be a finite number"}
	}
	if math.IsNaN(annualRatePercent) || math.IsInf(annualRatePercent, 0) {
		return Simulation{}, &ValidationError{Field: "annual_rate_percent", Value: fmt.Sprint(annualRatePercent), Reason: "must be a finite number"}
	}
	return SimulateDecimal(decimal.NewFromFloat(principal), decimal.NewFromFloat(annualRatePercent), termMonths)
}

// Validate checks principal > 0, 0 <= rate <= 100 and 1 <= term <= MaxTermMonths.
func Validate(principal, annualRatePercent decimal.Decimal, termMonths int) error {
	if !principal.IsPositive() {
		return &ValidationError{Field: "principal", Value: principal.String(), Reason: "must be greater than zero"}
	}
	if annualRatePercent.IsNegative() || annualRatePercent.GreaterThan(hundred) {
		return &ValidationError{Field: "annual_rate_percent", Value: annualRatePercent.String(), Reason: "must be between 0 and 100"}
	}
	if termMonths < 1 {
		return &ValidationError{Field: "term_months", Value: fmt.Sprint(termMonths), Reason: "must be at least 1"}
	}
	if termMonths > MaxTermMonths {
		return &ValidationError{Field: "term_months", Value: fmt.Sprint(termMonths), Reason: fmt.Sprintf("must be at most %d", MaxTermMonths)}
	}
	return nil
}

// SimulateDecimal computes the monthly payment, totals and the full
// amortization schedule. Invalid parameters return a *ValidationError and no
// partial result.
func SimulateDecimal(principal, annualRatePercent decimal.Decimal, termMonths int) (Simulation, error) {
	if err := Validate(principal, annualRatePercent, termMonths); err != nil {
		return Simulation{}, err
	}

	n := decimal.NewFromInt(int64(termMonths))
	r := annualRatePercent.DivRound(hundred.Mul(monthsInYear), precision)

	sim := Simulation{
		Principal:         principal,
		AnnualRatePercent: annualRatePercent,
		TermMonths:        termMonths,
	}

	prec := int32(precision)
	if r.IsZero() {
		sim.MonthlyPayment = principal.DivRound(n, prec)
		sim.TotalPaid = principal
		sim.TotalInterest = decimal.Zero
	} else {
		prec = workingPrecision(r, termMonths)
		factor := compound(one.Add(r), termMonths, prec)
		sim.MonthlyPayment = principal.Mul(r).Mul(factor).DivRound(factor.Sub(one), prec)
		sim.TotalPaid = sim.MonthlyPayment.Mul(n)
		sim.TotalInterest = sim.TotalPaid.Sub(principal)
	}

	sim.Schedule = amortize(principal, r, sim.MonthlyPayment, termMonths, prec)
	return sim, nil
}

// workingPrecision widens the base precision by the integer digits of
// (1+r)^n: rounding error in the balance recurrence grows by that factor.
func workingPrecision(r decimal.Decimal, n int) int32 {
	growth := compound(one.Add(r), n, precision)
	return precision + int32(len(growth.Truncate(0).String()))
}

// compound returns base^n by squaring, rounding intermediates to prec places.
func compound(base decimal.Decimal, n int, prec int32) decimal.Decimal {
	result := one
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(prec)
		}
		base = base.Mul(base).Round(prec)
		n >>= 1
	}
	return result
}

func amortize(principal, r, payment decimal.Decimal, termMonths int, prec int32) []Installment {
	schedule := make([]Installment, 0, termMonths)
	balance := principal
	for period := 1; period <= termMonths; period++ {
		interest := balance.Mul(r).Round(prec)
		principalPart := payment.Sub(interest)
		balance = balance.Sub(principalPart)
		if period == termMonths || balance.IsNegative() {
			balance = decimal.Zero
		}
		schedule = append(schedule, Installment{
			Period:           period,
			Payment:          payment,
			Principal:        principalPart,
			Interest:         interest,
			RemainingBalance: balance,
		})
	}
	return schedule
}

// Preview returns at most the first PreviewPeriods installments.
func (s Simulation) Preview() []Installment {
	if len(s.Schedule) <= PreviewPeriods {
		return s.Schedule
	}
	return s.Schedule[:PreviewPeriods]
}

// Rounded returns a copy with every monetary value rounded to two places.
func (s Simulation) Rounded() Simulation {
	out := s
	out.MonthlyPayment = s.MonthlyPayment.Round(2)
	out.TotalPaid = s.TotalPaid.Round(2)
	out.TotalInterest = s.TotalInterest.Round(2)
	out.Schedule = make([]Installment, len(s.Schedule))
	for i, in := range s.Schedule {
		out.Schedule[i] = Installment{
			Period:           in.Period,
			Payment:          in.Payment.Round(2),
			Principal:        in.Principal.Round(2),
			Interest:         in.Interest.Round(2),
			RemainingBalance: in.RemainingBalance.Round(2),
		}
	}
	return out
}
