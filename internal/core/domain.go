package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// DateLayout is the ISO-8601 calendar date layout used on every boundary.
const DateLayout = "2006-01-02"

const (
	maxDescriptionLen = 200
	maxNotesLen       = 1000
)

type (
	// Kind distinguishes incomes from expenses.
	Kind string

	// Date is a calendar day without a time component, always UTC midnight.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID                     string   `json:"id"`
		OwnerID                string   `json:"owner_id"`
		Kind                   Kind     `json:"kind"`
		Description            string   `json:"description"`
		Amount                 Amount   `json:"amount"`
		Category               Category `json:"category"`
		Date                   Date     `json:"date"`
		IsRecurring            bool     `json:"is_recurring"`
		RecurrenceIntervalDays int      `json:"recurrence_interval_days,omitempty"`
		Notes                  string   `json:"notes,omitempty"`

		// LastOccurrence is the last day a recurring template was materialised.
		LastOccurrence Date      `json:"last_occurrence,omitzero"`
		CreatedAt      time.Time `json:"created_at"`
		UpdatedAt      time.Time `json:"updated_at"`
	}
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidKind       = errors.New("invalid transaction kind")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrEmptyOwner        = errors.New("empty owner")
	ErrTooLong           = errors.New("field too long")
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// ParseKind accepts the canonical kind names, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Key returns the calendar month the date falls in.
func (d Date) Key() MonthKey {
	return MonthKey{Year: d.Year(), Month: d.Month()}
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the user-supplied fields of a transaction.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, t.Kind)
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", ErrTooLong, maxDescriptionLen)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Category.ValidFor(t.Kind) {
		return fmt.Errorf("%w: %q for %s", ErrInvalidCategory, t.Category, t.Kind)
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.IsRecurring && t.RecurrenceIntervalDays <= 0 {
		return fmt.Errorf("%w: interval must be positive for recurring transactions", ErrInvalidRecurrence)
	}
	if !t.IsRecurring && t.RecurrenceIntervalDays != 0 {
		return fmt.Errorf("%w: interval set on a non-recurring transaction", ErrInvalidRecurrence)
	}
	if len(t.Notes) > maxNotesLen {
		return fmt.Errorf("%w: notes exceed %d characters", ErrTooLong, maxNotesLen)
	}
	return nil
}

// IsValidationError reports whether err comes from transaction validation.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidDate, ErrInvalidKind, ErrInvalidAmount, ErrEmptyDescription,
		ErrInvalidCategory, ErrInvalidRecurrence, ErrEmptyOwner, ErrTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
