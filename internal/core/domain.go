package core

import (
	"errors"
	"strings"
	"time"
)

// FallbackCategory is the permanent bucket transactions fall back to when
// their category is deleted. It can never be removed from the category set.
const FallbackCategory = "Other"

// SavingsCategory tags the expense transactions produced by goal contributions.
const SavingsCategory = "Savings"

// DefaultCategories seeds a fresh category set.
var DefaultCategories = []string{
	"Food",
	"Transportation",
	"Housing",
	"Utilities",
	"Entertainment",
	"Income",
	FallbackCategory,
}

type (
	Date struct {
		time.Time
	}

	// Money is a signed amount in cents. Positive is income, negative is
	// an expense; the sign encodes direction everywhere in the ledger.
	Money struct {
		Cents int64
	}

	// Transaction is a single dated money movement. The ID is assigned by
	// storage (autoincrement), never by callers.
	Transaction struct {
		ID          int64
		Description string
		Amount      Money
		Category    string
		Date        Date
	}

	// Goal is a savings target with a deadline and running progress.
	Goal struct {
		ID            string
		Name          string
		TargetAmount  Money
		TargetDate    Date
		CurrentAmount Money
		CreatedAt     time.Time
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty category")
	ErrInvalidDate       = errors.New("invalid date")
	ErrGoalNameTooShort  = errors.New("goal name must be at least 3 characters")
	ErrInvalidTarget     = errors.New("target amount must be greater than zero")
	ErrNegativeProgress  = errors.New("current amount cannot be negative")
	ErrPastTargetDate    = errors.New("target date must be in the future")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// dateLayout is the ISO 8601 calendar-date wire form.
const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO 8601 date string (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsZeroAmount reports whether the amount carries no money at all. Zero
// amounts are neither income nor expense and are rejected at input time.
func (m Money) IsZeroAmount() bool {
	return m.Cents == 0
}

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Amount.IsZeroAmount() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return nil
}

// IsExpense reports whether the transaction moves money out.
func (t Transaction) IsExpense() bool {
	return t.Amount.Cents < 0
}

// Validate checks the invariants that hold over a goal's whole lifetime.
// The future-date rule only applies at creation and is enforced by the
// ledger service, since an existing goal may legitimately become overdue.
func (g Goal) Validate() error {
	if len(strings.TrimSpace(g.Name)) < 3 {
		return ErrGoalNameTooShort
	}
	if g.TargetAmount.Cents <= 0 {
		return ErrInvalidTarget
	}
	if g.CurrentAmount.Cents < 0 {
		return ErrNegativeProgress
	}
	if err := g.TargetDate.Validate(); err != nil {
		return err
	}
	return nil
}
