package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind tells whether a transaction adds to or takes from the budget.
	// Amounts are always positive; the kind carries the sign.
	Kind string

	Transaction struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"user_id"`
		Date        time.Time       `json:"date"`
		Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
		Kind        Kind            `json:"type" validate:"oneof=income expense"`
		Category    string          `json:"category" validate:"max=100"`
		Description string          `json:"description" validate:"max=500"`
	}

	// Filter narrows a transaction query. Zero values match everything.
	Filter struct {
		UserID int64
		Year   int
		Month  int
		Kind   Kind
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidKind        = errors.New("type must be income or expense")
	ErrCategoryTooLong    = errors.New("category too long (max 100 characters)")
	ErrDescriptionTooLong = errors.New("description too long (max 500 characters)")
)

// ParseKind accepts "income" or "expense" in any case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Income, Expense:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	return k == Income || k == Expense
}

// NewDate creates a UTC calendar date.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Match reports whether t satisfies every non-zero field of the filter.
func (f Filter) Match(t Transaction) bool {
	if f.UserID != 0 && t.UserID != f.UserID {
		return false
	}
	if f.Year != 0 && t.Date.Year() != f.Year {
		return false
	}
	if f.Month != 0 && int(t.Date.Month()) != f.Month {
		return false
	}
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	return true
}

func (f Filter) Validate() error {
	if f.Month < 0 || f.Month > 12 {
		return fmt.Errorf("invalid month %d", f.Month)
	}
	if f.Year < 0 {
		return fmt.Errorf("invalid year %d", f.Year)
	}
	if f.Kind != "" && !f.Kind.IsValid() {
		return ErrInvalidKind
	}
	return nil
}
